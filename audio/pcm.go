package audio

import "encoding/binary"

// EncodeSamples appends the little-endian encoding of samples to dst and
// returns the extended slice.
func EncodeSamples(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}

// PutSample writes one little-endian sample at b[0:2].
func PutSample(b []byte, s int16) {
	binary.LittleEndian.PutUint16(b, uint16(s))
}

// DecodeSamples decodes little-endian samples from payload into dst, growing
// it as needed, and returns the decoded slice. A trailing odd byte is ignored.
func DecodeSamples(dst []int16, payload []byte) []int16 {
	n := len(payload) / BytesPerSample
	if cap(dst) < n {
		dst = make([]int16, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(payload[i*BytesPerSample:]))
	}
	return dst
}
