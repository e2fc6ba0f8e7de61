package recording

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	wavHeaderSize = 44
	bitsPerSample = 16
	numChannels   = 1
)

// ErrInvalidWAV is returned when a file is not a 16-bit mono PCM WAV.
var ErrInvalidWAV = errors.New("invalid wav file")

// wavHeader is the canonical 44-byte RIFF header of a PCM file.
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

func newWAVHeader(sampleRate int, dataSize uint32) wavHeader {
	return wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * numChannels * bitsPerSample / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// ReadWAV decodes a file written by WAVRecorder.
//
// Returns:
//   - []int16: The samples
//   - int: The sample rate
//   - error: ErrInvalidWAV if the header does not describe 16-bit mono PCM
func ReadWAV(r io.Reader) ([]int16, int, error) {
	var h wavHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, 0, fmt.Errorf("%w: reading header: %v", ErrInvalidWAV, err)
	}

	switch {
	case string(h.ChunkID[:]) != "RIFF" || string(h.Format[:]) != "WAVE":
		return nil, 0, fmt.Errorf("%w: missing RIFF/WAVE marker", ErrInvalidWAV)
	case string(h.Subchunk1ID[:]) != "fmt " || string(h.Subchunk2ID[:]) != "data":
		return nil, 0, fmt.Errorf("%w: unexpected chunk layout", ErrInvalidWAV)
	case h.AudioFormat != 1 || h.NumChannels != numChannels || h.BitsPerSample != bitsPerSample:
		return nil, 0, fmt.Errorf("%w: format %d, %d channels, %d bits", ErrInvalidWAV, h.AudioFormat, h.NumChannels, h.BitsPerSample)
	}

	samples := make([]int16, h.Subchunk2Size/2)
	if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
		return nil, 0, fmt.Errorf("%w: reading data: %v", ErrInvalidWAV, err)
	}
	return samples, int(h.SampleRate), nil
}
