package limits

import (
	"errors"
	"testing"
)

// TestPayloadCapacityDefaults verifies the sample capacity of each medium with no header
func TestPayloadCapacityDefaults(t *testing.T) {
	if got := PayloadCapacity(MaxDatagramPacket, 0); got != 718 {
		t.Errorf("PayloadCapacity(datagram) = %d, want 718", got)
	}
	if got := PayloadCapacity(MaxLinkLayerPacket, 0); got != 125 {
		t.Errorf("PayloadCapacity(link-layer) = %d, want 125", got)
	}
}

// TestPayloadCapacityWithHeader verifies odd leftovers are not counted as a sample
func TestPayloadCapacityWithHeader(t *testing.T) {
	tests := []struct {
		name       string
		mtu        int
		headerSize int
		want       int
	}{
		{"odd remainder", 250, 3, 123},
		{"even remainder", 250, 4, 123},
		{"exactly one sample", 10, 8, 1},
		{"no room", 10, 9, 0},
		{"header larger than mtu", 10, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PayloadCapacity(tt.mtu, tt.headerSize); got != tt.want {
				t.Errorf("PayloadCapacity(%d, %d) = %d, want %d", tt.mtu, tt.headerSize, got, tt.want)
			}
		})
	}
}

// TestValidateHeader tests header validation against the medium MTU
func TestValidateHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  []byte
		mtu     int
		wantErr error
	}{
		{"empty header", nil, MaxLinkLayerPacket, nil},
		{"small header", []byte{0x01, 0x02}, MaxLinkLayerPacket, nil},
		{"header leaves one sample", make([]byte, MaxLinkLayerPacket-2), MaxLinkLayerPacket, nil},
		{"header fills packet", make([]byte, MaxLinkLayerPacket-1), MaxLinkLayerPacket, ErrHeaderTooLarge},
		{"invalid mtu", nil, 1, ErrInvalidMTU},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeader(tt.header, tt.mtu)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateHeader() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateHeader() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidateMTU tests the MTU bounds
func TestValidateMTU(t *testing.T) {
	for _, mtu := range []int{SampleSize, MaxDatagramPacket, MaxReceivePacket} {
		if err := ValidateMTU(mtu); err != nil {
			t.Errorf("ValidateMTU(%d) unexpected error: %v", mtu, err)
		}
	}
	for _, mtu := range []int{0, 1, MaxReceivePacket + 1, 3000} {
		if err := ValidateMTU(mtu); !errors.Is(err, ErrInvalidMTU) {
			t.Errorf("ValidateMTU(%d) error = %v, want ErrInvalidMTU", mtu, err)
		}
	}
}

// TestValidatePacket tests the packet length checks
func TestValidatePacket(t *testing.T) {
	if err := ValidatePacket(make([]byte, MaxReceivePacket+1), 0); !errors.Is(err, ErrPacketTooLarge) {
		t.Errorf("ValidatePacket() error = %v, want ErrPacketTooLarge", err)
	}
	if err := ValidatePacket([]byte{1, 2, 3}, 3); err != nil {
		t.Errorf("ValidatePacket() unexpected error: %v", err)
	}
	if err := ValidatePacket([]byte{1}, 2); !errors.Is(err, ErrPacketTooSmall) {
		t.Errorf("ValidatePacket() error = %v, want ErrPacketTooSmall", err)
	}
}
