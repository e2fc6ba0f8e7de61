package interfaces

import (
	"context"
	"testing"
	"time"
)

func TestRecordingDuration(t *testing.T) {
	tests := []struct {
		name string
		rec  Recording
		want time.Duration
	}{
		{"one second", Recording{Samples: 16000, SampleRate: 16000}, time.Second},
		{"one frame", Recording{Samples: 128, SampleRate: 16000}, 8 * time.Millisecond},
		{"empty", Recording{SampleRate: 16000}, 0},
		{"unknown rate", Recording{Samples: 16000}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Duration(); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNopCollaborators(t *testing.T) {
	if err := (NopRecorder{}).Append([]int16{1, 2}); err != nil {
		t.Errorf("NopRecorder.Append() error = %v", err)
	}
	if err := (NopRecorder{}).Finish(); err != nil {
		t.Errorf("NopRecorder.Finish() error = %v", err)
	}
	if err := (NopIndicator{}).Begin(); err != nil {
		t.Errorf("NopIndicator.Begin() error = %v", err)
	}
	if err := (NopAmplifier{}).SetEnabled(true); err != nil {
		t.Errorf("NopAmplifier.SetEnabled() error = %v", err)
	}
	if err := (NopNotifier{}).Notify(context.Background(), Recording{}); err != nil {
		t.Errorf("NopNotifier.Notify() error = %v", err)
	}
	if (Released{}).Pressed() {
		t.Error("Released.Pressed() = true")
	}
}
