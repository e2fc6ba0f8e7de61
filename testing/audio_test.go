package testing

import (
	"errors"
	"testing"

	"github.com/opd-ai/walkietalkie/audio"
)

func TestFakeSourceLifecycle(t *testing.T) {
	s := NewFakeSource()
	if _, err := s.Read(make([]int16, 4)); !errors.Is(err, audio.ErrNotStarted) {
		t.Errorf("Read() before Start error = %v", err)
	}
	if err := s.Start(audio.SampleRate); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(audio.SampleRate); !errors.Is(err, audio.ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v", err)
	}

	var hooked int
	s.OnRead = func(n int) { hooked += n }

	buf := make([]int16, 4)
	for round := 0; round < 2; round++ {
		if n, err := s.Read(buf); err != nil || n != 4 {
			t.Fatalf("Read() = %d, %v", n, err)
		}
	}
	if buf[0] != 4 || buf[3] != 7 {
		t.Errorf("second frame = %v, want ramp from 4", buf)
	}
	if hooked != 8 || s.Reads() != 2 || s.Produced() != 8 {
		t.Errorf("hooked=%d reads=%d produced=%d", hooked, s.Reads(), s.Produced())
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := s.Stop(); !errors.Is(err, audio.ErrNotStarted) {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestFakeSinkRecordLimit(t *testing.T) {
	s := NewFakeSink()
	s.MaxRecorded = 3
	if err := s.Write([]int16{1}); !errors.Is(err, audio.ErrNotStarted) {
		t.Errorf("Write() before Start error = %v", err)
	}
	if err := s.Start(audio.SampleRate); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	_ = s.Write([]int16{1, 2})
	_ = s.Write([]int16{3, 4})

	if got := s.Samples(); len(got) != 3 || got[2] != 3 {
		t.Errorf("Samples() = %v, want [1 2 3]", got)
	}
	if s.Written() != 4 || s.Writes() != 2 {
		t.Errorf("Written()=%d Writes()=%d", s.Written(), s.Writes())
	}
}

func TestButtonPressFor(t *testing.T) {
	var b Button
	b.PressFor(2)
	if !b.Pressed() || !b.Pressed() || b.Pressed() {
		t.Error("PressFor(2) should report exactly two presses")
	}
	b.Press()
	if !b.Pressed() {
		t.Error("Press() not reported")
	}
	b.Release()
	if b.Pressed() {
		t.Error("Release() not reported")
	}
	if b.Polls() != 5 {
		t.Errorf("Polls() = %d, want 5", b.Polls())
	}
}
