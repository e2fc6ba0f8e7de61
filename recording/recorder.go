package recording

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/walkietalkie/audio"
	"github.com/opd-ai/walkietalkie/interfaces"
	"github.com/sirupsen/logrus"
)

// ErrNoRecording is returned by Finish when no recording is in progress.
var ErrNoRecording = errors.New("no recording in progress")

// WAVRecorder writes each burst to a new WAV file in a folder.
// It satisfies interfaces.Recorder. It is not safe for concurrent use;
// wrap it in an AsyncRecorder.
type WAVRecorder struct {
	dir        string
	sampleRate int
	onComplete func(interfaces.Recording)
	now        func() time.Time

	file    *os.File
	w       *bufio.Writer
	scratch []byte
	current interfaces.Recording
}

// NewWAVRecorder creates a recorder writing into dir, creating it if needed.
// onComplete, when non-nil, is called with every finished recording.
func NewWAVRecorder(dir string, sampleRate int, onComplete func(interfaces.Recording)) (*WAVRecorder, error) {
	if dir == "" {
		return nil, errors.New("recording folder cannot be empty")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recording folder: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewWAVRecorder",
		"folder":      dir,
		"sample_rate": sampleRate,
	}).Info("WAV recorder ready")

	return &WAVRecorder{
		dir:        dir,
		sampleRate: sampleRate,
		onComplete: onComplete,
		now:        time.Now,
	}, nil
}

// Append writes samples to the current file, creating it on first use.
func (r *WAVRecorder) Append(samples []int16) error {
	if r.file == nil {
		if err := r.create(); err != nil {
			return err
		}
	}

	r.scratch = audio.EncodeSamples(r.scratch[:0], samples)
	if _, err := r.w.Write(r.scratch); err != nil {
		return fmt.Errorf("write %s: %w", r.current.Path, err)
	}
	r.current.Samples += len(samples)
	return nil
}

func (r *WAVRecorder) create() error {
	created := r.now()
	base := fmt.Sprintf("audio_%d", created.UnixMilli())

	var (
		file *os.File
		path string
		err  error
	)
	for attempt := 0; attempt < 100; attempt++ {
		name := base + ".wav"
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d.wav", base, attempt)
		}
		path = filepath.Join(r.dir, name)
		file, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}

	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.LittleEndian, newWAVHeader(r.sampleRate, 0)); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("write wav header: %w", err)
	}

	r.file = file
	r.w = w
	r.current = interfaces.Recording{
		ID:         uuid.NewString(),
		Path:       path,
		SampleRate: r.sampleRate,
		CreatedAt:  created,
	}

	logrus.WithFields(logrus.Fields{
		"function": "WAVRecorder.create",
		"id":       r.current.ID,
		"path":     path,
	}).Debug("Recording started")
	return nil
}

// Finish patches the header sizes, closes the file and reports the recording.
func (r *WAVRecorder) Finish() error {
	if r.file == nil {
		return ErrNoRecording
	}

	rec, file, w := r.current, r.file, r.w
	r.file, r.w, r.current = nil, nil, interfaces.Recording{}

	err := finalize(file, w, rec.Samples)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "WAVRecorder.Finish",
			"path":     rec.Path,
			"error":    err.Error(),
		}).Error("Failed to finalize recording")
		return fmt.Errorf("finalize %s: %w", rec.Path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "WAVRecorder.Finish",
		"id":       rec.ID,
		"path":     rec.Path,
		"samples":  rec.Samples,
		"duration": rec.Duration().String(),
	}).Info("Recording complete")

	if r.onComplete != nil {
		r.onComplete(rec)
	}
	return nil
}

// finalize flushes buffered data and writes the final RIFF and data sizes.
func finalize(file *os.File, w *bufio.Writer, samples int) error {
	if err := w.Flush(); err != nil {
		return err
	}

	dataSize := uint32(samples * audio.BytesPerSample)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], 36+dataSize)
	if _, err := file.WriteAt(size[:], 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(size[:], dataSize)
	if _, err := file.WriteAt(size[:], wavHeaderSize-4); err != nil {
		return err
	}
	return nil
}
