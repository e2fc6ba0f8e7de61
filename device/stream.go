package device

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

// hostStream is the subset of *portaudio.Stream the devices drive.
type hostStream interface {
	Start() error
	Stop() error
	Close() error
	Read() error
	Write() error
}

// streamOpener opens a default-device stream bound to buf.
type streamOpener func(inputChannels, outputChannels int, sampleRate float64, framesPerBuffer int, buf interface{}) (hostStream, error)

// openPortaudio opens a stream on the default host devices.
func openPortaudio(inputChannels, outputChannels int, sampleRate float64, framesPerBuffer int, buf interface{}) (hostStream, error) {
	stream, err := portaudio.OpenDefaultStream(inputChannels, outputChannels, sampleRate, framesPerBuffer, buf)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Initialize initializes the PortAudio host API.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "Initialize",
		"version":  portaudio.VersionText(),
	}).Info("Audio host API initialized")
	return nil
}

// Terminate releases the PortAudio host API.
func Terminate() error {
	return portaudio.Terminate()
}

// closeStream stops and closes s, returning the first failure.
func closeStream(s hostStream) error {
	stopErr := s.Stop()
	closeErr := s.Close()
	if stopErr != nil {
		return fmt.Errorf("failed to stop stream: %w", stopErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close stream: %w", closeErr)
	}
	return nil
}
