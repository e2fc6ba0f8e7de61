package factory

import (
	"fmt"
	"os"

	"github.com/opd-ai/walkietalkie/audio"
	"github.com/opd-ai/walkietalkie/config"
	"github.com/opd-ai/walkietalkie/device"
	"github.com/opd-ai/walkietalkie/interfaces"
	"github.com/opd-ai/walkietalkie/real"
	"github.com/sirupsen/logrus"
)

// NewStation opens the audio host, the configured microphone, speaker,
// push-to-talk and amplifier line, and assembles a station around them.
// Close releases the audio host.
func NewStation(cfg *config.Config) (*Station, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := device.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize audio host: %w", err)
	}

	hw, err := openHardware(cfg)
	if err != nil {
		_ = device.Terminate()
		return nil, err
	}

	s, err := NewStationWithHardware(cfg, hw)
	if err != nil {
		_ = device.Terminate()
		return nil, err
	}
	s.closers = append(s.closers, device.Terminate)
	return s, nil
}

func openHardware(cfg *config.Config) (Hardware, error) {
	var hw Hardware
	var err error

	if hw.Source, err = openSource(cfg.Audio); err != nil {
		return Hardware{}, err
	}
	if hw.Sink, err = openSink(cfg.Audio); err != nil {
		return Hardware{}, err
	}
	if hw.PTT, err = openPTT(cfg.PTT); err != nil {
		return Hardware{}, err
	}

	if cfg.Audio.AmplifierGPIO != "" {
		amp, err := real.NewGPIOAmplifier(cfg.Audio.AmplifierGPIO)
		if err != nil {
			return Hardware{}, fmt.Errorf("amplifier: %w", err)
		}
		hw.Amplifier = amp
	}
	hw.Indicator = real.NewLogIndicator()

	logrus.WithFields(logrus.Fields{
		"function":  "openHardware",
		"input":     cfg.Audio.Input,
		"output":    cfg.Audio.Output,
		"ptt":       cfg.PTT.Kind,
		"amplifier": cfg.Audio.AmplifierGPIO != "",
	}).Info("Station hardware selected")

	return hw, nil
}

func openSource(ac config.AudioConfig) (audio.Source, error) {
	switch ac.Input {
	case "i2s":
		return device.NewI2SSource(ac.FrameSize), nil
	case "adc":
		return device.NewADCSource(ac.ADCDevice, ac.FrameSize), nil
	default:
		return nil, fmt.Errorf("unknown audio input %q", ac.Input)
	}
}

func openSink(ac config.AudioConfig) (audio.Sink, error) {
	switch ac.Output {
	case "i2s":
		return device.NewI2SSink(ac.FrameSize), nil
	case "dac":
		return device.NewDACSink(ac.FrameSize), nil
	default:
		return nil, fmt.Errorf("unknown audio output %q", ac.Output)
	}
}

func openPTT(pc config.PTTConfig) (interfaces.PushToTalk, error) {
	switch pc.Kind {
	case "gpio":
		btn, err := real.NewGPIOButton(pc.GPIOPath, pc.ActiveLow)
		if err != nil {
			return nil, fmt.Errorf("push-to-talk: %w", err)
		}
		return btn, nil
	case "stdin":
		return real.NewLineToggle(os.Stdin)
	case "none":
		return interfaces.Released{}, nil
	default:
		return nil, fmt.Errorf("unknown push-to-talk kind %q", pc.Kind)
	}
}
