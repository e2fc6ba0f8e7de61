package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/opd-ai/walkietalkie/limits"
	"github.com/sirupsen/logrus"
)

// Validate checks that the configuration is coherent. It returns every
// problem found joined into one error wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	oneOf := func(field, value string, valid ...string) {
		if !slices.Contains(valid, value) {
			add("%s %q is invalid; valid values: %v", field, value, valid)
		}
	}

	// Audio
	oneOf("audio.input", c.Audio.Input, "i2s", "adc")
	oneOf("audio.output", c.Audio.Output, "i2s", "dac")
	if c.Audio.Input == "adc" && c.Audio.ADCDevice == "" && !c.Simulation.Enabled {
		add("audio.adc_device is required for the adc input")
	}
	if c.Audio.SampleRate <= 0 {
		add("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.FrameSize <= 0 {
		add("audio.frame_size must be positive, got %d", c.Audio.FrameSize)
	}

	// Jitter buffer
	if c.Jitter.Capacity <= 0 {
		add("jitter.capacity must be positive, got %d", c.Jitter.Capacity)
	}
	if c.Jitter.Prebuffer < 0 || c.Jitter.Prebuffer > c.Jitter.Capacity {
		add("jitter.prebuffer must be between 0 and jitter.capacity, got %d", c.Jitter.Prebuffer)
	}

	// Transport
	oneOf("transport.kind", c.Transport.Kind, "udp", "linklayer")
	mtu := c.Transport.UDP.MTU
	if c.Transport.Kind == "linklayer" {
		mtu = c.Transport.LinkLayer.MTU
		if c.Transport.LinkLayer.Interface == "" && !c.Simulation.Enabled {
			add("transport.linklayer.interface is required for the linklayer transport")
		}
	}
	if err := limits.ValidateMTU(mtu); err != nil {
		add("transport mtu: %w", err)
	} else if header, err := c.HeaderBytes(); err != nil {
		errs = append(errs, err)
	} else if err := limits.ValidateHeader(header, mtu); err != nil {
		add("transport.header: %w", err)
	}
	if c.Transport.UDP.MTU > limits.MaxDatagramPacket {
		logrus.WithFields(logrus.Fields{
			"function": "Config.Validate",
			"mtu":      c.Transport.UDP.MTU,
			"limit":    limits.MaxDatagramPacket,
		}).Warn("transport.udp.mtu exceeds a single Ethernet frame; packets may fragment")
	}

	// Session
	if c.Session.MinTransmit < 0 {
		add("session.min_transmit cannot be negative, got %v", c.Session.MinTransmit)
	}
	if c.Session.HousekeepingInterval <= 0 {
		add("session.housekeeping_interval must be positive, got %v", c.Session.HousekeepingInterval)
	}

	// Push-to-talk
	oneOf("ptt.kind", c.PTT.Kind, "gpio", "stdin", "none")
	if c.PTT.Kind == "gpio" && c.PTT.GPIOPath == "" {
		add("ptt.gpio_path is required for the gpio push-to-talk")
	}

	// Recording and notification
	if c.Recording.Enabled && c.Recording.Folder == "" {
		add("recording.folder is required when recording is enabled")
	}
	if c.Recording.QueueSize < 0 {
		add("recording.queue_size cannot be negative, got %d", c.Recording.QueueSize)
	}
	oneOf("notify.kind", c.Notify.Kind, "log", "exec", "none")
	if c.Notify.Kind == "exec" && c.Notify.Command == "" {
		add("notify.command is required for the exec notifier")
	}
	if c.Notify.Timeout < 0 || c.Notify.MaxAttempts < 0 {
		add("notify.timeout and notify.max_attempts cannot be negative")
	}

	// Metrics and logging
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		add("metrics.addr is required when metrics are enabled")
	}
	oneOf("logging.format", c.Logging.Format, "text", "json")
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level %q is invalid: %w", c.Logging.Level, err)
	}

	// Simulation
	if c.Simulation.Enabled {
		if c.Simulation.Stations < 1 || c.Simulation.Stations > 16 {
			add("simulation.stations must be between 1 and 16, got %d", c.Simulation.Stations)
		}
		if c.Simulation.LossPercent < 0 || c.Simulation.LossPercent > 100 {
			add("simulation.loss_percent must be between 0 and 100, got %d", c.Simulation.LossPercent)
		}
		if c.Simulation.TalkEvery < 0 || c.Simulation.TalkFor < 0 {
			add("simulation.talk_every and simulation.talk_for cannot be negative")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
