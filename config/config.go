package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/opd-ai/walkietalkie/audio"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultJitterLatency is the playback delay the default jitter capacity covers.
const DefaultJitterLatency = 300 * time.Millisecond

// Config is the complete station configuration.
type Config struct {
	Audio      AudioConfig      `yaml:"audio"`
	Jitter     JitterConfig     `yaml:"jitter"`
	Transport  TransportConfig  `yaml:"transport"`
	Session    SessionConfig    `yaml:"session"`
	PTT        PTTConfig        `yaml:"ptt"`
	Recording  RecordingConfig  `yaml:"recording"`
	Notify     NotifyConfig     `yaml:"notify"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// AudioConfig selects the microphone and speaker paths.
type AudioConfig struct {
	// Input is "i2s" for a digital microphone or "adc" for an analog one.
	Input string `yaml:"input"`
	// Output is "i2s" for a digital amplifier or "dac" for an analog one.
	Output string `yaml:"output"`
	// ADCDevice is the converter device read by the "adc" input.
	ADCDevice string `yaml:"adc_device"`
	// AmplifierGPIO is the sysfs value file of the speaker enable line.
	AmplifierGPIO string `yaml:"amplifier_gpio"`
	SampleRate    int    `yaml:"sample_rate"`
	FrameSize     int    `yaml:"frame_size"`
}

// JitterConfig sizes the playback buffer.
type JitterConfig struct {
	Capacity  int `yaml:"capacity"`
	Prebuffer int `yaml:"prebuffer"`
}

// TransportConfig selects the broadcast medium.
type TransportConfig struct {
	// Kind is "udp" or "linklayer".
	Kind string `yaml:"kind"`
	// Header is the packet header as hex, empty for none.
	Header    string          `yaml:"header"`
	UDP       UDPConfig       `yaml:"udp"`
	LinkLayer LinkLayerConfig `yaml:"linklayer"`
}

// UDPConfig configures the datagram medium.
type UDPConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	Destination string `yaml:"destination"`
	MTU         int    `yaml:"mtu"`
}

// LinkLayerConfig configures the link-layer medium.
type LinkLayerConfig struct {
	Interface string `yaml:"interface"`
	EtherType uint16 `yaml:"ether_type"`
	MTU       int    `yaml:"mtu"`
}

// SessionConfig holds controller timing.
type SessionConfig struct {
	MinTransmit          time.Duration `yaml:"min_transmit"`
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval"`
}

// PTTConfig selects the push-to-talk input.
type PTTConfig struct {
	// Kind is "gpio", "stdin" or "none".
	Kind      string `yaml:"kind"`
	GPIOPath  string `yaml:"gpio_path"`
	ActiveLow bool   `yaml:"active_low"`
}

// RecordingConfig controls capture of transmit bursts to WAV files.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Folder    string `yaml:"folder"`
	QueueSize int    `yaml:"queue_size"`
}

// NotifyConfig selects what happens to completed recordings.
type NotifyConfig struct {
	// Kind is "log", "exec" or "none".
	Kind        string        `yaml:"kind"`
	Command     string        `yaml:"command"`
	Args        []string      `yaml:"args"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig controls logrus.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// SimulationConfig runs several stations in-process on a simulated medium.
type SimulationConfig struct {
	Enabled  bool `yaml:"enabled"`
	Stations int  `yaml:"stations"`
	// LossPercent drops this share of packets on the medium.
	LossPercent int `yaml:"loss_percent"`
	// TalkEvery makes the second station key up periodically; zero disables it.
	TalkEvery time.Duration `yaml:"talk_every"`
	TalkFor   time.Duration `yaml:"talk_for"`
}

// Default returns the configuration of a UDP station with an I2S microphone
// and speaker, push-to-talk on standard input and no recording.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			Input:      "i2s",
			Output:     "i2s",
			SampleRate: audio.SampleRate,
			FrameSize:  audio.FrameSize,
		},
		Jitter: JitterConfig{Capacity: audio.SamplesFor(DefaultJitterLatency, audio.SampleRate)},
		Transport: TransportConfig{
			Kind: "udp",
			UDP: UDPConfig{
				ListenAddr:  ":42005",
				Destination: "255.255.255.255:42005",
				MTU:         1436,
			},
			LinkLayer: LinkLayerConfig{
				EtherType: 0x88B5,
				MTU:       250,
			},
		},
		Session: SessionConfig{
			MinTransmit:          time.Second,
			HousekeepingInterval: time.Second,
		},
		PTT: PTTConfig{Kind: "stdin"},
		Recording: RecordingConfig{
			Folder:    "recordings",
			QueueSize: 256,
		},
		Notify: NotifyConfig{
			Kind:        "log",
			Timeout:     30 * time.Second,
			MaxAttempts: 3,
		},
		Metrics: MetricsConfig{Addr: ":9105"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Simulation: SimulationConfig{
			Stations: 2,
			TalkFor:  2 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty), a .env file in the working directory and the WALKIE_*
// environment, and validates it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()

		if err := decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	ApplyEnvironment(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":   "config.Load",
		"path":       path,
		"transport":  cfg.Transport.Kind,
		"input":      cfg.Audio.Input,
		"output":     cfg.Audio.Output,
		"ptt":        cfg.PTT.Kind,
		"recording":  cfg.Recording.Enabled,
		"simulation": cfg.Simulation.Enabled,
	}).Info("Configuration loaded")
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result. The environment is not consulted.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// HeaderBytes returns the decoded packet header.
func (c *Config) HeaderBytes() ([]byte, error) {
	h := strings.NewReplacer(" ", "", ":", "").Replace(c.Transport.Header)
	h = strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("transport.header %q is not hex: %w", c.Transport.Header, err)
	}
	return b, nil
}

// ConfigureLogging applies the logging section to the standard logrus logger.
func ConfigureLogging(l LoggingConfig) error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	logrus.SetLevel(level)

	switch l.Format {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("logging.format %q is invalid; valid values: text, json", l.Format)
	}
	return nil
}
