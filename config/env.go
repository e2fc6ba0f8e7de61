package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// ApplyEnvironment overrides configuration from WALKIE_* environment
// variables. Values that do not parse are logged and ignored.
//
//	WALKIE_TRANSPORT          transport.kind
//	WALKIE_HEADER             transport.header
//	WALKIE_LISTEN_ADDR        transport.udp.listen_addr
//	WALKIE_DESTINATION        transport.udp.destination
//	WALKIE_INTERFACE          transport.linklayer.interface
//	WALKIE_JITTER_CAPACITY    jitter.capacity
//	WALKIE_MIN_TRANSMIT       session.min_transmit
//	WALKIE_PTT                ptt.kind
//	WALKIE_PTT_GPIO           ptt.gpio_path
//	WALKIE_RECORDING          recording.enabled
//	WALKIE_RECORDING_FOLDER   recording.folder
//	WALKIE_NOTIFY_COMMAND     notify.command (and notify.kind=exec)
//	WALKIE_METRICS_ADDR       metrics.addr (and metrics.enabled)
//	WALKIE_LOG_LEVEL          logging.level
//	WALKIE_SIMULATION         simulation.enabled
func ApplyEnvironment(cfg *Config) {
	envString("WALKIE_TRANSPORT", &cfg.Transport.Kind)
	envString("WALKIE_HEADER", &cfg.Transport.Header)
	envString("WALKIE_LISTEN_ADDR", &cfg.Transport.UDP.ListenAddr)
	envString("WALKIE_DESTINATION", &cfg.Transport.UDP.Destination)
	envString("WALKIE_INTERFACE", &cfg.Transport.LinkLayer.Interface)
	envInt("WALKIE_JITTER_CAPACITY", &cfg.Jitter.Capacity, 1, 16000*60)
	envDuration("WALKIE_MIN_TRANSMIT", &cfg.Session.MinTransmit)
	envString("WALKIE_PTT", &cfg.PTT.Kind)
	if envString("WALKIE_PTT_GPIO", &cfg.PTT.GPIOPath) {
		cfg.PTT.Kind = "gpio"
	}
	envBool("WALKIE_RECORDING", &cfg.Recording.Enabled)
	envString("WALKIE_RECORDING_FOLDER", &cfg.Recording.Folder)
	if envString("WALKIE_NOTIFY_COMMAND", &cfg.Notify.Command) {
		cfg.Notify.Kind = "exec"
	}
	if envString("WALKIE_METRICS_ADDR", &cfg.Metrics.Addr) {
		cfg.Metrics.Enabled = true
	}
	envString("WALKIE_LOG_LEVEL", &cfg.Logging.Level)
	envBool("WALKIE_SIMULATION", &cfg.Simulation.Enabled)
}

func envString(name string, dst *string) bool {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return false
	}
	*dst = value
	return true
}

func envBool(name string, dst *bool) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "envBool",
			"env_var":     name,
			"value":       value,
			"error":       err.Error(),
			"using_value": *dst,
		}).Warn("Failed to parse environment variable, using configured value")
		return
	}
	*dst = parsed
}

func envInt(name string, dst *int, lo, hi int) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "envInt",
			"env_var":     name,
			"value":       value,
			"error":       err.Error(),
			"using_value": *dst,
		}).Warn("Failed to parse environment variable, using configured value")
		return
	}
	if parsed < lo || parsed > hi {
		logrus.WithFields(logrus.Fields{
			"function":    "envInt",
			"env_var":     name,
			"value":       parsed,
			"min":         lo,
			"max":         hi,
			"using_value": *dst,
		}).Warn("Environment variable out of bounds, using configured value")
		return
	}
	*dst = parsed
}

func envDuration(name string, dst *time.Duration) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "envDuration",
			"env_var":     name,
			"value":       value,
			"error":       err.Error(),
			"using_value": dst.String(),
		}).Warn("Failed to parse environment variable, using configured value")
		return
	}
	*dst = parsed
}
