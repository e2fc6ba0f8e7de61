// Package config loads station configuration.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// WALKIE_* environment variables, which may come from a .env file in the
// working directory. The result is validated as a whole and every problem is
// reported at once.
//
//	cfg, err := config.Load("walkietalkie.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// A minimal file for a station on a Raspberry Pi:
//
//	audio:
//	  input: i2s
//	  output: i2s
//	  amplifier_gpio: /sys/class/gpio/gpio27/value
//	transport:
//	  kind: udp
//	  header: "5754"
//	ptt:
//	  kind: gpio
//	  gpio_path: /sys/class/gpio/gpio17/value
//	  active_low: true
package config
