// Package real provides host implementations of the station collaborators:
// push-to-talk inputs, the speaker amplifier line and the status indicator.
//
// GPIO lines are driven through the sysfs interface, the way the station
// runs on a single-board computer:
//
//	ptt, err := real.NewGPIOButton("/sys/class/gpio/gpio17/value", true)
//	amp, err := real.NewGPIOAmplifier("/sys/class/gpio/gpio27/value")
//
// On a desktop the push-to-talk is a [LineToggle] over standard input, where
// each Enter starts or stops talking, and the indicator is a [LogIndicator]
// that reports colour changes in the log.
//
// Simulated counterparts live in the testing package; the factory picks one
// or the other from configuration.
package real
