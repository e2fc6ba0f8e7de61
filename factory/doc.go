// Package factory assembles walkie-talkie stations from configuration.
//
// A station is one jitter buffer, one transport link, an audio source and
// sink, the push-to-talk input and the optional recording and metrics
// layers, all handed to a session.Controller. Every component is chosen once
// at startup from config.Config and never switched afterwards.
//
// # Real stations
//
// NewStation opens the audio devices and the broadcast medium named by the
// configuration:
//
//	cfg, err := config.Load("walkie.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	station, err := factory.NewStation(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer station.Close()
//	err = station.Run(ctx)
//
// NewStationWithHardware takes caller-supplied audio devices and controls
// and builds only the link and the software layers, which is how tests and
// the simulation drive a complete station.
//
// # Simulation
//
// NewSimulation attaches several stations to one in-memory broadcast medium
// from the testing package. Station 0 takes its push-to-talk from the
// configuration when it is "stdin"; every other station is keyed by a
// simulated button, and the second one talks periodically when
// simulation.talk_every is set.
package factory
