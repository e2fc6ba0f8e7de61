// Package main runs a walkie-talkie station, or a simulated group of
// stations, from a YAML configuration file and WALKIE_* environment
// variables.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/opd-ai/walkietalkie/config"
	"github.com/opd-ai/walkietalkie/factory"
	"github.com/sirupsen/logrus"
)

// CLIConfig holds the command-line flags.
type CLIConfig struct {
	configPath string
	logLevel   string
	simulate   bool
	help       bool
}

// parseCLIFlags parses args into a CLIConfig.
func parseCLIFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	cli := &CLIConfig{}

	fs.StringVar(&cli.configPath, "config", "", "Path to the YAML configuration file")
	fs.StringVar(&cli.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	fs.BoolVar(&cli.simulate, "simulate", false, "Run simulated stations on an in-memory medium")
	fs.BoolVar(&cli.help, "help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cli, nil
}

// printUsage prints the usage information.
func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Walkie-talkie")
	fmt.Fprintln(w, "=============")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Half-duplex push-to-talk audio over a broadcast medium.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s [options]\n", fs.Name())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintf(w, "  # Run a station from a config file\n")
	fmt.Fprintf(w, "  %s -config walkie.yaml\n", fs.Name())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  # Two simulated stations, press Enter to talk on the first\n")
	fmt.Fprintf(w, "  %s -simulate -log-level debug\n", fs.Name())
}

// loadConfig loads the configuration and applies the flag overrides.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	cfg, err := config.Load(cli.configPath)
	if err != nil {
		return nil, err
	}
	if cli.logLevel != "" {
		cfg.Logging.Level = cli.logLevel
	}
	if cli.simulate {
		cfg.Simulation.Enabled = true
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if err := config.ConfigureLogging(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runner is a station or a simulation.
type runner interface {
	Run(ctx context.Context) error
	Close() error
}

func buildRunner(cfg *config.Config) (runner, error) {
	if cfg.Simulation.Enabled {
		return factory.NewSimulation(cfg)
	}
	return factory.NewStation(cfg)
}

func run(ctx context.Context, cfg *config.Config) error {
	r, err := buildRunner(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "run",
				"error":    err.Error(),
			}).Warn("Shutdown incomplete")
		}
	}()
	return r.Run(ctx)
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	cli, err := parseCLIFlags(fs, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if cli.help {
		printUsage(os.Stdout, fs)
		os.Exit(0)
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Use -help for usage information.\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("Walkie-talkie stopped with error")
		stop()
		os.Exit(1)
	}

	logrus.WithFields(logrus.Fields{
		"function": "main",
	}).Info("Walkie-talkie stopped")
}
