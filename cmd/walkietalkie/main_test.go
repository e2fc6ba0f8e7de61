package main

import (
	"bytes"
	"flag"
	"io"
	"path/filepath"
	"testing"

	"github.com/opd-ai/walkietalkie/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("walkietalkie", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseCLIFlags(t *testing.T) {
	cli, err := parseCLIFlags(newFlagSet(), []string{"-config", "walkie.yaml", "-log-level", "debug", "-simulate"})
	require.NoError(t, err)
	assert.Equal(t, "walkie.yaml", cli.configPath)
	assert.Equal(t, "debug", cli.logLevel)
	assert.True(t, cli.simulate)
	assert.False(t, cli.help)

	_, err = parseCLIFlags(newFlagSet(), []string{"-bogus"})
	assert.Error(t, err)
}

func TestPrintUsage(t *testing.T) {
	fs := newFlagSet()
	_, err := parseCLIFlags(fs, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	printUsage(&buf, fs)
	out := buf.String()
	assert.Contains(t, out, "-config")
	assert.Contains(t, out, "-simulate")
	assert.Contains(t, out, "Examples:")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig(&CLIConfig{logLevel: "warn", simulate: true})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Simulation.Enabled)

	_, err = loadConfig(&CLIConfig{logLevel: "shouting"})
	assert.Error(t, err)

	_, err = loadConfig(&CLIConfig{configPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestBuildRunnerSimulation(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig(&CLIConfig{simulate: true})
	require.NoError(t, err)
	cfg.PTT.Kind = "none"

	r, err := buildRunner(cfg)
	require.NoError(t, err)
	defer r.Close()

	sim, ok := r.(*factory.Simulation)
	require.True(t, ok)
	assert.Len(t, sim.Stations(), cfg.Simulation.Stations)
}
