package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soa-illustrations/lmi/config"
)

func TestDefaultCarriesAKAndSDRetaliationEntries(t *testing.T) {
	cfg := config.Default()

	ak, ok := cfg.RetaliationFor("AK")
	require.True(t, ok)
	assert.InDelta(t, 0.0270, ak.AdjustedFirstTierRate, 1e-9)

	sd, ok := cfg.RetaliationFor("SD")
	require.True(t, ok)
	assert.InDelta(t, 0.0250, sd.AdjustedFirstTierRate, 1e-9)

	_, ok = cfg.RetaliationFor("CA")
	assert.False(t, ok, "states without a retaliation entry should report not-found")
}

func TestLoadWithEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadOverridesOnlyNamedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lmi.yaml")
	contents := `
solver:
  precision: 0.001
  max_iter: 50
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.001, cfg.Solver.Precision, 1e-12)
	assert.Equal(t, 50, cfg.Solver.MaxIter)
	// Fields the file didn't mention keep their Default() values.
	assert.Equal(t, "nearest", cfg.Rounding.Mode)
	_, ok := cfg.RetaliationFor("AK")
	assert.True(t, ok)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
