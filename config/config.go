/*
Package config loads the engine-wide settings spec.md leaves as
external inputs rather than contract.Input fields: rounding defaults,
solver precision/iteration limits, the AK/SD premium-tax adjusted
first-tier rate and retaliation threshold (spec.md §4.4), and a default
case-level dynamic M&E base rate. The census package does not read
these settings.

GROUNDED ON:
  jiangshenghai57-andy-warhol/config/config.go's ReadConfig: an
  environment-variable-selected path (OCP_ENV/CONFIG_PATH there), a
  single decode call, and a log line announcing where the file came
  from. This package swaps the teacher's ad hoc map[string]interface{}
  plus encoding/json for a typed struct plus gopkg.in/yaml.v3 (already
  part of this corpus's dependency set), since an engine-wide settings
  file benefits from the compile-time field checking a typed struct
  gives over a map, and the teacher's ReadConfig panics on marshal
  errors where this package returns one instead: a construction-time
  error is exactly the kind of fatal configuration anomaly spec.md §7
  already expects the engine to reject eagerly, not after a projection
  is half-run.
*/
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/soa-illustrations/lmi/currency"
)

// PremiumTaxRetaliation configures spec.md §4.4's adjusted first-tier
// rate and retaliation threshold for the handful of states (AK, SD)
// that premiumtax.Retaliates treats as non-retaliatory: no domiciliary
// tax is compared for them, and the adjustment sits in their first-tier
// rate instead.
type PremiumTaxRetaliation struct {
	AdjustedFirstTierRate float64 `yaml:"adjusted_first_tier_rate"`
	RetaliationThreshold  float64 `yaml:"retaliation_threshold"`
}

// SolverDefaults configures the fallback Params a census.Solve caller
// uses when a SolveRequest doesn't set its own.
type SolverDefaults struct {
	Precision float64 `yaml:"precision"`
	MaxIter   int     `yaml:"max_iter"`
}

// EngineConfig is the engine-wide settings document this package loads.
type EngineConfig struct {
	Rounding struct {
		Mode  string `yaml:"mode"`  // "nearest", "up", "down" (contract.RoundingMode names)
		Scale int    `yaml:"scale"` // rounding increments per whole unit (100: nearest cent)
	} `yaml:"rounding"`

	Solver SolverDefaults `yaml:"solver"`

	PremiumTaxRetaliation map[string]PremiumTaxRetaliation `yaml:"premium_tax_retaliation"`

	DefaultCaseME struct {
		BaseGrossAnnual float64 `yaml:"base_gross_annual"`
	} `yaml:"default_case_me"`
}

// Default returns the settings lmi ships with absent a config file:
// nearest-cent rounding, a 1e-6 solver precision capped at 100
// iterations, and AK/SD's published retaliation parameters.
func Default() EngineConfig {
	var c EngineConfig
	c.Rounding.Mode = "nearest"
	c.Rounding.Scale = int(currency.SubunitsPerUnit)
	c.Solver.Precision = 1e-6
	c.Solver.MaxIter = 100
	c.PremiumTaxRetaliation = map[string]PremiumTaxRetaliation{
		"AK": {AdjustedFirstTierRate: 0.0270, RetaliationThreshold: 0.02},
		"SD": {AdjustedFirstTierRate: 0.0250, RetaliationThreshold: 0.02},
	}
	c.DefaultCaseME.BaseGrossAnnual = 0.0
	return c
}

// Load reads an EngineConfig from path, starting from Default() so an
// incomplete file only overrides the settings it actually names. An
// empty path is not an error: Load returns Default() unchanged, the
// same way a census run with no dynamic M&E schedule configured still
// has a well-defined (zero) case-level rate.
func Load(path string) (EngineConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// RetaliationFor looks up a state's PremiumTaxRetaliation parameters.
// The bool result is false when state carries no retaliation entry
// (in Default, every state other than AK and SD).
func (c EngineConfig) RetaliationFor(state string) (PremiumTaxRetaliation, bool) {
	r, ok := c.PremiumTaxRetaliation[state]
	return r, ok
}
