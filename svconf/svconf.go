// Public domain.

// Package svconf loads and resolves validation pipeline configuration.
//
// Configuration comes from an optional YAML file with a global section and
// per-test sections, plus command line overrides.  Resolution precedence,
// highest first: command line flag, per-test section, global section,
// built-in default.
package svconf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"shevalid/svbin"
	"shevalid/svres"
)

// Built-in defaults.
const (
	DefaultSlopeFailSigma     = 5.0
	DefaultInterceptFailSigma = 5.0
	DefaultPFail              = 0.05
	DefaultMinFraction        = 1.0
	DefaultNBootstrap         = 1000
	DefaultBootstrapSeed      = 12345
	DefaultMaxGIn             = 0.99
	DefaultDetectorHeight     = 4136.0

	// DefaultAutoBinLimits derives four quantile bins from the data being
	// binned, for any parameter without configured limits.
	DefaultAutoBinLimits = "auto-4"
)

// DefaultScaling applies the tightest multiple-comparison correction.
const DefaultScaling = svres.ScaleTestCaseBins

// TestConfig holds the configurable knobs of one test.  Pointer fields
// distinguish "unset" from an explicit zero.
type TestConfig struct {
	SlopeFailSigma     *float64 `yaml:"slope_fail_sigma"`
	InterceptFailSigma *float64 `yaml:"intercept_fail_sigma"`
	FailSigmaScaling   *string  `yaml:"fail_sigma_scaling"`
	PFail              *float64 `yaml:"p_fail"`
	MinFraction        *float64 `yaml:"min_fraction"`
	Bootstrap          *bool    `yaml:"bootstrap"`
	NBootstrap         *int     `yaml:"n_bootstrap"`
	BootstrapSeed      *uint64  `yaml:"bootstrap_seed"`
	MaxGIn             *float64 `yaml:"max_g_in"`
	DetectorHeight     *float64 `yaml:"detector_height"`

	// BinLimits maps a bin parameter name to its limits specification:
	// an ascending edge list or "auto-N".
	BinLimits map[string]string `yaml:"bin_limits"`
}

// FileConfig is the YAML file layout.
type FileConfig struct {
	Global TestConfig            `yaml:"global"`
	Tests  map[string]TestConfig `yaml:"tests"`
}

// Overrides carries command line values.  Only fields the user actually
// set are non-nil.
type Overrides struct {
	TestConfig
}

// Resolved is a fully determined configuration for one test: every field
// concrete, every bin parameter mapped to a parsed Spec.
type Resolved struct {
	SlopeFailSigma     float64
	InterceptFailSigma float64
	FailSigmaScaling   svres.Scaling
	PFail              float64
	MinFraction        float64
	Bootstrap          bool
	NBootstrap         int
	BootstrapSeed      uint64
	MaxGIn             float64
	DetectorHeight     float64
	BinLimits          map[svbin.Parameter]svbin.Spec
}

// Load reads a YAML configuration file.  An empty path yields an empty
// configuration, not an error.
func Load(path string) (*FileConfig, error) {
	var fc FileConfig
	if path == "" {
		return &fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return &fc, nil
}

// Resolve produces the concrete configuration for one named test.
func (fc *FileConfig) Resolve(test string, ov *Overrides) (*Resolved, error) {
	tc := fc.Tests[test]
	var ovc *TestConfig
	if ov != nil {
		ovc = &ov.TestConfig
	}

	r := &Resolved{
		SlopeFailSigma:     pickFloat(DefaultSlopeFailSigma, fc.Global.SlopeFailSigma, tc.SlopeFailSigma, floatOf(ovc, func(c *TestConfig) *float64 { return c.SlopeFailSigma })),
		InterceptFailSigma: pickFloat(DefaultInterceptFailSigma, fc.Global.InterceptFailSigma, tc.InterceptFailSigma, floatOf(ovc, func(c *TestConfig) *float64 { return c.InterceptFailSigma })),
		PFail:              pickFloat(DefaultPFail, fc.Global.PFail, tc.PFail, floatOf(ovc, func(c *TestConfig) *float64 { return c.PFail })),
		MinFraction:        pickFloat(DefaultMinFraction, fc.Global.MinFraction, tc.MinFraction, floatOf(ovc, func(c *TestConfig) *float64 { return c.MinFraction })),
		MaxGIn:             pickFloat(DefaultMaxGIn, fc.Global.MaxGIn, tc.MaxGIn, floatOf(ovc, func(c *TestConfig) *float64 { return c.MaxGIn })),
		DetectorHeight:     pickFloat(DefaultDetectorHeight, fc.Global.DetectorHeight, tc.DetectorHeight, floatOf(ovc, func(c *TestConfig) *float64 { return c.DetectorHeight })),
		NBootstrap:         DefaultNBootstrap,
		BootstrapSeed:      DefaultBootstrapSeed,
		FailSigmaScaling:   DefaultScaling,
		BinLimits:          map[svbin.Parameter]svbin.Spec{},
	}

	for _, p := range []*int{fc.Global.NBootstrap, tc.NBootstrap} {
		if p != nil {
			r.NBootstrap = *p
		}
	}
	if ovc != nil && ovc.NBootstrap != nil {
		r.NBootstrap = *ovc.NBootstrap
	}
	for _, p := range []*uint64{fc.Global.BootstrapSeed, tc.BootstrapSeed} {
		if p != nil {
			r.BootstrapSeed = *p
		}
	}
	if ovc != nil && ovc.BootstrapSeed != nil {
		r.BootstrapSeed = *ovc.BootstrapSeed
	}
	for _, p := range []*bool{fc.Global.Bootstrap, tc.Bootstrap} {
		if p != nil {
			r.Bootstrap = *p
		}
	}
	if ovc != nil && ovc.Bootstrap != nil {
		r.Bootstrap = *ovc.Bootstrap
	}

	scaling := ""
	for _, p := range []*string{fc.Global.FailSigmaScaling, tc.FailSigmaScaling} {
		if p != nil {
			scaling = *p
		}
	}
	if ovc != nil && ovc.FailSigmaScaling != nil {
		scaling = *ovc.FailSigmaScaling
	}
	if scaling != "" {
		s, err := svres.ParseScaling(scaling)
		if err != nil {
			return nil, err
		}
		r.FailSigmaScaling = s
	}

	for _, p := range svbin.All {
		spec, err := resolveBinSpec(p, fc.Global.BinLimits, tc.BinLimits, binLimitsOf(ovc))
		if err != nil {
			return nil, err
		}
		r.BinLimits[p] = spec
	}
	return r, nil
}

func resolveBinSpec(p svbin.Parameter, layers ...map[string]string) (svbin.Spec, error) {
	s := DefaultAutoBinLimits
	if p == svbin.Tot {
		// The trivial parameter is always one unbounded bin.
		s = fmt.Sprintf("%g %g", svbin.LimitMin, svbin.LimitMax)
	}
	for _, m := range layers {
		if v, ok := m[string(p)]; ok && v != "" {
			s = v
		}
	}
	spec, err := svbin.ParseSpec(s)
	if err != nil {
		return svbin.Spec{}, fmt.Errorf("bin limits for %s: %v", p, err)
	}
	return spec, nil
}

func pickFloat(def float64, layers ...*float64) float64 {
	v := def
	for _, p := range layers {
		if p != nil {
			v = *p
		}
	}
	return v
}

func floatOf(c *TestConfig, get func(*TestConfig) *float64) *float64 {
	if c == nil {
		return nil
	}
	return get(c)
}

func binLimitsOf(c *TestConfig) map[string]string {
	if c == nil {
		return nil
	}
	return c.BinLimits
}
