// Public domain.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shevalid/internal/svprog"
	"shevalid/svconf"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var env svprog.RunEnv

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "shevalid",
		Short:   "OU-SHE shear validation test suite",
		Version: svprog.Version,
		Long: `Shevalid validates weak-lensing shear measurement output: trends
against readout register distance (CTI), shear estimation bias on
simulations, PSF model residuals at star positions, and catalog
completeness.  Each subcommand writes an XML validation test results
product and supporting figures into the working directory.`,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&env.Workdir, "workdir", ".", "directory for output products")
	pf.StringVar(&env.ConfigPath, "config", "", "YAML pipeline configuration file")
	pf.BoolVarP(&env.Verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(ctiGalCmd(), ctiPsfCmd(), shearBiasCmd(), psfResCmd(), galInfoCmd())
	return root
}

// addOverrideFlags registers the configuration override flags on cmd and
// returns a function that collects only those the user actually set.
func addOverrideFlags(cmd *cobra.Command) func() *svconf.Overrides {
	f := cmd.Flags()
	slopeSigma := f.Float64("slope-fail-sigma", svconf.DefaultSlopeFailSigma, "max slope deviation in standard errors")
	intSigma := f.Float64("intercept-fail-sigma", svconf.DefaultInterceptFailSigma, "max intercept deviation in standard errors")
	scaling := f.String("fail-sigma-scaling", string(svconf.DefaultScaling), "fail sigma scaling: none, bins, test_cases, or test_case_bins")
	pFail := f.Float64("p-fail", svconf.DefaultPFail, "min KS p-value")
	minFraction := f.Float64("min-fraction", svconf.DefaultMinFraction, "min passing fraction")
	bootstrap := f.Bool("bootstrap", false, "estimate errors by bootstrap resampling")
	nBootstrap := f.Int("n-bootstrap", svconf.DefaultNBootstrap, "bootstrap resample count")
	seed := f.Uint64("bootstrap-seed", svconf.DefaultBootstrapSeed, "bootstrap RNG seed")
	maxGIn := f.Float64("max-g-in", svconf.DefaultMaxGIn, "max true shear magnitude")
	detHeight := f.Float64("detector-height", svconf.DefaultDetectorHeight, "detector height in pixels")
	binLimits := f.StringToString("bin-limits", nil, "bin limits per parameter, e.g. snr='0 10 30 1e99' or snr=auto-4")

	return func() *svconf.Overrides {
		ov := &svconf.Overrides{}
		if cmd.Flags().Changed("slope-fail-sigma") {
			ov.SlopeFailSigma = slopeSigma
		}
		if cmd.Flags().Changed("intercept-fail-sigma") {
			ov.InterceptFailSigma = intSigma
		}
		if cmd.Flags().Changed("fail-sigma-scaling") {
			ov.FailSigmaScaling = scaling
		}
		if cmd.Flags().Changed("p-fail") {
			ov.PFail = pFail
		}
		if cmd.Flags().Changed("min-fraction") {
			ov.MinFraction = minFraction
		}
		if cmd.Flags().Changed("bootstrap") {
			ov.Bootstrap = bootstrap
		}
		if cmd.Flags().Changed("n-bootstrap") {
			ov.NBootstrap = nBootstrap
		}
		if cmd.Flags().Changed("bootstrap-seed") {
			ov.BootstrapSeed = seed
		}
		if cmd.Flags().Changed("max-g-in") {
			ov.MaxGIn = maxGIn
		}
		if cmd.Flags().Changed("detector-height") {
			ov.DetectorHeight = detHeight
		}
		if cmd.Flags().Changed("bin-limits") {
			ov.BinLimits = *binLimits
		}
		return ov
	}
}

func ctiGalCmd() *cobra.Command {
	var catalogs map[string]string
	cmd := &cobra.Command{
		Use:   "cti-gal",
		Short: "validate galaxy shear against CTI trends",
	}
	cmd.Flags().StringToStringVar(&catalogs, "catalog", nil, "method=path shear catalog, repeatable")
	cmd.MarkFlagRequired("catalog")
	overrides := addOverrideFlags(cmd)
	cmd.Run = func(*cobra.Command, []string) {
		env.Overrides = overrides()
		svprog.RunCtiGal(env, catalogs)
	}
	return cmd
}

func ctiPsfCmd() *cobra.Command {
	var catalog string
	cmd := &cobra.Command{
		Use:   "cti-psf",
		Short: "validate PSF ellipticity against CTI trends",
	}
	cmd.Flags().StringVar(&catalog, "catalog", "", "PSF ellipticity catalog")
	cmd.MarkFlagRequired("catalog")
	overrides := addOverrideFlags(cmd)
	cmd.Run = func(*cobra.Command, []string) {
		env.Overrides = overrides()
		svprog.RunCtiPsf(env, catalog)
	}
	return cmd
}

func shearBiasCmd() *cobra.Command {
	var catalogs map[string]string
	cmd := &cobra.Command{
		Use:   "shear-bias",
		Short: "validate shear bias on matched simulation catalogs",
	}
	cmd.Flags().StringToStringVar(&catalogs, "catalog", nil, "method=path matched catalog, repeatable")
	cmd.MarkFlagRequired("catalog")
	overrides := addOverrideFlags(cmd)
	cmd.Run = func(*cobra.Command, []string) {
		env.Overrides = overrides()
		svprog.RunShearBias(env, catalogs)
	}
	return cmd
}

func psfResCmd() *cobra.Command {
	var starCat, refCat string
	cmd := &cobra.Command{
		Use:   "psf-res",
		Short: "validate PSF model residuals at star positions",
	}
	cmd.Flags().StringVar(&starCat, "stars", "", "star catalog with PSF fit p-values")
	cmd.Flags().StringVar(&refCat, "reference", "", "optional reference star catalog")
	cmd.MarkFlagRequired("stars")
	overrides := addOverrideFlags(cmd)
	cmd.Run = func(*cobra.Command, []string) {
		env.Overrides = overrides()
		svprog.RunPsfRes(env, starCat, refCat)
	}
	return cmd
}

func galInfoCmd() *cobra.Command {
	var detections, chains string
	var catalogs map[string]string
	cmd := &cobra.Command{
		Use:   "gal-info",
		Short: "validate catalog completeness against VIS detections",
	}
	cmd.Flags().StringVar(&detections, "detections", "", "VIS detections catalog")
	cmd.Flags().StringToStringVar(&catalogs, "catalog", nil, "method=path shear catalog, repeatable")
	cmd.Flags().StringVar(&chains, "chains", "", "optional LensMC chains catalog")
	cmd.MarkFlagRequired("detections")
	cmd.MarkFlagRequired("catalog")
	overrides := addOverrideFlags(cmd)
	cmd.Run = func(*cobra.Command, []string) {
		env.Overrides = overrides()
		svprog.RunGalInfo(env, detections, catalogs, chains)
	}
	return cmd
}
