/*
Shevalid runs validation tests over weak-lensing shear measurement output
and reports structured pass/fail verdicts.

Contents

	Program overview
	Command line usage
	Test descriptions
	Configuration
	Output products

# Program overview

Input is one or more FITS catalogs produced by the shear measurement
pipeline: shear catalogs per estimation method (KSB, REGAUSS, MomentsML,
LensMC), catalogs matched against true simulation shears, star catalogs
with PSF fit p-values, and the upstream VIS detections catalog.  Output is
an XML validation test results product per test, plus diagnostic figures
and a plain-text directory listing the files written.

Each test partitions its objects into bins along covariates such as
signal-to-noise ratio, sky background, colour, size, and observation
epoch, measures a statistic per bin, standardizes it against its error,
and fails the test if any sufficiently populated bin deviates past a
configured number of standard errors.  Thresholds may be tightened
automatically to account for the number of bins tested.

# Command line usage

	shevalid cti-gal    --catalog KSB=ksb.fits --catalog LensMC=lensmc.fits
	shevalid cti-psf    --catalog psf.fits
	shevalid shear-bias --catalog LensMC=matched.fits --bootstrap
	shevalid psf-res    --stars stars.fits [--reference ref_stars.fits]
	shevalid gal-info   --detections det.fits --catalog KSB=ksb.fits

Global flags --workdir, --config, and --verbose apply to every
subcommand.  Per-test knobs (fail sigmas, bin limits, bootstrap
parameters) can be set on the command line or in the configuration file;
command line values win.

# Test descriptions

cti-gal regresses galaxy ellipticity g1 on distance to the detector
readout register.  Charge transfer inefficiency drags a spurious trend
into that regression, so within every bin the slope must be consistent
with zero.

cti-psf applies the same regression to PSF ellipticity, but the PSF model
may legitimately carry a trend, so each bin's slope is instead required
to agree with the previous bin's.

shear-bias regresses measured shear on true input shear in simulations,
per component.  The multiplicative bias m (slope minus one) and additive
bias c (intercept) must both be consistent with zero.  Errors can be
estimated by seeded bootstrap resampling for robustness against
non-Gaussian scatter.

psf-res tests PSF model fit p-values at star positions against the
uniform distribution they should follow if the model is correct, by
Kolmogorov-Smirnov test, optionally against a reference star catalog
instead.

gal-info checks that every VIS-detected object appears in each shear
catalog and that the entries carry usable measurements.

# Configuration

The --config file is YAML with a global section and per-test sections:

	global:
	  slope_fail_sigma: 5.0
	  fail_sigma_scaling: test_case_bins
	tests:
	  cti_gal:
	    bin_limits:
	      snr: "0 10 30 1e99"
	      bg: auto-4

Bin limits are an ascending edge list or "auto-N" for N quantile bins
derived from the data.

# Output products

The results product is an XML file holding one validation test entry per
(method, bin parameter) combination, each with a verdict of PASSED or
FAILED, a scalar measured value, and per-bin details in supplementary
information.  Bins with too few points are reported but never decide a
verdict; a test with no usable data anywhere passes with a warning that
it was not run.

Public domain.
*/
package main
