// Public domain.

// Package svcat models shear catalog objects and reads them from FITS
// tables.
//
// An Object carries a shear measurement, its error, the quality flag, and
// the covariates the validation tests bin along.  Optional columns absent
// from a catalog read as NaN, which the binner and estimator already treat
// as excluded.
package svcat

import (
	"math"

	"github.com/soniakeys/unit"

	"shevalid/svbin"
)

// Shear measurement methods carried in Euclid shear catalogs.
const (
	MethodKSB       = "KSB"
	MethodREGAUSS   = "REGAUSS"
	MethodMomentsML = "MomentsML"
	MethodLensMC    = "LensMC"
)

// Methods lists the shear measurement methods in canonical order.
var Methods = []string{MethodKSB, MethodREGAUSS, MethodMomentsML, MethodLensMC}

// An Object is one catalog row.
type Object struct {
	ID     int64
	RA     unit.Angle
	Dec    unit.Angle
	X, Y   float64 // detector pixel coordinates
	G1, G2 float64
	G1Err  float64
	G2Err  float64
	Weight float64
	Flag   int32 // nonzero marks a failed fit

	SNR    float64
	Bg     float64
	Colour float64
	Size   float64
	Epoch  float64

	// ReadoutDist is derived, not read; see AddReadoutDistance.
	ReadoutDist float64

	// Matched-catalog extras.
	TrueG1, TrueG2 float64

	// Star-catalog extra: PSF fit p-value.
	PValue float64
}

// Valid reports whether the object carries a usable shear measurement:
// zero fit flags, positive weight, and finite shear components.
func (o *Object) Valid() bool {
	return o.Flag == 0 && o.Weight > 0 &&
		!math.IsNaN(o.G1) && !math.IsInf(o.G1, 0) &&
		!math.IsNaN(o.G2) && !math.IsInf(o.G2, 0)
}

// Covariate returns the object's value along a bin parameter.  Tot returns
// 0, inside the unbounded bin by construction.
func (o *Object) Covariate(p svbin.Parameter) float64 {
	switch p {
	case svbin.SNR:
		return o.SNR
	case svbin.Bg:
		return o.Bg
	case svbin.Colour:
		return o.Colour
	case svbin.Size:
		return o.Size
	case svbin.Epoch:
		return o.Epoch
	}
	return 0
}

// AddReadoutDistance derives each object's distance to the nearer readout
// register from its detector y coordinate.  Registers sit at both edges,
// so the distance folds at half the detector height.
func AddReadoutDistance(objs []Object, detectorHeight float64) {
	half := detectorHeight / 2
	for i := range objs {
		y := objs[i].Y
		if y < half {
			objs[i].ReadoutDist = y
		} else {
			objs[i].ReadoutDist = detectorHeight - y
		}
	}
}

// CovariateValues collects the covariate of every valid object, for
// deriving quantile bin edges.
func CovariateValues(objs []Object, p svbin.Parameter) []float64 {
	vs := make([]float64, 0, len(objs))
	for i := range objs {
		if objs[i].Valid() {
			vs = append(vs, objs[i].Covariate(p))
		}
	}
	return vs
}
