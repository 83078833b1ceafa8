// Public domain.

package svcat

import (
	"fmt"
	"math"
	"os"

	"github.com/astrogo/fitsio"
	"github.com/soniakeys/unit"
)

// Column names shared by the OU-SHE catalog products.
const (
	ColObjectID = "OBJECT_ID"
	ColRA       = "RIGHT_ASCENSION"
	ColDec      = "DECLINATION"
	ColX        = "OBJECT_X"
	ColY        = "OBJECT_Y"
	ColG1       = "G1"
	ColG2       = "G2"
	ColG1Err    = "G1_ERR"
	ColG2Err    = "G2_ERR"
	ColWeight   = "WEIGHT"
	ColFlags    = "FIT_FLAGS"
	ColSNR      = "SNR"
	ColBg       = "BG"
	ColColour   = "COLOUR"
	ColSize     = "SIZE"
	ColEpoch    = "EPOCH"
	ColTrueG1   = "TRUE_G1"
	ColTrueG2   = "TRUE_G2"
	ColPValue   = "P_VALUE"
	ColVisDet   = "VIS_DET"
)

type shearRow struct {
	ID     int64   `fits:"OBJECT_ID"`
	RA     float64 `fits:"RIGHT_ASCENSION"`
	Dec    float64 `fits:"DECLINATION"`
	X      float64 `fits:"OBJECT_X"`
	Y      float64 `fits:"OBJECT_Y"`
	G1     float64 `fits:"G1"`
	G2     float64 `fits:"G2"`
	G1Err  float64 `fits:"G1_ERR"`
	G2Err  float64 `fits:"G2_ERR"`
	Weight float64 `fits:"WEIGHT"`
	Flags  int32   `fits:"FIT_FLAGS"`
	SNR    float64 `fits:"SNR"`
	Bg     float64 `fits:"BG"`
	Colour float64 `fits:"COLOUR"`
	Size   float64 `fits:"SIZE"`
	Epoch  float64 `fits:"EPOCH"`
}

// matchedRow repeats shearRow's fields flat; the FITS codec maps columns
// to immediate struct fields only.
type matchedRow struct {
	ID     int64   `fits:"OBJECT_ID"`
	RA     float64 `fits:"RIGHT_ASCENSION"`
	Dec    float64 `fits:"DECLINATION"`
	X      float64 `fits:"OBJECT_X"`
	Y      float64 `fits:"OBJECT_Y"`
	G1     float64 `fits:"G1"`
	G2     float64 `fits:"G2"`
	G1Err  float64 `fits:"G1_ERR"`
	G2Err  float64 `fits:"G2_ERR"`
	Weight float64 `fits:"WEIGHT"`
	Flags  int32   `fits:"FIT_FLAGS"`
	SNR    float64 `fits:"SNR"`
	Bg     float64 `fits:"BG"`
	Colour float64 `fits:"COLOUR"`
	Size   float64 `fits:"SIZE"`
	Epoch  float64 `fits:"EPOCH"`
	TrueG1 float64 `fits:"TRUE_G1"`
	TrueG2 float64 `fits:"TRUE_G2"`
}

type starRow struct {
	ID     int64   `fits:"OBJECT_ID"`
	RA     float64 `fits:"RIGHT_ASCENSION"`
	Dec    float64 `fits:"DECLINATION"`
	X      float64 `fits:"OBJECT_X"`
	Y      float64 `fits:"OBJECT_Y"`
	Flags  int32   `fits:"FIT_FLAGS"`
	SNR    float64 `fits:"SNR"`
	PValue float64 `fits:"P_VALUE"`
}

type detectionRow struct {
	ID     int64   `fits:"OBJECT_ID"`
	RA     float64 `fits:"RIGHT_ASCENSION"`
	Dec    float64 `fits:"DECLINATION"`
	VisDet int32   `fits:"VIS_DET"`
}

func openTable(path string) (*os.File, *fitsio.File, *fitsio.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	ff, err := fitsio.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, nil, fmt.Errorf("%s: %v", path, err)
	}
	for _, hdu := range ff.HDUs() {
		if tbl, ok := hdu.(*fitsio.Table); ok {
			return f, ff, tbl, nil
		}
	}
	ff.Close()
	f.Close()
	return nil, nil, nil, fmt.Errorf("%s: no table HDU", path)
}

// ReadShearCatalog reads the first table HDU of a shear measurement
// catalog.
func ReadShearCatalog(path string) ([]Object, error) {
	f, ff, tbl, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	defer ff.Close()

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	defer rows.Close()

	var objs []Object
	for rows.Next() {
		var r shearRow
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		objs = append(objs, r.object())
	}
	return objs, rows.Err()
}

func (r shearRow) object() Object {
	return Object{
		ID:     r.ID,
		RA:     unit.AngleFromDeg(r.RA),
		Dec:    unit.AngleFromDeg(r.Dec),
		X:      r.X,
		Y:      r.Y,
		G1:     r.G1,
		G2:     r.G2,
		G1Err:  r.G1Err,
		G2Err:  r.G2Err,
		Weight: r.Weight,
		Flag:   r.Flags,
		SNR:    r.SNR,
		Bg:     r.Bg,
		Colour: r.Colour,
		Size:   r.Size,
		Epoch:  r.Epoch,

		ReadoutDist: math.NaN(),
		TrueG1:      math.NaN(),
		TrueG2:      math.NaN(),
		PValue:      math.NaN(),
	}
}

// ReadMatchedCatalog reads a shear catalog matched against the true input
// shears of a simulation.
func ReadMatchedCatalog(path string) ([]Object, error) {
	f, ff, tbl, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	defer ff.Close()

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	defer rows.Close()

	var objs []Object
	for rows.Next() {
		var r matchedRow
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		o := shearRow{
			ID: r.ID, RA: r.RA, Dec: r.Dec, X: r.X, Y: r.Y,
			G1: r.G1, G2: r.G2, G1Err: r.G1Err, G2Err: r.G2Err,
			Weight: r.Weight, Flags: r.Flags,
			SNR: r.SNR, Bg: r.Bg, Colour: r.Colour, Size: r.Size, Epoch: r.Epoch,
		}.object()
		o.TrueG1 = r.TrueG1
		o.TrueG2 = r.TrueG2
		objs = append(objs, o)
	}
	return objs, rows.Err()
}

// ReadStarCatalog reads a PSF star catalog.  Star rows carry no shear
// measurement; the shear fields read as NaN and Weight as 1 so Valid
// reduces to the fit flag.
func ReadStarCatalog(path string) ([]Object, error) {
	f, ff, tbl, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	defer ff.Close()

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	defer rows.Close()

	var objs []Object
	for rows.Next() {
		var r starRow
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		objs = append(objs, Object{
			ID:     r.ID,
			RA:     unit.AngleFromDeg(r.RA),
			Dec:    unit.AngleFromDeg(r.Dec),
			X:      r.X,
			Y:      r.Y,
			Flag:   r.Flags,
			Weight: 1,
			SNR:    r.SNR,
			PValue: r.PValue,

			Bg:          math.NaN(),
			Colour:      math.NaN(),
			Size:        math.NaN(),
			Epoch:       math.NaN(),
			ReadoutDist: math.NaN(),
			TrueG1:      math.NaN(),
			TrueG2:      math.NaN(),
		})
	}
	return objs, rows.Err()
}

// A Detection is one row of the upstream detections catalog: an object the
// shear pipeline was expected to measure.
type Detection struct {
	ID     int64
	RA     unit.Angle
	Dec    unit.Angle
	VisDet bool
}

// ReadDetectionsCatalog reads the upstream detections catalog.
func ReadDetectionsCatalog(path string) ([]Detection, error) {
	f, ff, tbl, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	defer ff.Close()

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	defer rows.Close()

	var dets []Detection
	for rows.Next() {
		var r detectionRow
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		dets = append(dets, Detection{
			ID:     r.ID,
			RA:     unit.AngleFromDeg(r.RA),
			Dec:    unit.AngleFromDeg(r.Dec),
			VisDet: r.VisDet != 0,
		})
	}
	return dets, rows.Err()
}

// WriteShearCatalog writes objects as a binary table FITS file.  It exists
// for tests and for regenerating small fixtures; the pipeline only reads.
func WriteShearCatalog(path string, objs []Object) error {
	return writeTable(path, "SHEAR", shearColumns(), len(objs), func(tbl *fitsio.Table, i int) error {
		o := &objs[i]
		r := shearRow{
			ID: o.ID, RA: o.RA.Deg(), Dec: o.Dec.Deg(),
			X: o.X, Y: o.Y,
			G1: o.G1, G2: o.G2, G1Err: o.G1Err, G2Err: o.G2Err,
			Weight: o.Weight, Flags: o.Flag,
			SNR: o.SNR, Bg: o.Bg, Colour: o.Colour, Size: o.Size, Epoch: o.Epoch,
		}
		return tbl.Write(&r)
	})
}

// WriteMatchedCatalog is WriteShearCatalog plus the true-shear columns.
func WriteMatchedCatalog(path string, objs []Object) error {
	cols := append(shearColumns(),
		fitsio.Column{Name: ColTrueG1, Format: "D"},
		fitsio.Column{Name: ColTrueG2, Format: "D"},
	)
	return writeTable(path, "SHEAR_MATCHED", cols, len(objs), func(tbl *fitsio.Table, i int) error {
		o := &objs[i]
		r := matchedRow{
			ID: o.ID, RA: o.RA.Deg(), Dec: o.Dec.Deg(),
			X: o.X, Y: o.Y,
			G1: o.G1, G2: o.G2, G1Err: o.G1Err, G2Err: o.G2Err,
			Weight: o.Weight, Flags: o.Flag,
			SNR: o.SNR, Bg: o.Bg, Colour: o.Colour, Size: o.Size, Epoch: o.Epoch,
			TrueG1: o.TrueG1,
			TrueG2: o.TrueG2,
		}
		return tbl.Write(&r)
	})
}

// WriteStarCatalog writes a PSF star catalog fixture.
func WriteStarCatalog(path string, objs []Object) error {
	cols := []fitsio.Column{
		{Name: ColObjectID, Format: "K"},
		{Name: ColRA, Format: "D"},
		{Name: ColDec, Format: "D"},
		{Name: ColX, Format: "D"},
		{Name: ColY, Format: "D"},
		{Name: ColFlags, Format: "J"},
		{Name: ColSNR, Format: "D"},
		{Name: ColPValue, Format: "D"},
	}
	return writeTable(path, "STARS", cols, len(objs), func(tbl *fitsio.Table, i int) error {
		o := &objs[i]
		r := starRow{
			ID: o.ID, RA: o.RA.Deg(), Dec: o.Dec.Deg(),
			X: o.X, Y: o.Y, Flags: o.Flag,
			SNR: o.SNR, PValue: o.PValue,
		}
		return tbl.Write(&r)
	})
}

// WriteDetectionsCatalog writes a detections catalog fixture.
func WriteDetectionsCatalog(path string, dets []Detection) error {
	cols := []fitsio.Column{
		{Name: ColObjectID, Format: "K"},
		{Name: ColRA, Format: "D"},
		{Name: ColDec, Format: "D"},
		{Name: ColVisDet, Format: "J"},
	}
	return writeTable(path, "DETECTIONS", cols, len(dets), func(tbl *fitsio.Table, i int) error {
		d := &dets[i]
		var v int32
		if d.VisDet {
			v = 1
		}
		r := detectionRow{ID: d.ID, RA: d.RA.Deg(), Dec: d.Dec.Deg(), VisDet: v}
		return tbl.Write(&r)
	})
}

func shearColumns() []fitsio.Column {
	return []fitsio.Column{
		{Name: ColObjectID, Format: "K"},
		{Name: ColRA, Format: "D"},
		{Name: ColDec, Format: "D"},
		{Name: ColX, Format: "D"},
		{Name: ColY, Format: "D"},
		{Name: ColG1, Format: "D"},
		{Name: ColG2, Format: "D"},
		{Name: ColG1Err, Format: "D"},
		{Name: ColG2Err, Format: "D"},
		{Name: ColWeight, Format: "D"},
		{Name: ColFlags, Format: "J"},
		{Name: ColSNR, Format: "D"},
		{Name: ColBg, Format: "D"},
		{Name: ColColour, Format: "D"},
		{Name: ColSize, Format: "D"},
		{Name: ColEpoch, Format: "D"},
	}
}

func writeTable(path, name string, cols []fitsio.Column, n int, writeRow func(*fitsio.Table, int) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ff, err := fitsio.Create(f)
	if err != nil {
		return err
	}
	defer ff.Close()

	phdu, err := fitsio.NewPrimaryHDU(nil)
	if err != nil {
		return err
	}
	if err := ff.Write(phdu); err != nil {
		return err
	}

	tbl, err := fitsio.NewTable(name, cols, fitsio.BINARY_TBL)
	if err != nil {
		return err
	}
	defer tbl.Close()
	for i := 0; i < n; i++ {
		if err := writeRow(tbl, i); err != nil {
			return err
		}
	}
	return ff.Write(tbl)
}
