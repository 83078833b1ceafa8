// Public domain.

// Package svprod writes validation test results as XML data products.
//
// The product mirrors the SHE validation test results layout: a header
// identifying the producing software, then a list of validation tests,
// each carrying requirement verdicts with a measured value, a comment, and
// free-form supplementary information.
package svprod

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"shevalid/svres"
)

// SoftwareName identifies the producer in product headers.
const SoftwareName = "SHE_Validation"

// Product is a complete validation test results file.
type Product struct {
	XMLName xml.Name `xml:"SheValidationTestResults"`
	Header  Header   `xml:"Header"`
	Data    Data     `xml:"Data"`
}

// Header identifies a product instance.
type Header struct {
	ProductID       string `xml:"ProductId"`
	SoftwareName    string `xml:"SoftwareName"`
	SoftwareRelease string `xml:"SoftwareRelease"`
	CreationDate    string `xml:"CreationDate"`
}

// Data holds the test list.
type Data struct {
	NumberOfTests int              `xml:"NumberOfTests"`
	Tests         []ValidationTest `xml:"ValidationTestList"`
}

// A ValidationTest is the verdict of one test case.
type ValidationTest struct {
	TestID          string        `xml:"TestId"`
	TestDescription string        `xml:"TestDescription"`
	GlobalResult    string        `xml:"GlobalResult"`
	Requirements    []Requirement `xml:"ValidatedRequirements>Requirement"`
	AnalysisFiles   []string      `xml:"AnalysisProduct>AnalysisFiles>DataContainer>FileName,omitempty"`
}

// A Requirement is one requirement verdict inside a test.
type Requirement struct {
	ID               string        `xml:"Id"`
	ValidationResult string        `xml:"ValidationResult"`
	MeasuredValue    MeasuredValue `xml:"MeasuredValue"`
	Comment          string        `xml:"Comment"`
	Supp             []SuppInfo    `xml:"SupplementaryInformation>Parameter"`
}

// MeasuredValue is the single scalar summarizing a requirement.
type MeasuredValue struct {
	Parameter string  `xml:"Parameter"`
	DataType  string  `xml:"DataType"`
	Value     float64 `xml:"Value>FloatValue"`
}

// SuppInfo is one supplementary information entry.
type SuppInfo struct {
	Key         string `xml:"Key"`
	Description string `xml:"Description"`
	Value       string `xml:"StringValue"`
}

// New creates an empty product with a fresh identifier and the current
// creation time.
func New(release string) *Product {
	return &Product{
		Header: Header{
			ProductID:       uuid.NewString(),
			SoftwareName:    SoftwareName,
			SoftwareRelease: release,
			CreationDate:    time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// AddTestCase appends a finalized test case result as a validation test
// with a single requirement.
func (p *Product) AddTestCase(tc *svres.TestCaseResult, description, requirementID, parameter string) {
	req := Requirement{
		ID:               requirementID,
		ValidationResult: tc.Result,
		MeasuredValue: MeasuredValue{
			Parameter: parameter,
			DataType:  "float",
			Value:     tc.MeasuredValue,
		},
		Comment: tc.Comment,
	}
	for _, s := range tc.Supp {
		req.Supp = append(req.Supp, SuppInfo{Key: s.Key, Description: s.Description, Value: s.Message})
	}
	p.Data.Tests = append(p.Data.Tests, ValidationTest{
		TestID:          tc.TestCaseID,
		TestDescription: description,
		GlobalResult:    tc.Result,
		Requirements:    []Requirement{req},
		AnalysisFiles:   tc.Figures,
	})
	p.Data.NumberOfTests = len(p.Data.Tests)
}

// Write marshals the product to path with an XML declaration.
func (p *Product) Write(path string) error {
	data, err := xml.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	return os.WriteFile(path, out, 0666)
}

// Read unmarshals a product written by Write.
func Read(path string) (*Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Product
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return &p, nil
}

// WriteDirectory writes a plain-text listing of a run's output files,
// headed by a banner naming the analysis.
func WriteDirectory(path, banner string, files []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "### %s ###\n\n", banner); err != nil {
		return err
	}
	for _, name := range files {
		if _, err := fmt.Fprintln(f, filepath.Base(name)); err != nil {
			return err
		}
	}
	return nil
}
