package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

const LabelColumn = "Label"

var (
	ErrMissingLabel   = errors.New("missing Label column")
	ErrNonBinaryLabel = errors.New("label must be 0 or 1")
)

// Dataset is a numeric feature matrix with a binary label per row.
type Dataset struct {
	X        *mat.Dense
	Y        []int
	Features []string
}

func (d *Dataset) NumSamples() int {
	return len(d.Y)
}

func (d *Dataset) NumFeatures() int {
	return len(d.Features)
}

// Rows copies the selected samples into a new dataset.
func (d *Dataset) Rows(indices []int) (*mat.Dense, []int) {
	_, c := d.X.Dims()
	X := mat.NewDense(len(indices), c, nil)
	y := make([]int, len(indices))
	for i, idx := range indices {
		X.SetRow(i, d.X.RawRowView(idx))
		y[i] = d.Y[idx]
	}
	return X, y
}

type CSVReader struct {
	filename string
	hasIndex bool
}

// NewCSVReader reads filename. When hasIndex is set the first column holds
// row identifiers and is not treated as a feature.
func NewCSVReader(filename string, hasIndex bool) *CSVReader {
	return &CSVReader{filename: filename, hasIndex: hasIndex}
}

// IndexColumnFor reports whether a CSV for the given omics type carries a
// leading index column. Metabolomics exports do not.
func IndexColumnFor(omicsType string) bool {
	return omicsType != "metabolomics"
}

func (cr *CSVReader) LoadData() (*Dataset, error) {
	file, err := os.Open(cr.filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return cr.parse(file)
}

func (cr *CSVReader) parse(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cr.filename, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("insufficient data in file %s", cr.filename)
	}

	header := records[0]
	start := 0
	if cr.hasIndex {
		start = 1
	}

	labelCol := -1
	for j := start; j < len(header); j++ {
		if strings.TrimSpace(header[j]) == LabelColumn {
			labelCol = j
			break
		}
	}
	if labelCol < 0 {
		return nil, fmt.Errorf("%s: %w", cr.filename, ErrMissingLabel)
	}

	featureCols := make([]int, 0, len(header))
	features := make([]string, 0, len(header))
	for j := start; j < len(header); j++ {
		if j == labelCol {
			continue
		}
		featureCols = append(featureCols, j)
		features = append(features, header[j])
	}

	rows := records[1:]
	values := make([]float64, 0, len(rows)*len(featureCols))
	y := make([]int, len(rows))

	for i, record := range rows {
		line := i + 2
		for _, j := range featureCols {
			val, err := decimal.NewFromString(strings.TrimSpace(record[j]))
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: invalid numeric value %q", line, header[j], record[j])
			}
			values = append(values, val.InexactFloat64())
		}

		label, err := parseLabel(record[labelCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		y[i] = label
	}

	if len(featureCols) == 0 {
		return nil, fmt.Errorf("%s: no feature columns", cr.filename)
	}

	return &Dataset{
		X:        mat.NewDense(len(rows), len(featureCols), values),
		Y:        y,
		Features: features,
	}, nil
}

func parseLabel(raw string) (int, error) {
	val, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: got %q", ErrNonBinaryLabel, raw)
	}
	switch {
	case val.Equal(decimal.Zero):
		return 0, nil
	case val.Equal(decimal.NewFromInt(1)):
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: got %q", ErrNonBinaryLabel, raw)
	}
}
