package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDataWithIndexColumn(t *testing.T) {
	path := writeCSV(t, ",geneA,Label,geneB\ns1,1.5,0,2\ns2,-0.25,1,3e-1\ns3,4,1.0,0\n")

	ds, err := NewCSVReader(path, true).LoadData()
	require.NoError(t, err)

	assert.Equal(t, []string{"geneA", "geneB"}, ds.Features)
	assert.Equal(t, []int{0, 1, 1}, ds.Y)
	assert.Equal(t, 3, ds.NumSamples())
	assert.Equal(t, 2, ds.NumFeatures())
	assert.InDelta(t, -0.25, ds.X.At(1, 0), 1e-12)
	assert.InDelta(t, 0.3, ds.X.At(1, 1), 1e-12)
}

func TestLoadDataWithoutIndexColumn(t *testing.T) {
	path := writeCSV(t, "m1,m2,Label\n1,2,0\n3,4,1\n")

	ds, err := NewCSVReader(path, IndexColumnFor("metabolomics")).LoadData()
	require.NoError(t, err)

	assert.Equal(t, []string{"m1", "m2"}, ds.Features)
	assert.Equal(t, []int{0, 1}, ds.Y)
	assert.Equal(t, 1.0, ds.X.At(0, 0))
}

func TestLoadDataErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		msg     string
	}{
		{name: "missing label", body: "id,a,b\nx,1,2\n", wantErr: ErrMissingLabel},
		{name: "non binary label", body: "id,a,Label\nx,1,2\n", wantErr: ErrNonBinaryLabel},
		{name: "text feature", body: "id,a,Label\nx,abc,1\n", msg: "invalid numeric value"},
		{name: "header only", body: "id,a,Label\n", msg: "insufficient data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVReader(writeCSV(t, tt.body), true).LoadData()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestLoadDataMissingFile(t *testing.T) {
	_, err := NewCSVReader(filepath.Join(t.TempDir(), "missing.csv"), true).LoadData()
	assert.Error(t, err)
}

func TestRows(t *testing.T) {
	path := writeCSV(t, "id,a,b,Label\nr0,0,1,0\nr1,2,3,1\nr2,4,5,0\n")
	ds, err := NewCSVReader(path, true).LoadData()
	require.NoError(t, err)

	X, y := ds.Rows([]int{2, 0})
	assert.Equal(t, []int{0, 0}, y)
	assert.Equal(t, []float64{4, 5}, X.RawRowView(0))
	assert.Equal(t, []float64{0, 1}, X.RawRowView(1))
}

func TestValidateDataset(t *testing.T) {
	v := NewDataValidator()

	ok, err := NewCSVReader(writeCSV(t, "id,a,Label\nx,1,0\ny,2,1\n"), true).LoadData()
	require.NoError(t, err)
	assert.NoError(t, v.ValidateDataset(ok))

	oneClass, err := NewCSVReader(writeCSV(t, "id,a,Label\nx,1,1\ny,2,1\n"), true).LoadData()
	require.NoError(t, err)
	assert.ErrorContains(t, v.ValidateDataset(oneClass), "both classes")

	assert.Error(t, v.ValidateDataset(nil))
	assert.Equal(t, map[int]int{0: 2, 1: 1}, ClassCounts([]int{0, 1, 0}))
}
