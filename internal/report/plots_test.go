package report_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/metrics"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/report"
)

func assertPNG(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(raw), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
}

func TestSaveSingularValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "singular_values.png")
	require.NoError(t, report.SaveSingularValues([]float64{1, 5, 3, 2}, path))
	assertPNG(t, path)
}

func TestSaveROC(t *testing.T) {
	train := metrics.Curve{X: []float64{0, 0.2, 1}, Y: []float64{0, 0.8, 1}}
	valid := metrics.Curve{X: []float64{0, 0.4, 1}, Y: []float64{0, 0.6, 1}}

	path := filepath.Join(t.TempDir(), "roc.png")
	require.NoError(t, report.SaveROC(train, valid, path))
	assertPNG(t, path)
}

func TestSaveReliability(t *testing.T) {
	train := metrics.Curve{X: []float64{0.1, 0.5, 0.9}, Y: []float64{0.15, 0.5, 0.85}}
	valid := metrics.Curve{X: []float64{0.1, 0.5, 0.9}, Y: []float64{0.2, 0.45, 0.8}}

	path := filepath.Join(t.TempDir(), "reliability.png")
	require.NoError(t, report.SaveReliability(train, valid, path))
	assertPNG(t, path)
}

func TestSaveToBadPath(t *testing.T) {
	err := report.SaveSingularValues([]float64{1}, filepath.Join(t.TempDir(), "no", "such", "dir.png"))
	assert.Error(t, err)
}
