package svd_test

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/sparse"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/svd"
)

// randomSparse builds a random sparse matrix with the given density.
func randomSparse(t *testing.T, rows, cols int, density float64, seed int64) *sparse.CSR {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	b := sparse.NewBuilder(cols)
	for i := 0; i < rows; i++ {
		var indices []int
		var values []float64
		for j := 0; j < cols; j++ {
			if rng.Float64() < density {
				indices = append(indices, j)
				values = append(values, rng.NormFloat64())
			}
		}
		b.AppendRow(indices, values)
	}
	return b.Build()
}

func TestComputeMatchesDenseSVD(t *testing.T) {
	a := randomSparse(t, 60, 40, 0.3, 1)
	const k = 5

	basis, err := svd.Compute(a, svd.Options{K: k, Oversample: 20, PowerIters: 8, Seed: 2})
	require.NoError(t, err)
	require.Equal(t, k, basis.Rank())

	var dense mat.SVD
	require.True(t, dense.Factorize(a.ToDense(), mat.SVDThin))
	want := dense.Values(nil)

	// A random matrix has a flat spectrum, the hardest case for the
	// randomized method; the heavy oversampling above keeps the dominant
	// values within a couple of percent.
	for i := 0; i < k; i++ {
		assert.InEpsilon(t, want[i], basis.S[i], 0.02, "singular value %d", i)
	}

	// Decreasing order.
	for i := 1; i < k; i++ {
		assert.LessOrEqual(t, basis.S[i], basis.S[i-1])
	}

	// Rows of VT are orthonormal.
	for i := 0; i < k; i++ {
		ri := basis.VT.RawRowView(i)
		for j := i; j < k; j++ {
			rj := basis.VT.RawRowView(j)
			var dot float64
			for c := range ri {
				dot += ri[c] * rj[c]
			}
			if i == j {
				assert.InDelta(t, 1, dot, 1e-6)
			} else {
				assert.InDelta(t, 0, dot, 1e-6)
			}
		}
	}
}

func TestComputeExactOnLowRankMatrix(t *testing.T) {
	// Rank-2 matrix: every row is a combination of two base patterns, so
	// the truncated decomposition is exact.
	b := sparse.NewBuilder(6)
	for i := 0; i < 20; i++ {
		switch i % 2 {
		case 0:
			b.AppendRow([]int{0, 1, 2}, []float64{1, 2, 3})
		case 1:
			b.AppendRow([]int{3, 4, 5}, []float64{4, 5, 6})
		}
	}
	a := b.Build()

	basis, err := svd.Compute(a, svd.Options{K: 2, Seed: 3})
	require.NoError(t, err)

	var dense mat.SVD
	require.True(t, dense.Factorize(a.ToDense(), mat.SVDThin))
	want := dense.Values(nil)
	assert.InEpsilon(t, want[0], basis.S[0], 1e-9)
	assert.InEpsilon(t, want[1], basis.S[1], 1e-9)
}

func TestComputeValidation(t *testing.T) {
	a := randomSparse(t, 10, 5, 0.5, 1)

	_, err := svd.Compute(a, svd.Options{K: 0})
	assert.Error(t, err)

	_, err = svd.Compute(a, svd.Options{K: 7})
	assert.Error(t, err, "k larger than min dimension")
}

func TestProjectDimensions(t *testing.T) {
	a := randomSparse(t, 30, 20, 0.4, 5)
	basis, err := svd.Compute(a, svd.Options{K: 4, Seed: 6})
	require.NoError(t, err)

	u := basis.Project(a, math.Sqrt(30))
	rows, cols := u.Dims()
	assert.Equal(t, 30, rows)
	assert.Equal(t, 4, cols)

	// Projection of the fitted matrix scaled by √n has unit-variance
	// columns up to sketch accuracy: columns of U√n are n·uᵢ with
	// ‖uᵢ‖=1. Just sanity-check everything is finite.
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.False(t, math.IsNaN(u.At(i, j)))
			assert.False(t, math.IsInf(u.At(i, j), 0))
		}
	}
}

func TestSymmetrize(t *testing.T) {
	u := mat.NewDense(4, 2, []float64{
		1, 2, // q1 of pair 0
		3, 4, // q1 of pair 1
		5, 6, // q2 of pair 0
		7, 8, // q2 of pair 1
	})

	out, err := svd.Symmetrize(u)
	require.NoError(t, err)

	rows, cols := out.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 4, cols)

	// Pair 0: mean (3,4), half-difference (-2,-2).
	assert.Equal(t, 3.0, out.At(0, 0))
	assert.Equal(t, 4.0, out.At(0, 1))
	assert.Equal(t, -2.0, out.At(0, 2))
	assert.Equal(t, -2.0, out.At(0, 3))
}

func TestSymmetrizeOddRows(t *testing.T) {
	_, err := svd.Symmetrize(mat.NewDense(3, 2, nil))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	a := randomSparse(t, 25, 15, 0.4, 9)
	basis, err := svd.Compute(a, svd.Options{K: 3, Seed: 10})
	require.NoError(t, err)

	dir := t.TempDir()
	valuesPath := filepath.Join(dir, "singular_values.txt")
	vectorsPath := filepath.Join(dir, "singular_vectors.bin")
	require.NoError(t, basis.Save(valuesPath, vectorsPath))

	loaded, err := svd.Load(valuesPath, vectorsPath, 3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, basis.S, loaded.S, 1e-15)
	assert.True(t, mat.EqualApprox(basis.VT, loaded.VT, 1e-15))
}

func TestLoadRankMismatch(t *testing.T) {
	a := randomSparse(t, 25, 15, 0.4, 9)
	basis, err := svd.Compute(a, svd.Options{K: 3, Seed: 10})
	require.NoError(t, err)

	dir := t.TempDir()
	valuesPath := filepath.Join(dir, "singular_values.txt")
	vectorsPath := filepath.Join(dir, "singular_vectors.bin")
	require.NoError(t, basis.Save(valuesPath, vectorsPath))

	_, err = svd.Load(valuesPath, vectorsPath, 5)
	assert.Error(t, err, "rank mismatch must be a load failure")
}
