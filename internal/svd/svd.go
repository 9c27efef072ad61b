// Package svd computes a truncated singular value decomposition of the
// sparse TF-IDF feature matrix and projects features onto the resulting
// basis.
//
// The decomposition uses randomized subspace iteration (Halko, Martinsson &
// Tropp, 2011): sketch the range of A with a Gaussian test matrix, refine it
// with a few power iterations, then take the exact SVD of the small projected
// matrix. Only sparse-dense products and dense decompositions of skinny
// matrices are ever formed, so the full feature matrix never needs to be
// densified.
package svd

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/sparse"
)

// Options configures the truncated decomposition.
type Options struct {
	// K is the number of singular values and right singular vectors kept.
	K int
	// Oversample adds extra sketch columns beyond K for accuracy
	// (default 10).
	Oversample int
	// PowerIters is the number of subspace power iterations (default 2).
	PowerIters int
	// Seed seeds the Gaussian test matrix.
	Seed int64
}

// Basis holds the top-K singular values and right singular vectors of the
// feature matrix.
type Basis struct {
	// S contains the singular values in decreasing order.
	S []float64
	// VT is the K×d matrix of right singular vectors, one per row.
	VT *mat.Dense
}

// Rank returns the number of retained components.
func (b *Basis) Rank() int {
	return len(b.S)
}

// Compute runs the randomized truncated SVD of a.
func Compute(a *sparse.CSR, opts Options) (*Basis, error) {
	rows, cols := a.Dims()
	if opts.K <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", opts.K)
	}
	if opts.K > rows || opts.K > cols {
		return nil, fmt.Errorf("k=%d exceeds matrix dimensions %dx%d", opts.K, rows, cols)
	}
	if opts.Oversample <= 0 {
		opts.Oversample = 10
	}
	if opts.PowerIters <= 0 {
		opts.PowerIters = 2
	}

	sketch := min(opts.K+opts.Oversample, min(rows, cols))
	rng := rand.New(rand.NewSource(opts.Seed))

	// Gaussian test matrix, d×sketch.
	omega := mat.NewDense(cols, sketch, nil)
	for i := 0; i < cols; i++ {
		for j := 0; j < sketch; j++ {
			omega.Set(i, j, rng.NormFloat64())
		}
	}

	// Range sketch Y = A·Ω, orthonormalized after every product to keep
	// the power iterations numerically stable.
	q, err := orthonormalize(a.MulDense(omega))
	if err != nil {
		return nil, err
	}
	for iter := 0; iter < opts.PowerIters; iter++ {
		z, err := orthonormalize(a.TMulDense(q))
		if err != nil {
			return nil, err
		}
		q, err = orthonormalize(a.MulDense(z))
		if err != nil {
			return nil, err
		}
	}

	// Project: B = Qᵀ·A, computed as (Aᵀ·Q)ᵀ, sketch×d.
	bt := a.TMulDense(q) // d×sketch
	var b mat.Dense
	b.CloneFrom(bt.T())

	var dec mat.SVD
	if !dec.Factorize(&b, mat.SVDThin) {
		return nil, fmt.Errorf("svd of projected matrix failed")
	}
	values := dec.Values(nil)
	var v mat.Dense
	dec.VTo(&v) // d×sketch, right singular vectors as columns

	basis := &Basis{
		S:  append([]float64(nil), values[:opts.K]...),
		VT: mat.NewDense(opts.K, cols, nil),
	}
	for i := 0; i < opts.K; i++ {
		for j := 0; j < cols; j++ {
			basis.VT.Set(i, j, v.At(j, i))
		}
	}
	return basis, nil
}

// orthonormalize returns an orthonormal basis of the column space of y via
// the thin SVD (left singular vectors).
func orthonormalize(y *mat.Dense) (*mat.Dense, error) {
	var dec mat.SVD
	if !dec.Factorize(y, mat.SVDThin) {
		return nil, fmt.Errorf("orthonormalization failed")
	}
	var u mat.Dense
	dec.UTo(&u)
	return &u, nil
}

// Project maps feature rows onto the basis: U = A·VTᵀ·diag(scale/sᵢ).
//
// scale is √n for n training rows, mirroring the whitening applied when the
// basis was fitted; singular values at or below zero leave their component
// zeroed rather than dividing by zero.
func (b *Basis) Project(a *sparse.CSR, scale float64) *mat.Dense {
	rows, _ := a.Dims()
	k := b.Rank()

	// VTᵀ·diag(scale/sᵢ), d×k.
	_, d := b.VT.Dims()
	proj := mat.NewDense(d, k, nil)
	for j := 0; j < k; j++ {
		if b.S[j] <= 0 {
			continue
		}
		factor := scale / b.S[j]
		for i := 0; i < d; i++ {
			proj.Set(i, j, b.VT.At(j, i)*factor)
		}
	}

	u := a.MulDense(proj)
	if r, c := u.Dims(); r != rows || c != k {
		panic(fmt.Sprintf("svd: projection produced %dx%d, want %dx%d", r, c, rows, k))
	}
	return u
}

// Symmetrize converts a stacked 2N×k projection (question1 block above
// question2 block) into the N×2k pair representation
// [(u₁+u₂)/2, (u₁−u₂)/2].
func Symmetrize(u *mat.Dense) (*mat.Dense, error) {
	rows, k := u.Dims()
	if rows%2 != 0 {
		return nil, fmt.Errorf("stacked projection has odd row count %d", rows)
	}
	n := rows / 2

	out := mat.NewDense(n, 2*k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			a := u.At(i, j)
			b := u.At(n+i, j)
			out.Set(i, j, (a+b)/2)
			out.Set(i, k+j, (a-b)/2)
		}
	}
	return out, nil
}
