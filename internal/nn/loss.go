package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// bceEps keeps predictions away from {0, 1} so the loss and its gradient
// stay finite.
const bceEps = 1e-7

// BCELoss computes binary cross-entropy over sigmoid probabilities:
//
//	L = -mean(y·ln(p) + (1−y)·ln(1−p))
//
// Forward caches predictions and targets; Backward returns dL/dp.
type BCELoss struct {
	pred   *mat.Dense
	target *mat.Dense
}

// NewBCELoss creates a binary cross-entropy loss.
func NewBCELoss() *BCELoss {
	return &BCELoss{}
}

// Forward computes the mean loss. pred and target must both be [batch, 1].
func (l *BCELoss) Forward(pred, target *mat.Dense) float64 {
	pr, pc := pred.Dims()
	tr, tc := target.Dims()
	if pr != tr || pc != tc {
		panic(fmt.Sprintf("BCELoss.Forward: shape mismatch %dx%d vs %dx%d", pr, pc, tr, tc))
	}
	l.pred = pred
	l.target = target

	var sum float64
	for i := 0; i < pr; i++ {
		for j := 0; j < pc; j++ {
			p := clamp(pred.At(i, j))
			y := target.At(i, j)
			sum -= y*math.Log(p) + (1-y)*math.Log(1-p)
		}
	}
	return sum / float64(pr*pc)
}

// Backward returns dL/dp = (p−y) / (p·(1−p)·n).
func (l *BCELoss) Backward() *mat.Dense {
	if l.pred == nil {
		panic("BCELoss.Backward: called before Forward")
	}
	rows, cols := l.pred.Dims()
	n := float64(rows * cols)
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p := clamp(l.pred.At(i, j))
			y := l.target.At(i, j)
			out.Set(i, j, (p-y)/(p*(1-p)*n))
		}
	}
	return out
}

func clamp(p float64) float64 {
	if p < bceEps {
		return bceEps
	}
	if p > 1-bceEps {
		return 1 - bceEps
	}
	return p
}
