// Package metrics implements the classifier quality measures reported per
// cross-validation fold: log-loss, ROC/AUC and the reliability (calibration)
// curve, plus the logit/sigmoid helpers used to aggregate fold predictions.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// probEps bounds probabilities away from {0, 1} before taking logs.
const probEps = 1e-15

// Curve is a sequence of (x, y) points: FPR/TPR for ROC curves, mean
// prediction/mean label for reliability curves.
type Curve struct {
	X []float64
	Y []float64
}

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Logit is the inverse of Sigmoid, with p clamped away from {0, 1}.
func Logit(p float64) float64 {
	p = clampProb(p)
	return math.Log(p / (1 - p))
}

// LogLoss computes mean binary cross-entropy between labels y and predicted
// probabilities p.
func LogLoss(y, p []float64) float64 {
	checkLengths(y, p)
	var sum float64
	for i := range y {
		pi := clampProb(p[i])
		sum -= y[i]*math.Log(pi) + (1-y[i])*math.Log(1-pi)
	}
	return sum / float64(len(y))
}

// ROCCurve computes the receiver operating characteristic of predictions p
// against binary labels y (positive when y > 0.5). X is the false positive
// rate, Y the true positive rate.
func ROCCurve(y, p []float64) Curve {
	checkLengths(y, p)

	scores := append([]float64(nil), p...)
	classes := make([]bool, len(y))
	order := make([]int, len(y))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return p[order[a]] < p[order[b]] })
	for i, idx := range order {
		scores[i] = p[idx]
		classes[i] = y[idx] > 0.5
	}

	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return Curve{X: fpr, Y: tpr}
}

// AUC computes the area under the ROC curve.
func AUC(y, p []float64) float64 {
	roc := ROCCurve(y, p)
	return integrate.Trapezoidal(roc.X, roc.Y)
}

// ReliabilityCurve buckets predictions into equal-width probability bins and
// returns, per non-empty bin, the mean prediction (X) against the observed
// positive rate (Y). A well-calibrated classifier tracks the diagonal.
func ReliabilityCurve(y, p []float64, bins int) Curve {
	checkLengths(y, p)
	if bins < 1 {
		panic(fmt.Sprintf("metrics: ReliabilityCurve needs at least 1 bin, got %d", bins))
	}

	sumPred := make([]float64, bins)
	sumLabel := make([]float64, bins)
	count := make([]int, bins)
	for i := range p {
		b := int(clampProb(p[i]) * float64(bins))
		if b == bins {
			b = bins - 1
		}
		sumPred[b] += p[i]
		sumLabel[b] += y[i]
		count[b]++
	}

	var curve Curve
	for b := 0; b < bins; b++ {
		if count[b] == 0 {
			continue
		}
		curve.X = append(curve.X, sumPred[b]/float64(count[b]))
		curve.Y = append(curve.Y, sumLabel[b]/float64(count[b]))
	}
	return curve
}

func clampProb(p float64) float64 {
	if p < probEps {
		return probEps
	}
	if p > 1-probEps {
		return 1 - probEps
	}
	return p
}

func checkLengths(y, p []float64) {
	if len(y) != len(p) {
		panic(fmt.Sprintf("metrics: %d labels vs %d predictions", len(y), len(p)))
	}
	if len(y) == 0 {
		panic("metrics: empty input")
	}
}
