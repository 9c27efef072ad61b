package metrics_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/metrics"
)

func TestSigmoidLogitInverse(t *testing.T) {
	for _, x := range []float64{-5, -1, 0, 0.3, 2, 8} {
		assert.InDelta(t, x, metrics.Logit(metrics.Sigmoid(x)), 1e-9, "x=%v", x)
	}
	assert.Equal(t, 0.5, metrics.Sigmoid(0))
}

func TestLogitClampsExtremes(t *testing.T) {
	assert.False(t, math.IsInf(metrics.Logit(0), 0))
	assert.False(t, math.IsInf(metrics.Logit(1), 0))
	assert.Negative(t, metrics.Logit(0))
	assert.Positive(t, metrics.Logit(1))
}

func TestLogLoss(t *testing.T) {
	// Uniform 0.5 predictions give ln 2.
	y := []float64{1, 0, 1, 0}
	p := []float64{0.5, 0.5, 0.5, 0.5}
	assert.InDelta(t, math.Ln2, metrics.LogLoss(y, p), 1e-12)

	// Confident correct predictions approach zero loss.
	assert.Less(t, metrics.LogLoss([]float64{1, 0}, []float64{0.99, 0.01}), 0.05)

	// Wrong extreme predictions are heavily penalized but finite.
	loss := metrics.LogLoss([]float64{1}, []float64{0})
	assert.Greater(t, loss, 10.0)
	assert.False(t, math.IsInf(loss, 0))
}

func TestAUCPerfectRanking(t *testing.T) {
	y := []float64{0, 0, 1, 1}
	p := []float64{0.1, 0.2, 0.8, 0.9}
	assert.InDelta(t, 1.0, metrics.AUC(y, p), 1e-12)
}

func TestAUCReversedRanking(t *testing.T) {
	y := []float64{1, 1, 0, 0}
	p := []float64{0.1, 0.2, 0.8, 0.9}
	assert.InDelta(t, 0.0, metrics.AUC(y, p), 1e-12)
}

func TestAUCRandomScoresOnBalancedLabels(t *testing.T) {
	// Identical scores give an uninformative classifier: AUC 1/2.
	y := []float64{0, 1, 0, 1}
	p := []float64{0.5, 0.5, 0.5, 0.5}
	assert.InDelta(t, 0.5, metrics.AUC(y, p), 1e-12)
}

func TestROCCurveEndpoints(t *testing.T) {
	y := []float64{0, 1, 1, 0, 1}
	p := []float64{0.2, 0.7, 0.6, 0.4, 0.9}
	roc := metrics.ROCCurve(y, p)

	assert.Equal(t, len(roc.X), len(roc.Y))
	assert.NotEmpty(t, roc.X)
	for i := range roc.X {
		assert.GreaterOrEqual(t, roc.X[i], 0.0)
		assert.LessOrEqual(t, roc.X[i], 1.0)
		assert.GreaterOrEqual(t, roc.Y[i], 0.0)
		assert.LessOrEqual(t, roc.Y[i], 1.0)
	}
}

func TestReliabilityCurvePerfectCalibration(t *testing.T) {
	// In every bucket the positive rate equals the predicted probability.
	var y, p []float64
	for i := 0; i < 10; i++ {
		p = append(p, 0.25, 0.25, 0.25, 0.25, 0.75, 0.75, 0.75, 0.75)
		y = append(y, 1, 0, 0, 0, 1, 1, 1, 0)
	}

	curve := metrics.ReliabilityCurve(y, p, 2)
	assert.Equal(t, []float64{0.25, 0.75}, curve.X)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, curve.Y, 1e-12)
}

func TestReliabilityCurveSkipsEmptyBins(t *testing.T) {
	y := []float64{0, 1}
	p := []float64{0.05, 0.95}
	curve := metrics.ReliabilityCurve(y, p, 50)
	assert.Len(t, curve.X, 2)
}

func TestLengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		metrics.LogLoss([]float64{1}, []float64{0.5, 0.5})
	})
	assert.Panics(t, func() {
		metrics.ReliabilityCurve(nil, nil, 10)
	})
}
