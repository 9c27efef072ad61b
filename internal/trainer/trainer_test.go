package trainer_test

import (
	"io"
	"log"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/dataset"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/metrics"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/trainer"
)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// toyProblem builds a linearly separable binary problem: label is 1 when the
// sum of the two features is positive.
func toyProblem(n int, seed int64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b := rng.NormFloat64(), rng.NormFloat64()
		x.Set(i, 0, a)
		x.Set(i, 1, b)
		if a+b > 0 {
			y[i] = 1
		}
	}
	return x, y
}

func TestNewModelValidation(t *testing.T) {
	_, err := trainer.NewModel(4, trainer.Options{Layers: []int{8}, Activations: nil})
	assert.Error(t, err, "layer/activation count mismatch")

	_, err = trainer.NewModel(4, trainer.Options{Layers: []int{0}, Activations: []string{"relu"}})
	assert.Error(t, err, "zero-size layer")

	_, err = trainer.NewModel(4, trainer.Options{Layers: []int{8}, Activations: []string{"swish"}})
	assert.Error(t, err, "unknown activation")

	model, err := trainer.NewModel(4, trainer.Options{})
	require.NoError(t, err, "no hidden layers is a plain logistic model")
	out := model.Forward(mat.NewDense(3, 4, nil))
	rows, cols := out.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 1, cols)
}

func TestModelOutputsAreProbabilities(t *testing.T) {
	model, err := trainer.NewModel(2, trainer.Options{
		Layers: []int{6}, Activations: []string{"relu"}, Seed: 1,
	})
	require.NoError(t, err)

	x, _ := toyProblem(50, 2)
	for _, p := range trainer.Predict(model, x) {
		assert.Greater(t, p, 0.0)
		assert.Less(t, p, 1.0)
	}
}

func TestTrainReducesLoss(t *testing.T) {
	x, y := toyProblem(400, 3)
	opts := trainer.Options{
		Layers:       []int{8},
		Activations:  []string{"tanh"},
		LearningRate: 0.05,
		Epochs:       30,
		BatchSize:    32,
		Seed:         4,
	}

	model, err := trainer.NewModel(2, opts)
	require.NoError(t, err)

	before := metrics.LogLoss(y, trainer.Predict(model, x))
	finalLoss, err := trainer.Train(model, x, y, opts, discard())
	require.NoError(t, err)
	after := metrics.LogLoss(y, trainer.Predict(model, x))

	assert.Less(t, after, before, "training should reduce loss")
	assert.Less(t, after, 0.4, "separable problem should fit well")
	assert.False(t, math.IsNaN(finalLoss))
}

func TestTrainLabelMismatch(t *testing.T) {
	model, err := trainer.NewModel(2, trainer.Options{})
	require.NoError(t, err)
	_, err = trainer.Train(model, mat.NewDense(4, 2, nil), []float64{1}, trainer.Options{}, discard())
	assert.Error(t, err)
}

func TestRowSubset(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	sub := trainer.RowSubset(x, []int{2, 0})
	assert.Equal(t, []float64{5, 6}, sub.RawRowView(0))
	assert.Equal(t, []float64{1, 2}, sub.RawRowView(1))
}

func TestCrossValidate(t *testing.T) {
	x, y := toyProblem(300, 5)
	folds, err := dataset.StratifiedKFold(y, 3, 6)
	require.NoError(t, err)

	opts := trainer.Options{
		Layers:       []int{6},
		Activations:  []string{"tanh"},
		LearningRate: 0.05,
		Epochs:       20,
		BatchSize:    32,
		Seed:         7,
	}
	dumpDir := t.TempDir()

	result, err := trainer.CrossValidate(x, y, folds, opts, dumpDir, discard())
	require.NoError(t, err)
	require.Len(t, result.Folds, 3)
	require.Len(t, result.Predictions, 300)

	for _, q := range result.Folds {
		assert.Greater(t, q.Valid.AUC, 0.8, "fold %d", q.Fold)
		assert.Positive(t, q.Valid.LogLoss)
		assert.NotEmpty(t, q.Valid.ROC.X)
		assert.NotEmpty(t, q.Train.Reliability.X)
		assert.FileExists(t, q.CheckpointPath)
	}

	// Out-of-fold logits must be finite for every row.
	for i, p := range result.Predictions {
		assert.False(t, math.IsNaN(p), "row %d", i)
		assert.False(t, math.IsInf(p, 0), "row %d", i)
	}
}

func TestCrossValidateReusesCheckpoints(t *testing.T) {
	x, y := toyProblem(120, 8)
	folds, err := dataset.StratifiedKFold(y, 2, 9)
	require.NoError(t, err)

	opts := trainer.Options{LearningRate: 0.05, Epochs: 5, BatchSize: 16, Seed: 10}
	dumpDir := t.TempDir()

	first, err := trainer.CrossValidate(x, y, folds, opts, dumpDir, discard())
	require.NoError(t, err)

	// Second run must load the dumped models and reproduce predictions
	// exactly.
	second, err := trainer.CrossValidate(x, y, folds, opts, dumpDir, discard())
	require.NoError(t, err)
	assert.Equal(t, first.Predictions, second.Predictions)
}
