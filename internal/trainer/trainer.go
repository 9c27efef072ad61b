// Package trainer builds and trains the shallow feed-forward classifier and
// drives the cross-validated training scheme that produces out-of-fold
// predictions.
package trainer

import (
	"fmt"
	"log"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/nn"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/optim"
)

// Options configures model construction and training.
type Options struct {
	// Layers are the hidden layer sizes; Activations names one activation
	// per hidden layer. The output layer is always Linear(·, 1) + Sigmoid.
	Layers      []int
	Activations []string

	// Optimizer is "adam" (default) or "sgd".
	Optimizer    string
	LearningRate float64

	Epochs    int // default 10
	BatchSize int // default 100

	// Seed drives weight initialization and batch shuffling.
	Seed int64

	// ReliabilityBins is the bucket count for calibration curves
	// (default 50).
	ReliabilityBins int
}

func (o Options) withDefaults() Options {
	if o.Epochs <= 0 {
		o.Epochs = 10
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.ReliabilityBins <= 0 {
		o.ReliabilityBins = 50
	}
	return o
}

// NewModel builds the classifier network for the given input dimension:
// configured hidden layers followed by a sigmoid output unit.
func NewModel(inputDim int, opts Options) (*nn.Sequential, error) {
	if len(opts.Layers) != len(opts.Activations) {
		return nil, fmt.Errorf("%d hidden layers but %d activations",
			len(opts.Layers), len(opts.Activations))
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	var modules []nn.Module
	prev := inputDim
	for i, size := range opts.Layers {
		if size <= 0 {
			return nil, fmt.Errorf("hidden layer %d has size %d", i, size)
		}
		activation, err := nn.NewActivation(opts.Activations[i])
		if err != nil {
			return nil, err
		}
		modules = append(modules, nn.NewLinear(prev, size, rng), activation)
		prev = size
	}
	modules = append(modules, nn.NewLinear(prev, 1, rng), nn.NewSigmoid())
	return nn.NewSequential(modules...), nil
}

// Train fits the model with mini-batch gradient descent and returns the mean
// loss of the final epoch.
func Train(model *nn.Sequential, x *mat.Dense, y []float64, opts Options, logger *log.Logger) (float64, error) {
	opts = opts.withDefaults()
	rows, _ := x.Dims()
	if rows != len(y) {
		return 0, fmt.Errorf("%d feature rows but %d labels", rows, len(y))
	}

	optimizer, err := optim.New(opts.Optimizer, model.Parameters(), opts.LearningRate)
	if err != nil {
		return 0, err
	}
	loss := nn.NewBCELoss()
	rng := rand.New(rand.NewSource(opts.Seed + 1))

	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}

	var epochLoss float64
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})

		var total float64
		var batches int
		for start := 0; start < rows; start += opts.BatchSize {
			end := min(start+opts.BatchSize, rows)
			batch := indices[start:end]

			xb := RowSubset(x, batch)
			yb := mat.NewDense(len(batch), 1, nil)
			for i, idx := range batch {
				yb.Set(i, 0, y[idx])
			}

			optimizer.ZeroGrad()
			pred := model.Forward(xb)
			total += loss.Forward(pred, yb)
			model.Backward(loss.Backward())
			optimizer.Step()
			batches++
		}

		epochLoss = total / float64(batches)
		logger.Printf("epoch %d/%d: loss=%.6f", epoch+1, opts.Epochs, epochLoss)
	}
	return epochLoss, nil
}

// predictBatch bounds memory use when scoring large corpora.
const predictBatch = 4096

// Predict returns the model's probability output for every row of x.
func Predict(model *nn.Sequential, x *mat.Dense) []float64 {
	rows, _ := x.Dims()
	out := make([]float64, rows)
	for start := 0; start < rows; start += predictBatch {
		end := min(start+predictBatch, rows)
		pred := model.Forward(denseRows(x, start, end))
		for i := start; i < end; i++ {
			out[i] = pred.At(i-start, 0)
		}
	}
	return out
}

// RowSubset copies the given rows of x into a new dense matrix.
func RowSubset(x *mat.Dense, rows []int) *mat.Dense {
	_, cols := x.Dims()
	out := mat.NewDense(len(rows), cols, nil)
	for i, idx := range rows {
		out.SetRow(i, x.RawRowView(idx))
	}
	return out
}

func denseRows(x *mat.Dense, start, end int) *mat.Dense {
	var out mat.Dense
	out.CloneFrom(x.Slice(start, end, 0, x.RawMatrix().Cols))
	return &out
}
