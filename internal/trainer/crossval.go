package trainer

import (
	"fmt"
	"log"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/dataset"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/metrics"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/nn"
)

// SplitQuality holds the metrics of one data split (train or valid) of one
// fold.
type SplitQuality struct {
	LogLoss     float64
	AUC         float64
	ROC         metrics.Curve
	Reliability metrics.Curve
}

// FoldQuality holds the per-fold training outcome.
type FoldQuality struct {
	Fold           int
	CheckpointPath string
	Train          SplitQuality
	Valid          SplitQuality
}

// Result is the outcome of cross-validated training.
type Result struct {
	Folds []FoldQuality

	// Predictions holds one out-of-fold prediction per training row, in
	// logit space: row i is scored by the model whose validation fold
	// contains i.
	Predictions []float64
}

// CheckpointPath returns the model dump path for a fold.
func CheckpointPath(dumpDir string, fold int) string {
	return filepath.Join(dumpDir, fmt.Sprintf("model_fold_%d.bin", fold))
}

// CrossValidate trains (or reloads) one model per fold and aggregates
// quality metrics and out-of-fold predictions.
//
// Each fold's model checkpoint lives under dumpDir; when a checkpoint loads
// into the configured architecture, training for that fold is skipped and the
// model is scored as-is. Any load failure, including an architecture change
// since the dump was written, falls back to training from scratch.
func CrossValidate(x *mat.Dense, y []float64, folds []dataset.Fold, opts Options, dumpDir string, logger *log.Logger) (*Result, error) {
	opts = opts.withDefaults()
	_, inputDim := x.Dims()

	result := &Result{
		Predictions: make([]float64, len(y)),
	}

	for i, fold := range folds {
		logger.Printf("cross-validation fold %d", i)

		foldOpts := opts
		foldOpts.Seed = opts.Seed + int64(i)

		model, err := NewModel(inputDim, foldOpts)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", i, err)
		}

		path := CheckpointPath(dumpDir, i)
		if _, err := nn.LoadCheckpoint(path, model); err != nil {
			logger.Printf("loading model for fold %d failed (%v), training", i, err)
			logger.Printf("input dimensions: %d", inputDim)

			finalLoss, err := Train(model, RowSubset(x, fold.Train), subset(y, fold.Train), foldOpts, logger)
			if err != nil {
				return nil, fmt.Errorf("fold %d: %w", i, err)
			}
			logger.Printf("writing model dump to %s", path)
			if err := nn.SaveCheckpoint(path, model, nn.CheckpointInfo{Epoch: foldOpts.Epochs, Loss: finalLoss}); err != nil {
				return nil, fmt.Errorf("fold %d: %w", i, err)
			}
		} else {
			logger.Printf("loaded model for fold %d from %s", i, path)
		}

		quality := FoldQuality{Fold: i, CheckpointPath: path}

		yTrain := subset(y, fold.Train)
		pTrain := Predict(model, RowSubset(x, fold.Train))
		quality.Train = evaluateSplit(yTrain, pTrain, foldOpts.ReliabilityBins)
		logger.Printf("fold %d train: ll=%.6f auc=%.6f", i, quality.Train.LogLoss, quality.Train.AUC)

		yValid := subset(y, fold.Valid)
		pValid := Predict(model, RowSubset(x, fold.Valid))
		quality.Valid = evaluateSplit(yValid, pValid, foldOpts.ReliabilityBins)
		logger.Printf("fold %d valid: ll=%.6f auc=%.6f", i, quality.Valid.LogLoss, quality.Valid.AUC)

		for j, idx := range fold.Valid {
			result.Predictions[idx] = metrics.Logit(pValid[j])
		}

		result.Folds = append(result.Folds, quality)
	}
	return result, nil
}

func evaluateSplit(y, p []float64, bins int) SplitQuality {
	return SplitQuality{
		LogLoss:     metrics.LogLoss(y, p),
		AUC:         metrics.AUC(y, p),
		ROC:         metrics.ROCCurve(y, p),
		Reliability: metrics.ReliabilityCurve(y, p, bins),
	}
}

func subset(v []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = v[idx]
	}
	return out
}
