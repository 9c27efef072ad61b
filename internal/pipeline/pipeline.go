// Package pipeline orchestrates the full feature run: TF-IDF vectorization
// of the stacked question corpus, randomized truncated SVD, cross-validated
// neural network training, and the train/test feature CSVs.
//
// Every expensive artifact (vectorizer, feature matrix, SVD basis, fold
// checkpoints) is dumped under the configured dump directory and reused on
// the next run when it still matches the configuration.
package pipeline

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/config"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/dataset"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/metrics"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/nn"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/report"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/sparse"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/svd"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/text"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/trainer"
)

// Artifact file names under the dump directory.
const (
	configDump     = "application.yaml"
	vectorizerDump = "vectorizer.gob"
	featuresDump   = "features_train.bin"
	valuesDump     = "singular_values.txt"
	vectorsDump    = "singular_vectors.bin"
	spectrumPlot   = "singular_values.png"
	qualityDir     = "quality"
	trainOutput    = "train.csv"
	testOutput     = "test.csv"
)

// Pipeline runs the feature computation end to end.
type Pipeline struct {
	cfg *config.Config
	log *log.Logger
}

// New builds a pipeline for the given configuration.
func New(cfg *config.Config, logger *log.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: logger}
}

// Run executes the pipeline and writes all artifacts into the dump
// directory.
func (p *Pipeline) Run() error {
	if err := os.MkdirAll(p.cfg.Run.DumpDir, 0o755); err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}
	if p.cfg.Run.ID == "" {
		p.cfg.Run.ID = uuid.NewString()
	}
	p.log.Printf("run %s: dumping artifacts to %s", p.cfg.Run.ID, p.cfg.Run.DumpDir)
	if err := p.cfg.Dump(p.dumpPath(configDump)); err != nil {
		return err
	}

	train, err := dataset.LoadTrain(p.cfg.Dataset.Train)
	if err != nil {
		return fmt.Errorf("load train set: %w", err)
	}
	y := dataset.Labels(train)
	stacked := dataset.StackQuestions(train)
	p.log.Printf("loaded %d training pairs (%d stacked questions)", len(train), len(stacked))

	vec, err := p.loadOrFitVectorizer(stacked)
	if err != nil {
		return err
	}

	features, err := p.loadOrTransform(vec, stacked)
	if err != nil {
		return err
	}

	basis, err := p.loadOrComputeBasis(features)
	if err != nil {
		return err
	}

	// The singular values are rescaled so that projected coordinates stay
	// O(1) regardless of corpus size; the test set reuses the train-derived
	// scale.
	stackedRows, _ := features.Dims()
	scale := math.Sqrt(float64(stackedRows))

	xTrain, err := svd.Symmetrize(basis.Project(features, scale))
	if err != nil {
		return fmt.Errorf("symmetrize train features: %w", err)
	}

	folds, err := dataset.StratifiedKFold(y, p.cfg.Model.Folds, p.cfg.Run.Seed)
	if err != nil {
		return err
	}

	result, err := trainer.CrossValidate(xTrain, y, folds, p.cfg.TrainerOptions(), p.cfg.Run.DumpDir, p.log)
	if err != nil {
		return err
	}
	if err := p.saveQualityPlots(result); err != nil {
		return err
	}
	if err := p.writeTrainOutput(train, result.Predictions); err != nil {
		return err
	}

	return p.scoreTestSet(vec, basis, scale, result)
}

func (p *Pipeline) dumpPath(name string) string {
	return filepath.Join(p.cfg.Run.DumpDir, name)
}

// loadOrFitVectorizer reuses a previously fitted vectorizer when one is
// dumped, otherwise fits a fresh one on the stacked corpus and dumps it.
func (p *Pipeline) loadOrFitVectorizer(docs []string) (*text.Vectorizer, error) {
	path := p.dumpPath(vectorizerDump)
	if vec, err := text.Load(path); err == nil {
		p.log.Printf("reusing fitted vectorizer from %s (%d features)", path, vec.NumFeatures())
		return vec, nil
	}

	p.log.Printf("fitting vectorizer on %d documents", len(docs))
	vec, err := text.Fit(docs, p.cfg.TextOptions())
	if err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	if err := vec.Save(path); err != nil {
		return nil, fmt.Errorf("dump vectorizer: %w", err)
	}
	p.log.Printf("fitted vectorizer with %d features", vec.NumFeatures())
	return vec, nil
}

// loadOrTransform reuses the dumped training feature matrix when its shape
// matches the current vectorizer and corpus, otherwise recomputes it.
func (p *Pipeline) loadOrTransform(vec *text.Vectorizer, docs []string) (*sparse.CSR, error) {
	path := p.dumpPath(featuresDump)
	if features, err := sparse.Load(path); err == nil {
		rows, cols := features.Dims()
		if rows == len(docs) && cols == vec.NumFeatures() {
			p.log.Printf("reusing feature matrix from %s (%d x %d, %d nonzeros)",
				path, rows, cols, features.NNZ())
			return features, nil
		}
		p.log.Printf("dumped feature matrix is %d x %d, want %d x %d; recomputing",
			rows, cols, len(docs), vec.NumFeatures())
	}

	features, err := vec.Transform(docs)
	if err != nil {
		return nil, fmt.Errorf("transform corpus: %w", err)
	}
	if err := features.Save(path); err != nil {
		return nil, fmt.Errorf("dump feature matrix: %w", err)
	}
	rows, cols := features.Dims()
	p.log.Printf("computed feature matrix (%d x %d, %d nonzeros)", rows, cols, features.NNZ())
	return features, nil
}

// loadOrComputeBasis reuses the dumped SVD basis when its rank and dimension
// match the configuration, otherwise recomputes it and renders the spectrum
// plot.
func (p *Pipeline) loadOrComputeBasis(features *sparse.CSR) (*svd.Basis, error) {
	valuesPath, vectorsPath := p.dumpPath(valuesDump), p.dumpPath(vectorsDump)
	_, dim := features.Dims()
	if basis, err := svd.Load(valuesPath, vectorsPath, p.cfg.SVD.K); err == nil {
		if _, cols := basis.VT.Dims(); cols == dim {
			p.log.Printf("reusing SVD basis from %s (rank %d)", vectorsPath, basis.Rank())
			return basis, nil
		}
		p.log.Printf("dumped SVD basis dimension no longer matches; recomputing")
	}

	p.log.Printf("computing rank-%d randomized SVD", p.cfg.SVD.K)
	basis, err := svd.Compute(features, p.cfg.SVDOptions())
	if err != nil {
		return nil, fmt.Errorf("compute svd: %w", err)
	}
	if err := basis.Save(valuesPath, vectorsPath); err != nil {
		return nil, fmt.Errorf("dump svd basis: %w", err)
	}
	if err := report.SaveSingularValues(basis.S, p.dumpPath(spectrumPlot)); err != nil {
		return nil, fmt.Errorf("plot singular values: %w", err)
	}
	return basis, nil
}

// saveQualityPlots renders per-fold ROC and reliability plots under
// quality/fold<N>/.
func (p *Pipeline) saveQualityPlots(result *trainer.Result) error {
	for _, q := range result.Folds {
		dir := filepath.Join(p.cfg.Run.DumpDir, qualityDir, fmt.Sprintf("fold%d", q.Fold))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create quality dir: %w", err)
		}
		if err := report.SaveROC(q.Train.ROC, q.Valid.ROC, filepath.Join(dir, "roc.png")); err != nil {
			return fmt.Errorf("plot fold %d roc: %w", q.Fold, err)
		}
		if err := report.SaveReliability(q.Train.Reliability, q.Valid.Reliability,
			filepath.Join(dir, "reliability.png")); err != nil {
			return fmt.Errorf("plot fold %d reliability: %w", q.Fold, err)
		}
	}
	return nil
}

// scoreTestSet vectorizes and projects the test pairs, averages the fold
// models' predictions in logit space, and writes the test feature CSV. Test
// features are never cached.
func (p *Pipeline) scoreTestSet(vec *text.Vectorizer, basis *svd.Basis, scale float64, result *trainer.Result) error {
	test, err := dataset.LoadTest(p.cfg.Dataset.Test)
	if err != nil {
		return fmt.Errorf("load test set: %w", err)
	}
	p.log.Printf("scoring %d test pairs", len(test))

	features, err := vec.Transform(dataset.StackQuestions(test))
	if err != nil {
		return fmt.Errorf("transform test corpus: %w", err)
	}
	xTest, err := svd.Symmetrize(basis.Project(features, scale))
	if err != nil {
		return fmt.Errorf("symmetrize test features: %w", err)
	}

	_, inputDim := xTest.Dims()
	scores := make([]float64, len(test))
	for _, q := range result.Folds {
		model, err := trainer.NewModel(inputDim, p.cfg.TrainerOptions())
		if err != nil {
			return err
		}
		if _, err := nn.LoadCheckpoint(q.CheckpointPath, model); err != nil {
			return fmt.Errorf("reload fold %d checkpoint: %w", q.Fold, err)
		}
		probs := trainer.Predict(model, xTest)
		for i, prob := range probs {
			scores[i] += metrics.Logit(prob)
		}
	}
	for i := range scores {
		scores[i] /= float64(len(result.Folds))
	}

	return p.writeTestOutput(test, scores)
}

// writeTrainOutput writes train.csv with one out-of-fold logit score per
// training pair.
func (p *Pipeline) writeTrainOutput(train []dataset.TrainRecord, scores []float64) error {
	path := p.dumpPath(trainOutput)
	rows := make([][]string, len(train))
	for i, rec := range train {
		rows[i] = []string{
			strconv.FormatInt(rec.ID, 10),
			strconv.Itoa(rec.IsDuplicate),
			formatScore(scores[i]),
		}
	}
	header := []string{"id", "is_duplicate", p.cfg.Run.FeatureName}
	if err := writeCSV(path, header, rows); err != nil {
		return fmt.Errorf("write train output: %w", err)
	}
	p.log.Printf("wrote %d train scores to %s", len(rows), path)
	return nil
}

// writeTestOutput writes test.csv with one fold-averaged logit score per
// test pair.
func (p *Pipeline) writeTestOutput(test []dataset.TestRecord, scores []float64) error {
	path := p.dumpPath(testOutput)
	rows := make([][]string, len(test))
	for i, rec := range test {
		rows[i] = []string{
			strconv.FormatInt(rec.TestID, 10),
			formatScore(scores[i]),
		}
	}
	header := []string{"test_id", p.cfg.Run.FeatureName}
	if err := writeCSV(path, header, rows); err != nil {
		return fmt.Errorf("write test output: %w", err)
	}
	p.log.Printf("wrote %d test scores to %s", len(rows), path)
	return nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
