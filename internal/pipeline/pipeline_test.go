package pipeline_test

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/config"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/pipeline"
)

var (
	dupWords      = []string{"what", "is", "the", "best", "way", "to", "learn", "go"}
	distinctWords = []string{"how", "do", "planes", "fly", "why", "is", "rain", "wet"}
)

func question(rng *rand.Rand, words []string) string {
	parts := make([]string, 5)
	for i := range parts {
		parts[i] = words[rng.Intn(len(words))]
	}
	return strings.Join(parts, " ")
}

// writeCorpus generates a small Quora-shaped train/test pair of CSV files.
// Duplicate pairs share a vocabulary so the task is learnable.
func writeCorpus(t *testing.T, dir string, trainPairs, testPairs int) (trainPath, testPath string) {
	t.Helper()
	rng := rand.New(rand.NewSource(99))

	trainPath = filepath.Join(dir, "train.csv")
	f, err := os.Create(trainPath)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.Write([]string{"id", "qid1", "qid2", "question1", "question2", "is_duplicate"}))
	for i := 0; i < trainPairs; i++ {
		label := i % 2
		words := distinctWords
		if label == 1 {
			words = dupWords
		}
		require.NoError(t, w.Write([]string{
			strconv.Itoa(i), strconv.Itoa(2 * i), strconv.Itoa(2*i + 1),
			question(rng, words), question(rng, words), strconv.Itoa(label),
		}))
	}
	w.Flush()
	require.NoError(t, w.Error())
	require.NoError(t, f.Close())

	testPath = filepath.Join(dir, "test.csv")
	f, err = os.Create(testPath)
	require.NoError(t, err)
	w = csv.NewWriter(f)
	require.NoError(t, w.Write([]string{"test_id", "question1", "question2"}))
	for i := 0; i < testPairs; i++ {
		words := distinctWords
		if i%2 == 1 {
			words = dupWords
		}
		require.NoError(t, w.Write([]string{
			strconv.Itoa(i), question(rng, words), question(rng, words),
		}))
	}
	w.Flush()
	require.NoError(t, w.Error())
	require.NoError(t, f.Close())
	return trainPath, testPath
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	trainPath, testPath := writeCorpus(t, dir, 60, 12)

	body := fmt.Sprintf(`
run:
  dump_dir: %s
  seed: 11
  feature_name: svdff
dataset:
  train: %s
  test: %s
svd:
  k: 4
  power_iters: 4
model:
  layers: [4]
  activations: [tanh]
  learning_rate: 0.05
  epochs: 3
  batch_size: 16
  folds: 3
  reliability_bins: 10
`, filepath.Join(dir, "dump"), trainPath, testPath)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	return cfg
}

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// readScores parses an output CSV and returns its score column.
func readScores(t *testing.T, path string, wantHeader []string) []float64 {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	require.Equal(t, wantHeader, rows[0])

	scores := make([]float64, 0, len(rows)-1)
	for _, row := range rows[1:] {
		v, err := strconv.ParseFloat(row[len(row)-1], 64)
		require.NoError(t, err)
		scores = append(scores, v)
	}
	return scores
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, pipeline.New(cfg, discard()).Run())

	dump := cfg.Run.DumpDir
	for _, name := range []string{
		"application.yaml",
		"vectorizer.gob",
		"features_train.bin",
		"singular_values.txt",
		"singular_vectors.bin",
		"singular_values.png",
		"model_fold_0.bin",
		"model_fold_1.bin",
		"model_fold_2.bin",
		filepath.Join("quality", "fold0", "roc.png"),
		filepath.Join("quality", "fold0", "reliability.png"),
		filepath.Join("quality", "fold2", "roc.png"),
	} {
		_, err := os.Stat(filepath.Join(dump, name))
		assert.NoError(t, err, "missing artifact %s", name)
	}

	trainScores := readScores(t, filepath.Join(dump, "train.csv"), []string{"id", "is_duplicate", "svdff"})
	require.Len(t, trainScores, 60)
	for i, v := range trainScores {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "train score %d", i)
	}

	testScores := readScores(t, filepath.Join(dump, "test.csv"), []string{"test_id", "svdff"})
	require.Len(t, testScores, 12)
	for i, v := range testScores {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "test score %d", i)
	}

	assert.NotEmpty(t, cfg.Run.ID)
}

func TestRunReusesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, pipeline.New(cfg, discard()).Run())

	first, err := os.ReadFile(filepath.Join(cfg.Run.DumpDir, "train.csv"))
	require.NoError(t, err)
	firstTest, err := os.ReadFile(filepath.Join(cfg.Run.DumpDir, "test.csv"))
	require.NoError(t, err)

	// The second run must reload the vectorizer, feature matrix, SVD basis
	// and fold checkpoints, so the outputs are reproduced exactly.
	require.NoError(t, pipeline.New(cfg, discard()).Run())

	second, err := os.ReadFile(filepath.Join(cfg.Run.DumpDir, "train.csv"))
	require.NoError(t, err)
	secondTest, err := os.ReadFile(filepath.Join(cfg.Run.DumpDir, "test.csv"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstTest, secondTest)
}

func TestRunMissingTrainFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.Train = filepath.Join(t.TempDir(), "absent.csv")
	assert.Error(t, pipeline.New(cfg, discard()).Run())
}
