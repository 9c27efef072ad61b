// Package main runs the SVD feed-forward feature pipeline: TF-IDF over the
// stacked question corpus, randomized truncated SVD, cross-validated neural
// networks, and train/test feature CSVs.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/config"
	"github.com/davidfumo/kaggle-quora-question-pairs/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the pipeline configuration")
	flag.Parse()

	logger := log.New(os.Stderr, "svdff: ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if err := pipeline.New(cfg, logger).Run(); err != nil {
		logger.Fatalf("pipeline failed: %v", err)
	}
}
