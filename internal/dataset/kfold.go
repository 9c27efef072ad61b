package dataset

import (
	"fmt"
	"math/rand"
)

// Fold is one cross-validation split: indices into the training corpus.
type Fold struct {
	Train []int
	Valid []int
}

// StratifiedKFold partitions record indices into k folds with approximately
// equal label proportions in every fold.
//
// Indices are grouped by label, shuffled with the seeded generator, and dealt
// round-robin into folds, so the split is deterministic for a given seed.
// Every index appears in exactly one validation set.
func StratifiedKFold(labels []float64, k int, seed int64) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}
	if len(labels) < k {
		return nil, fmt.Errorf("cannot split %d records into %d folds", len(labels), k)
	}

	byLabel := make(map[float64][]int)
	for i, y := range labels {
		byLabel[y] = append(byLabel[y], i)
	}

	rng := rand.New(rand.NewSource(seed))
	assignment := make([]int, len(labels))

	// Iterate classes in a fixed order so the split does not depend on map
	// iteration.
	classes := make([]float64, 0, len(byLabel))
	for y := range byLabel {
		classes = append(classes, y)
	}
	for i := 0; i < len(classes); i++ {
		for j := i + 1; j < len(classes); j++ {
			if classes[j] < classes[i] {
				classes[i], classes[j] = classes[j], classes[i]
			}
		}
	}

	for _, y := range classes {
		indices := byLabel[y]
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})
		for pos, idx := range indices {
			assignment[idx] = pos % k
		}
	}

	folds := make([]Fold, k)
	for idx, fold := range assignment {
		for f := range folds {
			if f == fold {
				folds[f].Valid = append(folds[f].Valid, idx)
			} else {
				folds[f].Train = append(folds[f].Train, idx)
			}
		}
	}
	return folds, nil
}
