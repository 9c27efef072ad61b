// Package optim implements the optimizers used to train the duplicate
// classifier.
//
// Gradients are accumulated into each Parameter by the network's backward
// pass; Step consumes them and updates parameter values in place.
package optim

import (
	"fmt"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/nn"
)

// Optimizer updates model parameters from their accumulated gradients.
type Optimizer interface {
	// Step applies one update using the current parameter gradients.
	Step()

	// ZeroGrad clears the gradients of all managed parameters.
	ZeroGrad()
}

// New creates an optimizer by name ("sgd" or "adam") with the given learning
// rate and default hyperparameters otherwise. Used when building the trainer
// from configuration.
func New(name string, params []*nn.Parameter, lr float64) (Optimizer, error) {
	switch name {
	case "sgd":
		return NewSGD(params, SGDConfig{LR: lr}), nil
	case "adam", "":
		return NewAdam(params, AdamConfig{LR: lr}), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}
