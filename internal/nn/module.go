// Package nn implements the neural network modules used by the duplicate
// classifier: a fully connected layer, element-wise activations, a sequential
// container, and binary cross-entropy loss.
//
// Modules operate on gonum dense matrices with rows as samples. The network
// topology is fixed and shallow, so each module implements its own analytic
// backward pass instead of relying on a gradient tape: Forward caches what the
// backward pass needs, Backward accumulates parameter gradients and returns
// the gradient with respect to its input.
package nn

import "gonum.org/v1/gonum/mat"

// Module is the base interface for all network components.
//
// A module must be used in Forward-then-Backward order: Backward consumes
// state cached by the preceding Forward call.
type Module interface {
	// Forward computes the module output for a [batch, features] input.
	Forward(input *mat.Dense) *mat.Dense

	// Backward takes the loss gradient with respect to the module output
	// and returns the gradient with respect to the module input,
	// accumulating parameter gradients along the way.
	Backward(grad *mat.Dense) *mat.Dense

	// Parameters returns all trainable parameters of this module.
	// Modules without parameters return nil.
	Parameters() []*Parameter
}

// StatefulModule is a module whose parameters can be serialized.
type StatefulModule interface {
	Module

	// StateDict returns a map of parameter names to value matrices.
	StateDict() map[string]*mat.Dense

	// LoadStateDict loads parameter values, validating shapes.
	LoadStateDict(state map[string]*mat.Dense) error
}
