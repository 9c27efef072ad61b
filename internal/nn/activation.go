package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NewActivation creates an activation module by name ("relu", "tanh" or
// "sigmoid"). Used when building a network from configuration.
func NewActivation(name string) (Module, error) {
	switch name {
	case "relu":
		return NewReLU(), nil
	case "tanh":
		return NewTanh(), nil
	case "sigmoid":
		return NewSigmoid(), nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}

// ReLU applies f(x) = max(0, x) element-wise.
type ReLU struct {
	input *mat.Dense
}

// NewReLU creates a ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies the activation.
func (r *ReLU) Forward(input *mat.Dense) *mat.Dense {
	r.input = input
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Max(0, v)
	}, input)
	return &out
}

// Backward masks the incoming gradient where the input was non-positive.
func (r *ReLU) Backward(grad *mat.Dense) *mat.Dense {
	if r.input == nil {
		panic("ReLU.Backward: called before Forward")
	}
	var out mat.Dense
	out.Apply(func(i, j int, g float64) float64 {
		if r.input.At(i, j) > 0 {
			return g
		}
		return 0
	}, grad)
	return &out
}

// Parameters returns nil (ReLU has no trainable parameters).
func (r *ReLU) Parameters() []*Parameter {
	return nil
}

// Sigmoid applies σ(x) = 1 / (1 + exp(-x)) element-wise.
//
// The backward pass uses the cached output: σ'(x) = σ(x)·(1−σ(x)).
type Sigmoid struct {
	output *mat.Dense
}

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

// Forward applies the activation.
func (s *Sigmoid) Forward(input *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		return 1 / (1 + math.Exp(-v))
	}, input)
	s.output = &out
	return &out
}

// Backward scales the incoming gradient by σ·(1−σ).
func (s *Sigmoid) Backward(grad *mat.Dense) *mat.Dense {
	if s.output == nil {
		panic("Sigmoid.Backward: called before Forward")
	}
	var out mat.Dense
	out.Apply(func(i, j int, g float64) float64 {
		y := s.output.At(i, j)
		return g * y * (1 - y)
	}, grad)
	return &out
}

// Parameters returns nil (Sigmoid has no trainable parameters).
func (s *Sigmoid) Parameters() []*Parameter {
	return nil
}

// Tanh applies the hyperbolic tangent element-wise.
type Tanh struct {
	output *mat.Dense
}

// NewTanh creates a Tanh activation module.
func NewTanh() *Tanh {
	return &Tanh{}
}

// Forward applies the activation.
func (t *Tanh) Forward(input *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Tanh(v)
	}, input)
	t.output = &out
	return &out
}

// Backward scales the incoming gradient by 1−tanh².
func (t *Tanh) Backward(grad *mat.Dense) *mat.Dense {
	if t.output == nil {
		panic("Tanh.Backward: called before Forward")
	}
	var out mat.Dense
	out.Apply(func(i, j int, g float64) float64 {
		y := t.output.At(i, j)
		return g * (1 - y*y)
	}, grad)
	return &out
}

// Parameters returns nil (Tanh has no trainable parameters).
func (t *Tanh) Parameters() []*Parameter {
	return nil
}
