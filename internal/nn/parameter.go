package nn

import "gonum.org/v1/gonum/mat"

// Parameter is a trainable value with an accumulated gradient of the same
// shape.
type Parameter struct {
	name  string
	value *mat.Dense
	grad  *mat.Dense
}

// NewParameter creates a parameter around value with a zero gradient.
func NewParameter(name string, value *mat.Dense) *Parameter {
	rows, cols := value.Dims()
	return &Parameter{
		name:  name,
		value: value,
		grad:  mat.NewDense(rows, cols, nil),
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Value returns the parameter value. Optimizers update it in place.
func (p *Parameter) Value() *mat.Dense {
	return p.value
}

// Grad returns the accumulated gradient.
func (p *Parameter) Grad() *mat.Dense {
	return p.grad
}

// AddGrad accumulates delta into the gradient.
func (p *Parameter) AddGrad(delta mat.Matrix) {
	p.grad.Add(p.grad, delta)
}

// ZeroGrad resets the gradient to zero.
func (p *Parameter) ZeroGrad() {
	p.grad.Zero()
}
