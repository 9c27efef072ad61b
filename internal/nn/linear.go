package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation y = x·Wᵀ + b where:
//   - x is the input with shape [batch, inFeatures]
//   - W is the weight matrix with shape [outFeatures, inFeatures]
//   - b is the bias with shape [1, outFeatures], broadcast over the batch
//
// Weights use Xavier/Glorot initialization; biases start at zero.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter
	bias        *Parameter

	input *mat.Dense // cached by Forward for the backward pass
}

// NewLinear creates a Linear layer with seeded initialization.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", Xavier(inFeatures, outFeatures, rng)),
		bias:        NewParameter("bias", mat.NewDense(1, outFeatures, nil)),
	}
}

// Forward computes y = x·Wᵀ + b.
func (l *Linear) Forward(input *mat.Dense) *mat.Dense {
	rows, cols := input.Dims()
	if cols != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, cols))
	}
	l.input = input

	var out mat.Dense
	out.Mul(input, l.weight.Value().T())

	bias := l.bias.Value().RawRowView(0)
	raw := out.RawMatrix()
	for i := 0; i < rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j := range row {
			row[j] += bias[j]
		}
	}
	return &out
}

// Backward accumulates dW = gradᵀ·x and db = column sums of grad, and
// returns dx = grad·W.
func (l *Linear) Backward(grad *mat.Dense) *mat.Dense {
	if l.input == nil {
		panic("Linear.Backward: called before Forward")
	}
	rows, cols := grad.Dims()
	if cols != l.outFeatures {
		panic(fmt.Sprintf("Linear.Backward: expected gradient with %d features, got %d", l.outFeatures, cols))
	}

	var dw mat.Dense
	dw.Mul(grad.T(), l.input)
	l.weight.AddGrad(&dw)

	db := mat.NewDense(1, l.outFeatures, nil)
	dbRow := db.RawRowView(0)
	raw := grad.RawMatrix()
	for i := 0; i < rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j := range row {
			dbRow[j] += row[j]
		}
	}
	l.bias.AddGrad(db)

	var dx mat.Dense
	dx.Mul(grad, l.weight.Value())
	return &dx
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// InFeatures returns the input dimension.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the output dimension.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}

// StateDict returns the layer parameters.
func (l *Linear) StateDict() map[string]*mat.Dense {
	return map[string]*mat.Dense{
		"weight": l.weight.Value(),
		"bias":   l.bias.Value(),
	}
}

// LoadStateDict copies parameter values in, validating shapes.
func (l *Linear) LoadStateDict(state map[string]*mat.Dense) error {
	weight, ok := state["weight"]
	if !ok {
		return fmt.Errorf("missing weight in state dict")
	}
	if r, c := weight.Dims(); r != l.outFeatures || c != l.inFeatures {
		return fmt.Errorf("weight shape mismatch: expected %dx%d, got %dx%d",
			l.outFeatures, l.inFeatures, r, c)
	}

	bias, ok := state["bias"]
	if !ok {
		return fmt.Errorf("missing bias in state dict")
	}
	if r, c := bias.Dims(); r != 1 || c != l.outFeatures {
		return fmt.Errorf("bias shape mismatch: expected 1x%d, got %dx%d", l.outFeatures, r, c)
	}

	l.weight.Value().Copy(weight)
	l.bias.Value().Copy(bias)
	return nil
}
