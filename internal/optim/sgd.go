package optim

import (
	"gonum.org/v1/gonum/mat"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/nn"
)

// SGD implements stochastic gradient descent with optional momentum:
//
//	v_t = momentum · v_{t-1} + gradient
//	param = param − lr · v_t
type SGD struct {
	params   []*nn.Parameter
	lr       float64
	momentum float64
	velocity map[*nn.Parameter]*mat.Dense
}

// SGDConfig holds SGD hyperparameters. Zero values fall back to defaults
// (LR 0.01, no momentum).
type SGDConfig struct {
	LR       float64
	Momentum float64
}

// NewSGD creates an SGD optimizer.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		params:   params,
		lr:       config.LR,
		momentum: config.Momentum,
		velocity: make(map[*nn.Parameter]*mat.Dense),
	}
}

// Step applies one SGD update.
func (s *SGD) Step() {
	for _, param := range s.params {
		gradData := param.Grad().RawMatrix().Data
		paramData := param.Value().RawMatrix().Data

		if s.momentum == 0 {
			for i := range paramData {
				paramData[i] -= s.lr * gradData[i]
			}
			continue
		}

		v, ok := s.velocity[param]
		if !ok {
			rows, cols := param.Value().Dims()
			v = mat.NewDense(rows, cols, nil)
			s.velocity[param] = v
		}
		vData := v.RawMatrix().Data
		for i := range paramData {
			vData[i] = s.momentum*vData[i] + gradData[i]
			paramData[i] -= s.lr * vData[i]
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// LR returns the learning rate.
func (s *SGD) LR() float64 {
	return s.lr
}
