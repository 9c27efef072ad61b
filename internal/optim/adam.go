package optim

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/nn"
)

// Adam implements the Adam optimizer (Kingma & Ba, 2014):
//
//	m_t = beta1 · m_{t-1} + (1−beta1) · gradient
//	v_t = beta2 · v_{t-1} + (1−beta2) · gradient²
//	m̂ = m_t / (1 − beta1ᵗ)
//	v̂ = v_t / (1 − beta2ᵗ)
//	param = param − lr · m̂ / (sqrt(v̂) + eps)
type Adam struct {
	params []*nn.Parameter
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int // timestep for bias correction
	m      map[*nn.Parameter]*mat.Dense
	v      map[*nn.Parameter]*mat.Dense
}

// AdamConfig holds Adam hyperparameters. Zero values fall back to the usual
// defaults (LR 0.001, betas 0.9/0.999, eps 1e-8).
type AdamConfig struct {
	LR    float64
	Betas [2]float64
	Eps   float64
}

// NewAdam creates an Adam optimizer.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*nn.Parameter]*mat.Dense),
		v:      make(map[*nn.Parameter]*mat.Dense),
	}
}

// Step applies one Adam update with bias correction.
func (a *Adam) Step() {
	a.t++
	biasCorrection1 := 1 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1 - math.Pow(a.beta2, float64(a.t))

	for _, param := range a.params {
		rows, cols := param.Value().Dims()

		m, ok := a.m[param]
		if !ok {
			m = mat.NewDense(rows, cols, nil)
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = mat.NewDense(rows, cols, nil)
			a.v[param] = v
		}

		gradData := param.Grad().RawMatrix().Data
		paramData := param.Value().RawMatrix().Data
		mData := m.RawMatrix().Data
		vData := v.RawMatrix().Data

		for i := range paramData {
			g := gradData[i]
			mData[i] = a.beta1*mData[i] + (1-a.beta1)*g
			vData[i] = a.beta2*vData[i] + (1-a.beta2)*g*g
			mHat := mData[i] / biasCorrection1
			vHat := vData[i] / biasCorrection2
			paramData[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// LR returns the learning rate.
func (a *Adam) LR() float64 {
	return a.lr
}

// Timestep returns the number of updates applied so far.
func (a *Adam) Timestep() int {
	return a.t
}
