package nn

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Sequential chains modules: each module's output feeds the next module's
// input, and the backward pass runs in reverse order.
type Sequential struct {
	modules []Module
}

// NewSequential creates a Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{modules: modules}
}

// Forward applies all modules in order.
func (s *Sequential) Forward(input *mat.Dense) *mat.Dense {
	out := input
	for _, m := range s.modules {
		out = m.Forward(out)
	}
	return out
}

// Backward propagates the gradient through all modules in reverse order.
func (s *Sequential) Backward(grad *mat.Dense) *mat.Dense {
	out := grad
	for i := len(s.modules) - 1; i >= 0; i-- {
		out = s.modules[i].Backward(out)
	}
	return out
}

// Parameters returns the parameters of all modules in order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// StateDict returns all stateful module parameters, keyed
// "layers.<index>.<name>".
func (s *Sequential) StateDict() map[string]*mat.Dense {
	state := make(map[string]*mat.Dense)
	for i, m := range s.modules {
		sm, ok := m.(StatefulModule)
		if !ok {
			continue
		}
		for name, value := range sm.StateDict() {
			state[fmt.Sprintf("layers.%d.%s", i, name)] = value
		}
	}
	return state
}

// LoadStateDict distributes prefixed entries to the stateful modules.
func (s *Sequential) LoadStateDict(state map[string]*mat.Dense) error {
	for i, m := range s.modules {
		sm, ok := m.(StatefulModule)
		if !ok {
			continue
		}
		prefix := fmt.Sprintf("layers.%d.", i)
		sub := make(map[string]*mat.Dense)
		for name, value := range state {
			if strings.HasPrefix(name, prefix) {
				sub[strings.TrimPrefix(name, prefix)] = value
			}
		}
		if err := sm.LoadStateDict(sub); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}
