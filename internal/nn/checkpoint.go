package nn

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/serialization"
)

// CheckpointInfo carries the training metadata stored alongside model
// parameters.
type CheckpointInfo struct {
	Epoch int
	Loss  float64
}

// SaveCheckpoint writes the model state dict and training metadata to path.
//
// The resulting file can be loaded with LoadCheckpoint into a model of the
// same architecture.
func SaveCheckpoint(path string, model StatefulModule, info CheckpointInfo) error {
	state := model.StateDict()
	arrays := make([]serialization.Array, 0, len(state))
	for name, value := range state {
		rows, cols := value.Dims()
		data := make([]float64, 0, rows*cols)
		for i := 0; i < rows; i++ {
			data = append(data, value.RawRowView(i)...)
		}
		arrays = append(arrays, serialization.Float64Matrix(name, rows, cols, data))
	}

	metadata := map[string]string{
		"epoch": strconv.Itoa(info.Epoch),
		"loss":  strconv.FormatFloat(info.Loss, 'g', -1, 64),
	}
	if err := serialization.Write(path, arrays, metadata); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores model parameters from path.
//
// The model must be pre-constructed with the architecture the checkpoint was
// saved from; shape mismatches surface as errors from LoadStateDict.
func LoadCheckpoint(path string, model StatefulModule) (CheckpointInfo, error) {
	f, err := serialization.Read(path)
	if err != nil {
		return CheckpointInfo{}, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	state := make(map[string]*mat.Dense)
	for _, name := range f.Names() {
		rows, cols, data, err := f.Float64Matrix(name)
		if err != nil {
			return CheckpointInfo{}, err
		}
		state[name] = mat.NewDense(rows, cols, data)
	}
	if err := model.LoadStateDict(state); err != nil {
		return CheckpointInfo{}, fmt.Errorf("failed to load model state: %w", err)
	}

	var info CheckpointInfo
	if s, ok := f.Metadata["epoch"]; ok {
		if info.Epoch, err = strconv.Atoi(s); err != nil {
			return CheckpointInfo{}, fmt.Errorf("bad epoch metadata %q: %w", s, err)
		}
	}
	if s, ok := f.Metadata["loss"]; ok {
		if info.Loss, err = strconv.ParseFloat(s, 64); err != nil {
			return CheckpointInfo{}, fmt.Errorf("bad loss metadata %q: %w", s, err)
		}
	}
	return info, nil
}
