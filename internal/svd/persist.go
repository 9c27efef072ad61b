package svd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/serialization"
)

const arrayVT = "vt"

// Save writes the singular values to valuesPath as a plain text file (one
// value per line) and the right singular vectors to vectorsPath as an
// artifact container. The text file keeps the spectrum inspectable without
// tooling.
func (b *Basis) Save(valuesPath, vectorsPath string) error {
	f, err := os.Create(valuesPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", valuesPath, err)
	}
	w := bufio.NewWriter(f)
	for _, s := range b.S {
		if _, err := fmt.Fprintf(w, "%.18e\n", s); err != nil {
			f.Close()
			return fmt.Errorf("failed to write singular values: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write singular values: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write singular values: %w", err)
	}

	rows, cols := b.VT.Dims()
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		data = append(data, b.VT.RawRowView(i)...)
	}
	if err := serialization.Write(vectorsPath, []serialization.Array{
		serialization.Float64Matrix(arrayVT, rows, cols, data),
	}, nil); err != nil {
		return fmt.Errorf("failed to save singular vectors: %w", err)
	}
	return nil
}

// Load reads a basis previously written by Save and checks that its rank
// matches k; a mismatch is a load failure so the caller recomputes.
func Load(valuesPath, vectorsPath string, k int) (*Basis, error) {
	f, err := os.Open(valuesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", valuesPath, err)
	}
	defer f.Close()

	var values []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("bad singular value %q: %w", line, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read singular values: %w", err)
	}
	if len(values) != k {
		return nil, fmt.Errorf("cached basis has rank %d, want %d", len(values), k)
	}

	container, err := serialization.Read(vectorsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load singular vectors: %w", err)
	}
	rows, cols, data, err := container.Float64Matrix(arrayVT)
	if err != nil {
		return nil, err
	}
	if rows != k {
		return nil, fmt.Errorf("cached singular vectors have rank %d, want %d", rows, k)
	}

	return &Basis{
		S:  values,
		VT: mat.NewDense(rows, cols, data),
	}, nil
}
