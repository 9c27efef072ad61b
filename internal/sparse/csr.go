// Package sparse implements a compressed sparse row matrix for the TF-IDF
// feature pipeline.
//
// The matrix supports exactly the operations the pipeline needs: row-wise
// construction, dense products from the left and from the transpose, and
// persistence through the artifact container. It is not a general sparse
// linear-algebra library.
package sparse

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/serialization"
)

// CSR is a compressed sparse row matrix.
//
// Invariants:
//   - len(indptr) == rows+1, indptr[0] == 0, indptr is non-decreasing
//   - len(indices) == len(data) == indptr[rows]
//   - column indices within each row are in [0, cols)
type CSR struct {
	rows    int
	cols    int
	indptr  []int64
	indices []int64
	data    []float64
}

// New constructs a CSR matrix from raw components, validating the invariants.
func New(rows, cols int, indptr, indices []int64, data []float64) (*CSR, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("negative dimensions %dx%d", rows, cols)
	}
	if len(indptr) != rows+1 {
		return nil, fmt.Errorf("indptr length %d, want %d", len(indptr), rows+1)
	}
	if indptr[0] != 0 {
		return nil, fmt.Errorf("indptr[0] = %d, want 0", indptr[0])
	}
	for i := 1; i < len(indptr); i++ {
		if indptr[i] < indptr[i-1] {
			return nil, fmt.Errorf("indptr decreases at %d", i)
		}
	}
	nnz := int(indptr[rows])
	if len(indices) != nnz || len(data) != nnz {
		return nil, fmt.Errorf("nnz mismatch: indptr says %d, indices %d, data %d",
			nnz, len(indices), len(data))
	}
	for _, j := range indices {
		if j < 0 || j >= int64(cols) {
			return nil, fmt.Errorf("column index %d out of range [0, %d)", j, cols)
		}
	}
	return &CSR{rows: rows, cols: cols, indptr: indptr, indices: indices, data: data}, nil
}

// Builder assembles a CSR matrix one row at a time.
type Builder struct {
	cols    int
	indptr  []int64
	indices []int64
	data    []float64
}

// NewBuilder creates a builder for a matrix with the given column count.
func NewBuilder(cols int) *Builder {
	return &Builder{cols: cols, indptr: []int64{0}}
}

// AppendRow appends a row given its non-zero column indices and values.
// Indices must be valid; duplicate handling is the caller's concern.
func (b *Builder) AppendRow(indices []int, values []float64) {
	if len(indices) != len(values) {
		panic(fmt.Sprintf("sparse: AppendRow got %d indices and %d values", len(indices), len(values)))
	}
	for i, j := range indices {
		if j < 0 || j >= b.cols {
			panic(fmt.Sprintf("sparse: column index %d out of range [0, %d)", j, b.cols))
		}
		b.indices = append(b.indices, int64(j))
		b.data = append(b.data, values[i])
	}
	b.indptr = append(b.indptr, int64(len(b.data)))
}

// Build returns the assembled matrix.
func (b *Builder) Build() *CSR {
	return &CSR{
		rows:    len(b.indptr) - 1,
		cols:    b.cols,
		indptr:  b.indptr,
		indices: b.indices,
		data:    b.data,
	}
}

// Dims returns the matrix dimensions.
func (m *CSR) Dims() (rows, cols int) {
	return m.rows, m.cols
}

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int {
	return len(m.data)
}

// Row returns the non-zero column indices and values of row i.
// The returned slices alias internal storage.
func (m *CSR) Row(i int) (indices []int64, values []float64) {
	if i < 0 || i >= m.rows {
		panic(fmt.Sprintf("sparse: row %d out of range [0, %d)", i, m.rows))
	}
	start, end := m.indptr[i], m.indptr[i+1]
	return m.indices[start:end], m.data[start:end]
}

// MulDense computes A·B where A is this rows×cols matrix and B is cols×k.
func (m *CSR) MulDense(b *mat.Dense) *mat.Dense {
	br, bc := b.Dims()
	if br != m.cols {
		panic(fmt.Sprintf("sparse: MulDense dimension mismatch %dx%d · %dx%d", m.rows, m.cols, br, bc))
	}
	out := mat.NewDense(m.rows, bc, nil)
	outData := out.RawMatrix().Data
	bData := b.RawMatrix().Data
	bStride := b.RawMatrix().Stride
	for i := 0; i < m.rows; i++ {
		rowOut := outData[i*bc : (i+1)*bc]
		for p := m.indptr[i]; p < m.indptr[i+1]; p++ {
			j := m.indices[p]
			v := m.data[p]
			bRow := bData[int(j)*bStride : int(j)*bStride+bc]
			for c, bv := range bRow {
				rowOut[c] += v * bv
			}
		}
	}
	return out
}

// TMulDense computes Aᵀ·B where A is this rows×cols matrix and B is rows×k.
func (m *CSR) TMulDense(b *mat.Dense) *mat.Dense {
	br, bc := b.Dims()
	if br != m.rows {
		panic(fmt.Sprintf("sparse: TMulDense dimension mismatch %dx%d ᵀ· %dx%d", m.rows, m.cols, br, bc))
	}
	out := mat.NewDense(m.cols, bc, nil)
	outData := out.RawMatrix().Data
	bData := b.RawMatrix().Data
	bStride := b.RawMatrix().Stride
	for i := 0; i < m.rows; i++ {
		bRow := bData[i*bStride : i*bStride+bc]
		for p := m.indptr[i]; p < m.indptr[i+1]; p++ {
			j := int(m.indices[p])
			v := m.data[p]
			outRow := outData[j*bc : (j+1)*bc]
			for c, bv := range bRow {
				outRow[c] += v * bv
			}
		}
	}
	return out
}

// ToDense expands the matrix into a dense gonum matrix. Intended for tests
// and small matrices only.
func (m *CSR) ToDense() *mat.Dense {
	out := mat.NewDense(m.rows, m.cols, nil)
	for i := 0; i < m.rows; i++ {
		for p := m.indptr[i]; p < m.indptr[i+1]; p++ {
			out.Set(i, int(m.indices[p]), m.data[p])
		}
	}
	return out
}

// Container array names for persistence.
const (
	arrayShape   = "shape"
	arrayIndptr  = "indptr"
	arrayIndices = "indices"
	arrayData    = "data"
)

// Save writes the matrix to path as an artifact container.
func (m *CSR) Save(path string) error {
	arrays := []serialization.Array{
		serialization.Int64Vector(arrayShape, []int64{int64(m.rows), int64(m.cols)}),
		serialization.Int64Vector(arrayIndptr, m.indptr),
		serialization.Int64Vector(arrayIndices, m.indices),
		serialization.Float64Vector(arrayData, m.data),
	}
	if err := serialization.Write(path, arrays, nil); err != nil {
		return fmt.Errorf("failed to save sparse matrix: %w", err)
	}
	return nil
}

// Load reads a matrix previously written by Save.
func Load(path string) (*CSR, error) {
	f, err := serialization.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load sparse matrix: %w", err)
	}
	shape, err := f.Int64s(arrayShape)
	if err != nil {
		return nil, err
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("bad shape array length %d", len(shape))
	}
	indptr, err := f.Int64s(arrayIndptr)
	if err != nil {
		return nil, err
	}
	indices, err := f.Int64s(arrayIndices)
	if err != nil {
		return nil, err
	}
	data, err := f.Float64s(arrayData)
	if err != nil {
		return nil, err
	}
	return New(int(shape[0]), int(shape[1]), indptr, indices, data)
}
