package serialization_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/serialization"
)

func TestContainerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.bin")

	arrays := []serialization.Array{
		serialization.Float64Matrix("weight", 2, 3, []float64{1, 2, 3, 4, 5, 6}),
		serialization.Float64Vector("values", []float64{0.5, -1.25}),
		serialization.Int64Vector("indices", []int64{0, 7, 42}),
	}
	meta := map[string]string{"epoch": "3"}

	require.NoError(t, serialization.Write(path, arrays, meta))

	f, err := serialization.Read(path)
	require.NoError(t, err)

	assert.Equal(t, "3", f.Metadata["epoch"])
	assert.ElementsMatch(t, []string{"weight", "values", "indices"}, f.Names())

	rows, cols, data, err := f.Float64Matrix("weight")
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, data)

	values, err := f.Float64s("values")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -1.25}, values)

	indices, err := f.Int64s("indices")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 7, 42}, indices)
}

func TestContainerDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.bin")

	err := serialization.Write(path, []serialization.Array{
		serialization.Float64Matrix("weight", 2, 3, []float64{1, 2}),
	}, nil)
	require.Error(t, err)
}

func TestContainerChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.bin")

	require.NoError(t, serialization.Write(path, []serialization.Array{
		serialization.Float64Vector("values", []float64{1, 2, 3}),
	}, nil))

	// Flip one payload byte.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-serialization.ChecksumSize-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = serialization.Read(path)
	assert.ErrorIs(t, err, serialization.ErrChecksumMismatch)
}

func TestContainerBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a container at all, just text"), 0o644))

	_, err := serialization.Read(path)
	assert.ErrorIs(t, err, serialization.ErrBadMagic)
}

func TestContainerMissingArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.bin")
	require.NoError(t, serialization.Write(path, []serialization.Array{
		serialization.Float64Vector("values", []float64{1}),
	}, nil))

	f, err := serialization.Read(path)
	require.NoError(t, err)

	_, err = f.Int64s("missing")
	assert.True(t, errors.Is(err, serialization.ErrArrayNotFound))

	// Wrong dtype is also an error.
	_, err = f.Int64s("values")
	assert.Error(t, err)
}
