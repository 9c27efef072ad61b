package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"
)

// Array is a named payload entry.
//
// Exactly one of Float64s and Int64s is populated, matching DType. For
// float64 matrices len(Float64s) must equal Rows*Cols.
type Array struct {
	Name     string
	DType    string
	Rows     int
	Cols     int
	Float64s []float64
	Int64s   []int64
}

// Float64Matrix builds a float64 matrix array.
func Float64Matrix(name string, rows, cols int, data []float64) Array {
	return Array{Name: name, DType: DTypeFloat64, Rows: rows, Cols: cols, Float64s: data}
}

// Float64Vector builds a 1×n float64 array.
func Float64Vector(name string, data []float64) Array {
	return Float64Matrix(name, 1, len(data), data)
}

// Int64Vector builds an int64 vector array.
func Int64Vector(name string, data []int64) Array {
	return Array{Name: name, DType: DTypeInt64, Rows: len(data), Cols: 1, Int64s: data}
}

// Write writes arrays and metadata to path as a container file.
//
// The file is written atomically: content goes to a temporary file in the same
// directory which is renamed into place, so an interrupted write never leaves
// a partial artifact behind for a later load to trip on.
func Write(path string, arrays []Array, metadata map[string]string) error {
	header := Header{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
		Arrays:        make([]ArrayMeta, 0, len(arrays)),
		Metadata:      metadata,
	}

	for _, a := range arrays {
		switch a.DType {
		case DTypeFloat64:
			if len(a.Float64s) != a.Rows*a.Cols {
				return fmt.Errorf("array %q: payload length %d does not match %dx%d",
					a.Name, len(a.Float64s), a.Rows, a.Cols)
			}
		case DTypeInt64:
			if len(a.Int64s) != a.Rows {
				return fmt.Errorf("array %q: payload length %d does not match %d",
					a.Name, len(a.Int64s), a.Rows)
			}
		default:
			return fmt.Errorf("array %q: unknown dtype %q", a.Name, a.DType)
		}
		header.Arrays = append(header.Arrays, ArrayMeta{
			Name: a.Name, DType: a.DType, Rows: a.Rows, Cols: a.Cols,
		})
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(Magic)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return err
	}
	buf.Write(headerJSON)

	for _, a := range arrays {
		switch a.DType {
		case DTypeFloat64:
			for _, v := range a.Float64s {
				if err := binary.Write(&buf, binary.LittleEndian, math.Float64bits(v)); err != nil {
					return err
				}
			}
		case DTypeInt64:
			for _, v := range a.Int64s {
				if err := binary.Write(&buf, binary.LittleEndian, uint64(v)); err != nil {
					return err
				}
			}
		}
	}

	sum := sha256.Sum256(buf.Bytes())
	buf.Write(sum[:])

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}

// File is a parsed container.
type File struct {
	Metadata map[string]string

	arrays map[string]Array
}

// Read reads and verifies a container file.
func Read(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(raw) < len(Magic)+4+8+ChecksumSize {
		return nil, ErrBadMagic
	}
	if string(raw[:len(Magic)]) != Magic {
		return nil, ErrBadMagic
	}

	body := raw[:len(raw)-ChecksumSize]
	var stored [ChecksumSize]byte
	copy(stored[:], raw[len(raw)-ChecksumSize:])
	if sha256.Sum256(body) != stored {
		return nil, ErrChecksumMismatch
	}

	off := len(Magic)
	version := binary.LittleEndian.Uint32(body[off:])
	off += 4
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersionMismatch, version)
	}

	headerLen := binary.LittleEndian.Uint64(body[off:])
	off += 8
	if uint64(len(body)-off) < headerLen {
		return nil, fmt.Errorf("truncated header: want %d bytes, have %d", headerLen, len(body)-off)
	}

	var header Header
	if err := json.Unmarshal(body[off:off+int(headerLen)], &header); err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}
	off += int(headerLen)

	f := &File{
		Metadata: header.Metadata,
		arrays:   make(map[string]Array, len(header.Arrays)),
	}

	for _, meta := range header.Arrays {
		a := Array{Name: meta.Name, DType: meta.DType, Rows: meta.Rows, Cols: meta.Cols}
		switch meta.DType {
		case DTypeFloat64:
			n := meta.Rows * meta.Cols
			if len(body)-off < n*8 {
				return nil, fmt.Errorf("truncated payload for array %q", meta.Name)
			}
			a.Float64s = make([]float64, n)
			for i := range a.Float64s {
				a.Float64s[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[off:]))
				off += 8
			}
		case DTypeInt64:
			if len(body)-off < meta.Rows*8 {
				return nil, fmt.Errorf("truncated payload for array %q", meta.Name)
			}
			a.Int64s = make([]int64, meta.Rows)
			for i := range a.Int64s {
				a.Int64s[i] = int64(binary.LittleEndian.Uint64(body[off:]))
				off += 8
			}
		default:
			return nil, fmt.Errorf("array %q: unknown dtype %q", meta.Name, meta.DType)
		}
		f.arrays[meta.Name] = a
	}

	return f, nil
}

// Names returns the names of all arrays in the file.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.arrays))
	for name := range f.arrays {
		names = append(names, name)
	}
	return names
}

// Float64Matrix returns the named float64 matrix and its dimensions.
func (f *File) Float64Matrix(name string) (rows, cols int, data []float64, err error) {
	a, ok := f.arrays[name]
	if !ok {
		return 0, 0, nil, fmt.Errorf("%w: %q", ErrArrayNotFound, name)
	}
	if a.DType != DTypeFloat64 {
		return 0, 0, nil, fmt.Errorf("array %q has dtype %s, want %s", name, a.DType, DTypeFloat64)
	}
	return a.Rows, a.Cols, a.Float64s, nil
}

// Float64s returns the named float64 array flattened to a vector.
func (f *File) Float64s(name string) ([]float64, error) {
	_, _, data, err := f.Float64Matrix(name)
	return data, err
}

// Int64s returns the named int64 vector.
func (f *File) Int64s(name string) ([]int64, error) {
	a, ok := f.arrays[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrArrayNotFound, name)
	}
	if a.DType != DTypeInt64 {
		return nil, fmt.Errorf("array %q has dtype %s, want %s", name, a.DType, DTypeInt64)
	}
	return a.Int64s, nil
}
