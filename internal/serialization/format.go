package serialization

import "time"

// Format constants.
const (
	// Magic identifies a container file.
	Magic = "QQPF"

	// FormatVersion is the current container format version.
	FormatVersion = 1

	// ChecksumSize is the size of the trailing SHA-256 checksum in bytes.
	ChecksumSize = 32
)

// Data type identifiers used in array metadata.
const (
	DTypeFloat64 = "float64"
	DTypeInt64   = "int64"
)

// Header is the JSON header of a container file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	CreatedAt     time.Time         `json:"created_at"`
	Arrays        []ArrayMeta       `json:"arrays"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ArrayMeta describes one named array in the payload.
//
// For float64 matrices Rows and Cols give the dimensions; a vector is stored
// as a 1×n or n×1 matrix. For int64 arrays Rows holds the length and Cols
// is always 1.
type ArrayMeta struct {
	Name  string `json:"name"`
	DType string `json:"dtype"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
}
