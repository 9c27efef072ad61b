package serialization

import "errors"

var (
	// ErrBadMagic indicates the file does not start with the container magic.
	ErrBadMagic = errors.New("serialization: not a container file")

	// ErrVersionMismatch indicates an unsupported format version.
	ErrVersionMismatch = errors.New("serialization: unsupported format version")

	// ErrChecksumMismatch indicates the stored checksum does not match the
	// file contents.
	ErrChecksumMismatch = errors.New("serialization: checksum mismatch")

	// ErrArrayNotFound indicates a requested array is absent from the file.
	ErrArrayNotFound = errors.New("serialization: array not found")
)
