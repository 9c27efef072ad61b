// Package serialization implements the binary container used for cached
// pipeline artifacts: model checkpoints, the sparse feature matrix, and the
// SVD basis.
//
// File layout:
//
//	magic "QQPF" (4 bytes)
//	format version (uint32, little-endian)
//	header length (uint64, little-endian)
//	JSON header (array metadata + custom metadata)
//	array payloads, in header order, little-endian
//	SHA-256 checksum of everything before it (32 bytes)
//
// The container stores named arrays of two kinds: float64 matrices (with
// explicit row/column dimensions) and int64 vectors. The checksum is verified
// on read, so a truncated or corrupted cache file surfaces as a load error and
// the caller recomputes the artifact.
package serialization
