// SPDX-License-Identifier: MIT
// Copyright (c) 2026 coconutbird
// Source: github.com/coconutbird/sevenzip-era

package era

import "errors"

// Sentinel errors for ERA operations. Use errors.Is in callers.
var (
	// ErrInvalidFormat means the source bytes do not parse as an ERA container after decryption.
	ErrInvalidFormat = errors.New("invalid ERA archive")
	// ErrIndexOutOfBounds means the caller supplied an item index with no corresponding item.
	ErrIndexOutOfBounds = errors.New("item index out of bounds")
	// ErrNotOpen means the operation requires an open archive session.
	ErrNotOpen = errors.New("no archive is open")
	// ErrEntryNotFound means the container entry position does not exist.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrDigestMismatch means stored chunk bytes do not match the entry digest.
	ErrDigestMismatch = errors.New("entry digest mismatch")
	// ErrUnknownCodec means the entry chunk codec is not supported.
	ErrUnknownCodec = errors.New("unknown chunk codec")
	// ErrNameTooLong means the entry name exceeds the maximum length.
	ErrNameTooLong = errors.New("entry name exceeds maximum length")
	// ErrInvalidEntryName means the entry name cannot be stored in the filename table.
	ErrInvalidEntryName = errors.New("invalid entry name")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrSizeOverflow means a size exceeds the uint32 container field limit.
	ErrSizeOverflow = errors.New("size exceeds uint32 container limit")
	// ErrInvalidCompressPattern means one or more compression rules are invalid.
	ErrInvalidCompressPattern = errors.New("invalid compress rules")
)
