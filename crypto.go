// SPDX-License-Identifier: MIT
// Copyright (c) 2026 coconutbird
// Source: github.com/coconutbird/sevenzip-era

package era

import (
	"crypto/cipher"
	"fmt"
	"io"

	"golang.org/x/crypto/tea"
)

// Keys holds TEA key material for the whole-archive stream transform.
type Keys struct {
	// Key is the 128-bit TEA key.
	Key [16]byte `json:"key" yaml:"key"`
	// IV seeds the CTR keystream; one TEA block wide.
	IV [8]byte `json:"iv" yaml:"iv"`
}

// DefaultArchiveKeys returns the fixed format key schedule.
// ERA uses one format-wide key; there is no per-archive key negotiation.
func DefaultArchiveKeys() Keys {
	return Keys{
		Key: [16]byte{
			0x9e, 0x37, 0x79, 0xb9, 0x7f, 0x4a, 0x7c, 0x15,
			0xf3, 0x9c, 0xc0, 0x60, 0x5c, 0xed, 0xc8, 0x34,
		},
		IV: [8]byte{0x45, 0x52, 0x41, 0x31, 0x9e, 0x37, 0x79, 0xb9},
	}
}

// newArchiveStream builds the TEA-CTR keystream for one full-stream pass.
// CTR keeps the transform symmetric and length-preserving, so encrypted
// output is byte-for-byte as long as the serialized container image.
func newArchiveStream(keys Keys) (cipher.Stream, error) {
	block, err := tea.NewCipher(keys.Key[:])
	if err != nil {
		return nil, fmt.Errorf("init TEA cipher: %w", err)
	}

	return cipher.NewCTR(block, keys.IV[:]), nil
}

// NewDecryptReader wraps r so reads yield the decrypted container stream.
func NewDecryptReader(r io.Reader, keys Keys) (io.Reader, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	stream, err := newArchiveStream(keys)
	if err != nil {
		return nil, err
	}

	return cipher.StreamReader{S: stream, R: r}, nil
}

// NewEncryptWriter wraps w so writes of a decrypted container image emit encrypted bytes.
func NewEncryptWriter(w io.Writer, keys Keys) (io.Writer, error) {
	if w == nil {
		return nil, ErrNilWriter
	}

	stream, err := newArchiveStream(keys)
	if err != nil {
		return nil, err
	}

	return cipher.StreamWriter{S: stream, W: w}, nil
}
