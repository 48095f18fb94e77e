// SPDX-License-Identifier: MIT
// Copyright (c) 2026 coconutbird
// Source: github.com/coconutbird/sevenzip-era

package era

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// The filename table is the payload of reserved entry 0: a uint32 name
// count followed by one NUL-terminated UTF-8 name per entry 1..n-1.
// An empty name means the entry has no stored filename.

// validateEntryName checks that name can be stored in the filename table.
func validateEntryName(name string) error {
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(name))
	}

	if strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("%w: embedded NUL in %q", ErrInvalidEntryName, name)
	}

	return nil
}

// encodeNameTable builds the entry 0 payload from names in container order.
func encodeNameTable(names []string) ([]byte, error) {
	var buf bytes.Buffer

	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(len(names)))
	buf.Write(count[:])

	for _, name := range names {
		if err := validateEntryName(name); err != nil {
			return nil, err
		}

		buf.WriteString(name)
		buf.WriteByte(0)
	}

	return buf.Bytes(), nil
}

// decodeNameTable parses the entry 0 payload into names for entries 1..want.
func decodeNameTable(payload []byte, want int) ([]string, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: short name table", ErrInvalidFormat)
	}

	count := binary.LittleEndian.Uint32(payload[0:4])
	if uint64(count) != uint64(want) {
		return nil, fmt.Errorf("%w: name table has %d names for %d entries", ErrInvalidFormat, count, want)
	}

	rest := payload[4:]
	names := make([]string, 0, want)
	for i := 0; i < want; i++ {
		idx := bytes.IndexByte(rest, 0)
		if idx < 0 {
			return nil, fmt.Errorf("%w: truncated name table at name %d", ErrInvalidFormat, i)
		}
		if idx > maxNameLen {
			return nil, fmt.Errorf("%w: name %d is %d bytes", ErrNameTooLong, i, idx)
		}

		names = append(names, string(rest[:idx]))
		rest = rest[idx+1:]
	}

	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after name table", ErrInvalidFormat, len(rest))
	}

	return names, nil
}
