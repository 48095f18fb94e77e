// SPDX-License-Identifier: MIT
// Copyright (c) 2026 coconutbird
// Source: github.com/coconutbird/sevenzip-era

package era

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// Archive provides read-only access to a parsed ERA container.
// The input stream must already be decrypted; wrap the raw source with
// NewDecryptReader before handing it to NewArchive.
type Archive struct {
	// image is the full decrypted container image.
	image []byte
	// entries stores parsed immutable entry metadata, including reserved entry 0.
	entries []EntryInfo
}

// NewArchive reads the decrypted stream to its end and parses the container structure.
// ERA requires whole-file access to decrypt, so partial streams cannot be parsed.
func NewArchive(r io.Reader) (*Archive, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	image, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read archive stream: %w", err)
	}

	return newArchiveFromImage(image)
}

// newArchiveFromImage parses an in-memory decrypted container image.
// The archive keeps a reference to image; callers must not mutate it afterwards.
func newArchiveFromImage(image []byte) (*Archive, error) {
	a := &Archive{image: image}
	if err := a.parse(); err != nil {
		return nil, err
	}

	return a, nil
}

// Count returns the total container entry count, including reserved entry 0.
func (a *Archive) Count() int {
	if a == nil {
		return 0
	}

	return len(a.entries)
}

// Entries returns a copy of parsed entries in container order.
func (a *Archive) Entries() []EntryInfo {
	if a == nil {
		return nil
	}

	entries := make([]EntryInfo, len(a.entries))
	copy(entries, a.entries)
	return entries
}

// ReadEntry returns the full decompressed payload of the entry at pos.
// The stored chunk digest is verified before decoding.
func (a *Archive) ReadEntry(pos int) ([]byte, error) {
	chunk, e, err := a.verifiedChunk(pos)
	if err != nil {
		return nil, err
	}

	data, err := decompressChunk(e.Codec, chunk, e.DecompressedSize)
	if err != nil {
		return nil, fmt.Errorf("decompress entry %d: %w", pos, err)
	}

	return data, nil
}

// ReadEntryCompressed returns the stored chunk bytes of the entry at pos
// together with the metadata needed to re-emit it without recompression.
func (a *Archive) ReadEntryCompressed(pos int) (CompressedEntry, error) {
	chunk, e, err := a.verifiedChunk(pos)
	if err != nil {
		return CompressedEntry{}, err
	}

	data := make([]byte, len(chunk))
	copy(data, chunk)

	return CompressedEntry{
		Data:             data,
		DecompressedSize: e.DecompressedSize,
		Codec:            e.Codec,
		Digest:           e.Digest,
	}, nil
}

// entry resolves a container position with bounds checking.
func (a *Archive) entry(pos int) (*EntryInfo, error) {
	if a == nil {
		return nil, ErrNilReader
	}

	if pos < 0 || pos >= len(a.entries) {
		return nil, fmt.Errorf("%w: position %d of %d", ErrEntryNotFound, pos, len(a.entries))
	}

	return &a.entries[pos], nil
}

// verifiedChunk resolves pos and returns its chunk bytes after digest verification.
func (a *Archive) verifiedChunk(pos int) ([]byte, *EntryInfo, error) {
	e, err := a.entry(pos)
	if err != nil {
		return nil, nil, err
	}

	chunk := a.image[e.Offset : uint64(e.Offset)+uint64(e.ChunkSize)]
	if blake3.Sum256(chunk) != e.Digest {
		return nil, nil, fmt.Errorf("%w: entry %d", ErrDigestMismatch, pos)
	}

	return chunk, e, nil
}

// parse validates the container image and decodes the entry table and filename table.
func (a *Archive) parse() error {
	if len(a.image) < headerSize || !bytes.Equal(a.image[0:4], eraMagic[:]) {
		return fmt.Errorf("%w: missing or bad header", ErrInvalidFormat)
	}

	count := binary.LittleEndian.Uint32(a.image[4:8])
	if count == 0 {
		return fmt.Errorf("%w: missing filename table entry", ErrInvalidFormat)
	}
	if count > maxEntries {
		return fmt.Errorf("%w: entry count %d exceeds limit", ErrInvalidFormat, count)
	}

	tableEnd := uint64(headerSize) + uint64(count)*recordSize
	if tableEnd > uint64(len(a.image)) {
		return fmt.Errorf("%w: entry table truncated", ErrInvalidFormat)
	}

	a.entries = make([]EntryInfo, count)
	for i := range a.entries {
		record := a.image[headerSize+i*recordSize:]
		e := &a.entries[i]
		e.Offset = binary.LittleEndian.Uint32(record[0:4])
		e.ChunkSize = binary.LittleEndian.Uint32(record[4:8])
		e.DecompressedSize = binary.LittleEndian.Uint32(record[8:12])
		e.Codec = CodecID(binary.LittleEndian.Uint32(record[12:16]))
		copy(e.Digest[:], record[16:48])

		if !knownCodec(e.Codec) {
			return fmt.Errorf("%w: entry %d: %w: %d", ErrInvalidFormat, i, ErrUnknownCodec, e.Codec)
		}

		if uint64(e.Offset) < tableEnd {
			return fmt.Errorf("%w: entry %d chunk before data start", ErrInvalidFormat, i)
		}
		if uint64(e.Offset)+uint64(e.ChunkSize) > uint64(len(a.image)) {
			return fmt.Errorf("%w: entry %d chunk out of file bounds", ErrInvalidFormat, i)
		}
	}

	return a.decodeNames()
}

// decodeNames reads reserved entry 0 and assigns filenames to entries 1..n-1.
func (a *Archive) decodeNames() error {
	payload, err := a.ReadEntry(0)
	if err != nil {
		return fmt.Errorf("read filename table: %w", err)
	}

	names, err := decodeNameTable(payload, len(a.entries)-1)
	if err != nil {
		return err
	}

	for i, name := range names {
		a.entries[i+1].Name = name
	}

	return nil
}
