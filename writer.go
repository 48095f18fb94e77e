// SPDX-License-Identifier: MIT
// Copyright (c) 2026 coconutbird
// Source: github.com/coconutbird/sevenzip-era

package era

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"
)

// pendingEntry stores one staged writer entry before serialization.
type pendingEntry struct {
	name string
	// raw is the uncompressed payload for add-path entries; nil once encoded.
	raw []byte
	// chunk is the final stored payload bytes.
	chunk            []byte
	decompressedSize uint32
	codec            CodecID
	digest           [digestSize]byte
	// precompressed marks chunks taken verbatim from a source container.
	precompressed bool
	// candidate marks add-path entries selected for compression.
	candidate bool
}

// Writer stages entries and serializes one complete container image.
// Entries appear in the output in the order they were added; the filename
// table (reserved entry 0) is maintained implicitly.
type Writer struct {
	opts    WriterOptions
	matcher *compressMatcher
	pending []pendingEntry
}

// NewWriter creates a writer for a new ERA container.
func NewWriter(opts WriterOptions) (*Writer, error) {
	opts.applyDefaults()

	matcher, err := newCompressMatcher(opts.Compress, opts.CompressMatcherOptions)
	if err != nil {
		return nil, fmt.Errorf("compile compress rules: %w", err)
	}

	return &Writer{opts: opts, matcher: matcher}, nil
}

// AddFile stages new raw content. Compression and digest computation are
// deferred to Write, where independent entries are encoded in parallel.
func (w *Writer) AddFile(name string, data []byte) error {
	if w == nil {
		return ErrNilWriter
	}

	if err := validateEntryName(name); err != nil {
		return err
	}

	if int64(len(data)) > int64(math.MaxUint32) {
		return fmt.Errorf("%w: entry %s is %d bytes", ErrSizeOverflow, name, len(data))
	}

	raw := make([]byte, len(data))
	copy(raw, data)

	size := uint32(len(raw))
	w.pending = append(w.pending, pendingEntry{
		name:             name,
		raw:              raw,
		decompressedSize: size,
		candidate:        w.matcher.Match(name) && shouldCompressBySize(w.opts, size),
	})

	return nil
}

// AddCompressedFile stages an already-encoded chunk from a source container.
// The supplied digest is trusted as-is: recomputing it would require
// decompression, which this path exists to avoid.
func (w *Writer) AddCompressedFile(name string, entry CompressedEntry) error {
	if w == nil {
		return ErrNilWriter
	}

	if err := validateEntryName(name); err != nil {
		return err
	}

	if !knownCodec(entry.Codec) {
		return fmt.Errorf("%w: %d", ErrUnknownCodec, entry.Codec)
	}

	if int64(len(entry.Data)) > int64(math.MaxUint32) {
		return fmt.Errorf("%w: entry %s chunk is %d bytes", ErrSizeOverflow, name, len(entry.Data))
	}

	chunk := make([]byte, len(entry.Data))
	copy(chunk, entry.Data)

	w.pending = append(w.pending, pendingEntry{
		name:             name,
		chunk:            chunk,
		decompressedSize: entry.DecompressedSize,
		codec:            entry.Codec,
		digest:           entry.Digest,
		precompressed:    true,
	})

	return nil
}

// Write serializes the staged container image into out and returns the byte
// count. The image is decrypted; wrap out with NewEncryptWriter to produce a
// final archive. The writer must not be reused after Write.
func (w *Writer) Write(out io.Writer) (int64, error) {
	if w == nil || out == nil {
		return 0, ErrNilWriter
	}

	if err := w.encodePending(); err != nil {
		return 0, err
	}

	table, err := w.nameTableEntry()
	if err != nil {
		return 0, err
	}

	image, entries, err := assembleImage(table, w.pending)
	if err != nil {
		return 0, err
	}

	if w.opts.OnEntryDone != nil {
		// Skip reserved entry 0: it is bookkeeping, not caller content.
		for _, e := range entries[1:] {
			w.opts.OnEntryDone(e)
		}
	}

	n, err := out.Write(image)
	if err != nil {
		return int64(n), fmt.Errorf("write container image: %w", err)
	}
	if n != len(image) {
		return int64(n), io.ErrShortWrite
	}

	return int64(n), nil
}

// encodePending compresses add-path candidates and fills chunk bytes and
// digests for all staged entries. Candidates are encoded concurrently.
func (w *Writer) encodePending() error {
	g := new(errgroup.Group)
	g.SetLimit(w.opts.MaxWorkers)

	for i := range w.pending {
		p := &w.pending[i]
		if p.precompressed {
			continue
		}

		g.Go(func() error {
			return w.encodeEntry(p)
		})
	}

	return g.Wait()
}

// encodeEntry finalizes chunk bytes, codec, and digest for one add-path entry.
// Compression is kept only when it actually shrinks the payload.
func (w *Writer) encodeEntry(p *pendingEntry) error {
	p.chunk = p.raw
	p.codec = CodecStore

	if p.candidate {
		compressed, err := compressChunk(w.opts.Codec, p.raw)
		if err != nil {
			return fmt.Errorf("compress entry %s: %w", p.name, err)
		}

		if len(compressed) < len(p.raw) {
			p.chunk = compressed
			p.codec = w.opts.Codec
		}
	}

	p.digest = blake3.Sum256(p.chunk)
	p.raw = nil

	return nil
}

// nameTableEntry builds and encodes the reserved entry 0 payload.
// The table is always a deflate candidate regardless of compress rules.
func (w *Writer) nameTableEntry() (pendingEntry, error) {
	names := make([]string, len(w.pending))
	for i := range w.pending {
		names[i] = w.pending[i].name
	}

	payload, err := encodeNameTable(names)
	if err != nil {
		return pendingEntry{}, err
	}

	table := pendingEntry{
		chunk:            payload,
		decompressedSize: uint32(len(payload)),
		codec:            CodecStore,
	}

	compressed, err := deflateCompress(payload)
	if err != nil {
		return pendingEntry{}, fmt.Errorf("compress filename table: %w", err)
	}
	if len(compressed) < len(payload) {
		table.chunk = compressed
		table.codec = CodecDeflate
	}

	table.digest = blake3.Sum256(table.chunk)

	return table, nil
}

// assembleImage lays out header, entry table, and chunk payloads into one
// decrypted container image and returns the final entry metadata.
func assembleImage(table pendingEntry, pending []pendingEntry) ([]byte, []EntryInfo, error) {
	all := make([]*pendingEntry, 0, len(pending)+1)
	all = append(all, &table)
	for i := range pending {
		all = append(all, &pending[i])
	}

	if len(all) > maxEntries {
		return nil, nil, fmt.Errorf("%w: %d entries exceed table limit", ErrSizeOverflow, len(all))
	}

	total := uint64(headerSize) + uint64(len(all))*recordSize
	for _, p := range all {
		total += uint64(len(p.chunk))
	}
	if total > uint64(math.MaxUint32) {
		return nil, nil, fmt.Errorf("%w: image size %d", ErrSizeOverflow, total)
	}

	image := make([]byte, 0, total)
	image = append(image, eraMagic[:]...)
	image = binary.LittleEndian.AppendUint32(image, uint32(len(all)))

	entries := make([]EntryInfo, len(all))
	offset := uint32(headerSize + len(all)*recordSize) //nolint:gosec // bounded by total check above
	for i, p := range all {
		entries[i] = EntryInfo{
			Name:             p.name,
			Offset:           offset,
			ChunkSize:        uint32(len(p.chunk)), //nolint:gosec // bounded at Add time
			DecompressedSize: p.decompressedSize,
			Codec:            p.codec,
			Digest:           p.digest,
		}

		image = binary.LittleEndian.AppendUint32(image, entries[i].Offset)
		image = binary.LittleEndian.AppendUint32(image, entries[i].ChunkSize)
		image = binary.LittleEndian.AppendUint32(image, entries[i].DecompressedSize)
		image = binary.LittleEndian.AppendUint32(image, uint32(entries[i].Codec))
		image = append(image, entries[i].Digest[:]...)

		offset += entries[i].ChunkSize
	}

	for _, p := range all {
		image = append(image, p.chunk...)
	}

	return image, entries, nil
}
