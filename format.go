// SPDX-License-Identifier: MIT
// Copyright (c) 2026 coconutbird
// Source: github.com/coconutbird/sevenzip-era

package era

import (
	"bytes"
	"fmt"
	"io"
)

// Static format identity reported to the archive-manager host.
const (
	// FormatName is the host-visible format name.
	FormatName = "ERA"
	// FormatExtension is the archive file extension without the dot.
	FormatExtension = "era"
	// SupportsWrite reports that new archives can be produced.
	SupportsWrite = true
	// SupportsUpdate reports that existing archives can be rebuilt with edits.
	SupportsUpdate = true
)

// ClassID returns the 16-byte binary class identifier for the ERA handler,
// GUID {12345678-ABCD-EF01-2345-6789ABCDEF01} in raw memory layout:
// Data1/Data2/Data3 little-endian followed by the eight Data4 bytes.
// The exact byte sequence is a cross-implementation compatibility contract.
func ClassID() [16]byte {
	return [16]byte{
		0x78, 0x56, 0x34, 0x12, // Data1 little-endian
		0xCD, 0xAB, // Data2 little-endian
		0x01, 0xEF, // Data3 little-endian
		0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF, 0x01, // Data4
	}
}

// Signature returns nil: ERA bytes are uniformly encrypted, so no
// fixed-offset magic exists and hosts must match by extension or identity.
func Signature() []byte {
	return nil
}

// Format adapts one ERA archive to a generic archive-manager host contract:
// enumerate items, extract payloads, and rebuild the archive from an edit
// list. The zero value is ready to use. A Format holds at most one open
// session; the host is expected to serialize lifecycle calls per instance,
// while independent instances need no coordination.
type Format struct {
	// archive is the parsed container of the current session.
	archive *Archive
	// data is the retained raw (encrypted) source bytes of the current session.
	data []byte
	// items maps external item indices to container entry positions.
	items []formatItem
	// size is the physical byte size of the opened archive.
	size int64
}

// formatItem pairs one host-facing descriptor with its container entry position.
// The mapping is kept explicitly instead of assuming "index = position - 1"
// so container variants with additional reserved entries stay representable.
type formatItem struct {
	info Item
	// eraIndex is the originating container entry position.
	eraIndex int
}

// Open reads r to its end and opens the archive from the full byte content.
// ERA requires whole-file access to decrypt, so streams are drained first.
func (f *Format) Open(r io.Reader) error {
	if r == nil {
		return ErrNilReader
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}

	return f.OpenBytes(data)
}

// OpenBytes opens the archive from raw encrypted bytes. Any previously open
// session is discarded first. On failure the session is left empty: state is
// either fully populated or not populated at all.
func (f *Format) OpenBytes(data []byte) error {
	f.Close()

	// Raw bytes are retained for the whole session: update operations need
	// the original stream, not just parsed metadata.
	owned := make([]byte, len(data))
	copy(owned, data)

	dr, err := NewDecryptReader(bytes.NewReader(owned), DefaultArchiveKeys())
	if err != nil {
		return err
	}

	archive, err := NewArchive(dr)
	if err != nil {
		return fmt.Errorf("parse ERA archive: %w", err)
	}

	entries := archive.Entries()
	items := make([]formatItem, 0, len(entries)-1)
	for pos, e := range entries {
		if pos == 0 {
			continue // reserved filename table entry
		}

		name := e.Name
		if name == "" {
			name = fmt.Sprintf("entry_%d", pos)
		}

		items = append(items, formatItem{
			info: Item{
				Name:           name,
				Size:           e.DecompressedSize,
				CompressedSize: e.ChunkSize,
			},
			eraIndex: pos,
		})
	}

	f.archive = archive
	f.data = owned
	f.items = items
	f.size = int64(len(owned))

	return nil
}

// ItemCount returns the number of host-visible items in the open archive.
func (f *Format) ItemCount() int {
	if f == nil {
		return 0
	}

	return len(f.items)
}

// Item returns the descriptor of the item at index.
func (f *Format) Item(index int) (Item, bool) {
	if f == nil || index < 0 || index >= len(f.items) {
		return Item{}, false
	}

	return f.items[index].info, true
}

// Items returns a copy of all host-visible item descriptors in order.
func (f *Format) Items() []Item {
	if f == nil {
		return nil
	}

	out := make([]Item, len(f.items))
	for i := range f.items {
		out[i] = f.items[i].info
	}

	return out
}

// PhysicalSize returns the byte size of the currently open archive.
func (f *Format) PhysicalSize() int64 {
	if f == nil {
		return 0
	}

	return f.size
}

// Extract returns the full decompressed payload of the item at index.
// There are no partial results: extraction either yields the complete
// payload or fails.
func (f *Format) Extract(index int) ([]byte, error) {
	if f == nil || f.archive == nil {
		return nil, ErrNotOpen
	}

	item, err := f.item(index)
	if err != nil {
		return nil, err
	}

	data, err := f.archive.ReadEntry(item.eraIndex)
	if err != nil {
		return nil, fmt.Errorf("read entry %d: %w", item.eraIndex, err)
	}

	return data, nil
}

// item resolves an external item index against the index table.
func (f *Format) item(index int) (*formatItem, error) {
	if index < 0 || index >= len(f.items) {
		return nil, fmt.Errorf("%w: index %d, count %d", ErrIndexOutOfBounds, index, len(f.items))
	}

	return &f.items[index], nil
}

// Close releases the container handle, the retained raw bytes, and the item
// table. It is safe to call repeatedly and after a failed Open.
func (f *Format) Close() {
	if f == nil {
		return
	}

	f.archive = nil
	f.data = nil
	f.items = nil
	f.size = 0
}
