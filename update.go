// SPDX-License-Identifier: MIT
// Copyright (c) 2026 coconutbird
// Source: github.com/coconutbird/sevenzip-era

package era

import (
	"fmt"
	"io"
)

// UpdateKind identifies one update operation variant.
type UpdateKind uint8

const (
	// UpdateCopyExisting emits an existing item's content unchanged, optionally renamed.
	UpdateCopyExisting UpdateKind = iota + 1
	// UpdateAddNew compresses and inserts new content.
	UpdateAddNew
)

// UpdateItem describes one edit operation for Update. Operations are applied
// in list order and the resulting archive's entry order is exactly the edit
// list order.
type UpdateItem struct {
	// Kind selects the operation variant.
	Kind UpdateKind `json:"kind" yaml:"kind"`
	// Index is the external item index of the source item (CopyExisting).
	Index int `json:"index,omitempty" yaml:"index,omitempty"`
	// NewName optionally renames the copied item (CopyExisting); empty keeps the original name.
	NewName string `json:"new_name,omitempty" yaml:"new_name,omitempty"`
	// Name is the new entry name (AddNew).
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Data is the raw payload to compress and insert (AddNew).
	Data []byte `json:"-" yaml:"-"`
}

// CopyExisting builds a copy operation keeping the original item name.
func CopyExisting(index int) UpdateItem {
	return UpdateItem{Kind: UpdateCopyExisting, Index: index}
}

// CopyExistingAs builds a copy operation with a replacement name.
func CopyExistingAs(index int, newName string) UpdateItem {
	return UpdateItem{Kind: UpdateCopyExisting, Index: index, NewName: newName}
}

// AddNew builds an add operation inserting raw content under name.
func AddNew(name string, data []byte) UpdateItem {
	return UpdateItem{Kind: UpdateAddNew, Name: name, Data: data}
}

// Update builds one complete new encrypted archive from the edit list,
// writes it to out, and returns its byte length.
//
// Copy operations reuse the already-compressed chunk bytes and the stored
// digest of the open source container; only added content is compressed.
// When no session is open, the archive is first opened from existing
// (which may be nil if a session is already open). Update either writes one
// coherent archive or propagates the first failure; there is no partial
// success and no mid-operation cancellation.
func (f *Format) Update(existing io.Reader, edits []UpdateItem, out io.Writer) (int64, error) {
	if f == nil {
		return 0, ErrNotOpen
	}

	if out == nil {
		return 0, ErrNilWriter
	}

	if f.archive == nil {
		if existing == nil {
			return 0, ErrNotOpen
		}

		if err := f.Open(existing); err != nil {
			return 0, err
		}
	}

	w, err := NewWriter(WriterOptions{})
	if err != nil {
		return 0, err
	}

	for _, edit := range edits {
		switch edit.Kind {
		case UpdateCopyExisting:
			if err := f.stageCopyExisting(w, edit); err != nil {
				return 0, err
			}
		case UpdateAddNew:
			if err := w.AddFile(edit.Name, edit.Data); err != nil {
				return 0, fmt.Errorf("add entry %s: %w", edit.Name, err)
			}
		default:
			return 0, fmt.Errorf("unknown update operation kind: %d", edit.Kind)
		}
	}

	ew, err := NewEncryptWriter(out, DefaultArchiveKeys())
	if err != nil {
		return 0, err
	}

	n, err := w.Write(ew)
	if err != nil {
		return n, fmt.Errorf("write ERA archive: %w", err)
	}

	return n, nil
}

// stageCopyExisting resolves one copy operation and stages the source chunk
// bytes verbatim, avoiding the decompress-then-recompress round trip.
func (f *Format) stageCopyExisting(w *Writer, edit UpdateItem) error {
	item, err := f.item(edit.Index)
	if err != nil {
		return err
	}

	entry, err := f.archive.ReadEntryCompressed(item.eraIndex)
	if err != nil {
		return fmt.Errorf("read compressed entry %d: %w", item.eraIndex, err)
	}

	// Item names are resolved at open time, including the synthesized
	// placeholder for nameless entries, so the fallback chain ends here.
	name := edit.NewName
	if name == "" {
		name = item.info.Name
	}

	if err := w.AddCompressedFile(name, entry); err != nil {
		return fmt.Errorf("stage entry %s: %w", name, err)
	}

	return nil
}
