package era

import (
	"bytes"
	"errors"
	"testing"
)

// runUpdate applies edits on an open format and returns the new archive bytes.
func runUpdate(t *testing.T, f *Format, edits []UpdateItem) []byte {
	t.Helper()

	var out bytes.Buffer
	n, err := f.Update(nil, edits, &out)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if n != int64(out.Len()) {
		t.Fatalf("Update returned %d, sink holds %d", n, out.Len())
	}

	return out.Bytes()
}

// TestUpdate_CopyAll_RoundTrip verifies copy-only rebuilds reproduce every payload.
func TestUpdate_CopyAll_RoundTrip(t *testing.T) {
	files := []testFile{
		{"data/terrain.xmb", compressibleData(8 * 1024)},
		{"readme.txt", []byte("short note")},
		{"noise.bin", []byte{0x00, 0xfe, 0x12, 0x7a, 0x51}},
	}

	src := openFormat(t, buildArchive(t, files...))
	defer src.Close()

	edits := make([]UpdateItem, 0, len(files))
	for i := range files {
		edits = append(edits, CopyExisting(i))
	}

	dst := openFormat(t, runUpdate(t, src, edits))
	defer dst.Close()

	if dst.ItemCount() != len(files) {
		t.Fatalf("ItemCount = %d, want %d", dst.ItemCount(), len(files))
	}
	for i, file := range files {
		item, _ := dst.Item(i)
		if item.Name != file.name {
			t.Errorf("item %d: name %q, want %q", i, item.Name, file.name)
		}

		payload, err := dst.Extract(i)
		if err != nil {
			t.Fatalf("Extract(%d): %v", i, err)
		}
		if !bytes.Equal(payload, file.data) {
			t.Errorf("item %d: payload mismatch", i)
		}
	}
}

// TestUpdate_CopyWithoutRecompression verifies copied chunks and digests are
// reused verbatim, observable from the rebuilt container.
func TestUpdate_CopyWithoutRecompression(t *testing.T) {
	data := buildArchive(t, testFile{"big.xmb", compressibleData(16 * 1024)})

	f := openFormat(t, data)
	defer f.Close()

	rebuilt := runUpdate(t, f, []UpdateItem{CopyExisting(0)})

	srcEntry, err := f.archive.ReadEntryCompressed(1)
	if err != nil {
		t.Fatalf("source ReadEntryCompressed: %v", err)
	}
	if srcEntry.Codec != CodecDeflate {
		t.Fatalf("source entry codec %d, want deflate", srcEntry.Codec)
	}

	dst := openFormat(t, rebuilt)
	defer dst.Close()

	dstEntry, err := dst.archive.ReadEntryCompressed(1)
	if err != nil {
		t.Fatalf("rebuilt ReadEntryCompressed: %v", err)
	}

	if !bytes.Equal(dstEntry.Data, srcEntry.Data) {
		t.Error("chunk bytes were recompressed instead of carried")
	}
	if dstEntry.Digest != srcEntry.Digest {
		t.Error("digest was recomputed instead of carried")
	}
	if dstEntry.DecompressedSize != srcEntry.DecompressedSize {
		t.Error("decompressed size mismatch")
	}
}

// TestUpdate_Rename verifies a replacement name changes only the reported name.
func TestUpdate_Rename(t *testing.T) {
	payload := compressibleData(4096)

	src := openFormat(t, buildArchive(t, testFile{"old.xml", payload}))
	defer src.Close()

	dst := openFormat(t, runUpdate(t, src, []UpdateItem{CopyExistingAs(0, "new.xml")}))
	defer dst.Close()

	item, _ := dst.Item(0)
	if item.Name != "new.xml" {
		t.Errorf("name %q, want new.xml", item.Name)
	}

	original, _ := src.Item(0)
	if item.Size != original.Size || item.CompressedSize != original.CompressedSize {
		t.Error("rename changed reported sizes")
	}

	out, err := dst.Extract(0)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Error("rename changed content")
	}
}

// TestUpdate_AddNew verifies new content round trips through the rebuild.
func TestUpdate_AddNew(t *testing.T) {
	src := openFormat(t, buildArchive(t, testFile{"keep.txt", []byte("keep")}))
	defer src.Close()

	added := compressibleData(2048)
	dst := openFormat(t, runUpdate(t, src, []UpdateItem{AddNew("x", added)}))
	defer dst.Close()

	if dst.ItemCount() != 1 {
		t.Fatalf("ItemCount = %d, want 1", dst.ItemCount())
	}

	item, _ := dst.Item(0)
	if item.Name != "x" {
		t.Errorf("name %q, want x", item.Name)
	}

	out, err := dst.Extract(0)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !bytes.Equal(out, added) {
		t.Error("added payload mismatch")
	}
}

// TestUpdate_MixedOrder verifies the result order is exactly the edit list order.
func TestUpdate_MixedOrder(t *testing.T) {
	src := openFormat(t, buildArchive(t,
		testFile{"first.txt", []byte("first payload")},
		testFile{"second.txt", []byte("second payload")},
	))
	defer src.Close()

	dst := openFormat(t, runUpdate(t, src, []UpdateItem{
		CopyExisting(1),
		AddNew("inserted.txt", []byte("inserted payload")),
		CopyExistingAs(0, "moved.txt"),
	}))
	defer dst.Close()

	wantNames := []string{"second.txt", "inserted.txt", "moved.txt"}
	wantData := []string{"second payload", "inserted payload", "first payload"}
	for i := range wantNames {
		item, _ := dst.Item(i)
		if item.Name != wantNames[i] {
			t.Errorf("item %d: name %q, want %q", i, item.Name, wantNames[i])
		}

		payload, err := dst.Extract(i)
		if err != nil {
			t.Fatalf("Extract(%d): %v", i, err)
		}
		if string(payload) != wantData[i] {
			t.Errorf("item %d: payload %q, want %q", i, payload, wantData[i])
		}
	}
}

// TestUpdate_CopyOutOfBounds verifies index validation before any write.
func TestUpdate_CopyOutOfBounds(t *testing.T) {
	f := openFormat(t, buildArchive(t, testFile{"a.txt", []byte("a")}))
	defer f.Close()

	var out bytes.Buffer
	_, err := f.Update(nil, []UpdateItem{CopyExisting(f.ItemCount())}, &out)
	if !errors.Is(err, ErrIndexOutOfBounds) {
		t.Fatalf("got %v, want ErrIndexOutOfBounds", err)
	}
	if out.Len() != 0 {
		t.Errorf("failed update wrote %d bytes to the sink", out.Len())
	}
}

// TestUpdate_NotOpen verifies the session requirement without source bytes.
func TestUpdate_NotOpen(t *testing.T) {
	var f Format
	var out bytes.Buffer

	if _, err := f.Update(nil, nil, &out); !errors.Is(err, ErrNotOpen) {
		t.Errorf("got %v, want ErrNotOpen", err)
	}
}

// TestUpdate_OpensFromExisting verifies update can start from a fresh stream.
func TestUpdate_OpensFromExisting(t *testing.T) {
	data := buildArchive(t, testFile{"a.txt", []byte("from stream")})

	var f Format
	defer f.Close()

	var out bytes.Buffer
	if _, err := f.Update(bytes.NewReader(data), []UpdateItem{CopyExisting(0)}, &out); err != nil {
		t.Fatalf("Update: %v", err)
	}

	dst := openFormat(t, out.Bytes())
	defer dst.Close()

	payload, err := dst.Extract(0)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(payload) != "from stream" {
		t.Errorf("payload %q", payload)
	}
}

// TestUpdate_InvalidSource verifies source parse failures propagate.
func TestUpdate_InvalidSource(t *testing.T) {
	var f Format
	var out bytes.Buffer

	_, err := f.Update(bytes.NewReader([]byte("not an archive at all")), nil, &out)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("got %v, want ErrInvalidFormat", err)
	}
}

// TestUpdate_EmptyEdits verifies an empty edit list yields a valid empty archive.
func TestUpdate_EmptyEdits(t *testing.T) {
	f := openFormat(t, buildArchive(t, testFile{"a.txt", []byte("a")}))
	defer f.Close()

	dst := openFormat(t, runUpdate(t, f, nil))
	defer dst.Close()

	if dst.ItemCount() != 0 {
		t.Errorf("ItemCount = %d, want 0", dst.ItemCount())
	}
}

// TestUpdate_UnknownKind verifies rejection of malformed edit operations.
func TestUpdate_UnknownKind(t *testing.T) {
	f := openFormat(t, buildArchive(t, testFile{"a.txt", []byte("a")}))
	defer f.Close()

	var out bytes.Buffer
	if _, err := f.Update(nil, []UpdateItem{{}}, &out); err == nil {
		t.Fatal("zero-valued edit operation must fail")
	}
}
