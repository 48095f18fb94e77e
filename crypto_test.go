package era

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// TestEncryptDecrypt_RoundTrip verifies the stream transform is symmetric
// and length-preserving, including non-block-multiple lengths.
func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	lengths := []int{0, 1, 7, 8, 9, 63, 64, 1021}
	for _, n := range lengths {
		plain := make([]byte, n)
		for i := range plain {
			plain[i] = byte(i * 31)
		}

		var encrypted bytes.Buffer
		ew, err := NewEncryptWriter(&encrypted, DefaultArchiveKeys())
		if err != nil {
			t.Fatalf("NewEncryptWriter: %v", err)
		}
		if _, err := ew.Write(plain); err != nil {
			t.Fatalf("encrypt write: %v", err)
		}

		if encrypted.Len() != n {
			t.Fatalf("length %d: encrypted %d bytes", n, encrypted.Len())
		}
		if n > 0 && bytes.Equal(encrypted.Bytes(), plain) {
			t.Errorf("length %d: encrypted bytes equal plaintext", n)
		}

		dr, err := NewDecryptReader(bytes.NewReader(encrypted.Bytes()), DefaultArchiveKeys())
		if err != nil {
			t.Fatalf("NewDecryptReader: %v", err)
		}
		decrypted, err := io.ReadAll(dr)
		if err != nil {
			t.Fatalf("decrypt read: %v", err)
		}
		if !bytes.Equal(decrypted, plain) {
			t.Errorf("length %d: round trip mismatch", n)
		}
	}
}

// TestDefaultArchiveKeys_Stable verifies the format key schedule is a constant.
func TestDefaultArchiveKeys_Stable(t *testing.T) {
	if DefaultArchiveKeys() != DefaultArchiveKeys() {
		t.Fatal("DefaultArchiveKeys is not stable")
	}
}

// TestCryptoWrappers_NilArgs verifies nil stream guards.
func TestCryptoWrappers_NilArgs(t *testing.T) {
	if _, err := NewDecryptReader(nil, DefaultArchiveKeys()); !errors.Is(err, ErrNilReader) {
		t.Errorf("NewDecryptReader(nil): got %v", err)
	}
	if _, err := NewEncryptWriter(nil, DefaultArchiveKeys()); !errors.Is(err, ErrNilWriter) {
		t.Errorf("NewEncryptWriter(nil): got %v", err)
	}
}
