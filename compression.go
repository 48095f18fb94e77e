// SPDX-License-Identifier: MIT
// Copyright (c) 2026 coconutbird
// Source: github.com/coconutbird/sevenzip-era

package era

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/woozymasta/lzss"
	"github.com/woozymasta/pathrules"
)

// compressChunk encodes raw payload bytes with the selected codec.
func compressChunk(codec CodecID, data []byte) ([]byte, error) {
	switch codec {
	case CodecDeflate:
		return deflateCompress(data)
	case CodecLZSS:
		return lzss.Compress(data, lzss.DefaultCompressOptions())
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, codec)
	}
}

// decompressChunk decodes stored chunk bytes and enforces the expected payload size.
func decompressChunk(codec CodecID, chunk []byte, decompressedSize uint32) ([]byte, error) {
	switch codec {
	case CodecStore:
		if uint32(len(chunk)) != decompressedSize {
			return nil, fmt.Errorf("%w: stored chunk is %d bytes, expected %d", ErrInvalidFormat, len(chunk), decompressedSize)
		}

		out := make([]byte, len(chunk))
		copy(out, chunk)
		return out, nil
	case CodecDeflate:
		return deflateDecompress(chunk, decompressedSize)
	case CodecLZSS:
		return lzssDecompress(chunk, decompressedSize)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, codec)
	}
}

// knownCodec reports whether codec is one the container can decode.
func knownCodec(codec CodecID) bool {
	switch codec {
	case CodecStore, CodecDeflate, CodecLZSS:
		return true
	default:
		return false
	}
}

// deflateCompress encodes data as raw DEFLATE.
func deflateCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("init deflate writer: %w", err)
	}

	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("deflate write: %w", err)
	}

	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("deflate close: %w", err)
	}

	return buf.Bytes(), nil
}

// deflateDecompress decodes a raw DEFLATE chunk into exactly decompressedSize bytes.
func deflateDecompress(chunk []byte, decompressedSize uint32) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(chunk))
	defer func() { _ = fr.Close() }()

	dst := make([]byte, decompressedSize)
	if _, err := io.ReadFull(fr, dst); err != nil {
		return nil, fmt.Errorf("%w: deflate chunk shorter than declared size: %w", ErrInvalidFormat, err)
	}

	// Probe one byte to ensure the chunk does not decode past the declared size.
	var probe [1]byte
	if n, _ := fr.Read(probe[:]); n > 0 {
		return nil, fmt.Errorf("%w: deflate chunk decodes past %d bytes", ErrInvalidFormat, decompressedSize)
	}

	return dst, nil
}

// lzssDecompress decodes a legacy LZSS chunk into exactly decompressedSize bytes.
func lzssDecompress(chunk []byte, decompressedSize uint32) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(decompressedSize))

	if _, err := lzss.DecompressToWriter(&buf, bytes.NewReader(chunk), int(decompressedSize), nil); err != nil {
		return nil, fmt.Errorf("lzss read: %w", err)
	}

	if uint32(buf.Len()) != decompressedSize {
		return nil, fmt.Errorf("%w: lzss chunk decoded to %d bytes, expected %d", ErrInvalidFormat, buf.Len(), decompressedSize)
	}

	return buf.Bytes(), nil
}

// compressMatcher holds compiled path rules narrowing the compression candidate set.
type compressMatcher struct {
	matcher *pathrules.Matcher
}

// newCompressMatcher compiles compression path rules.
// A nil matcher means no rules were given and every entry is a candidate.
func newCompressMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*compressMatcher, error) {
	rules = normalizeCompressRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidCompressPattern, err)
	}

	return &compressMatcher{matcher: matcher}, nil
}

// normalizeCompressRules normalizes rule patterns and drops empty patterns.
func normalizeCompressRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizeNameForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether name is included by at least one compress rule.
// Nameless entries never match explicit rules.
func (m *compressMatcher) Match(name string) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	candidate := normalizeNameForMatching(name)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}

// normalizeNameForMatching normalizes entry names for matcher use.
func normalizeNameForMatching(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, `\`, `/`)
	return strings.TrimPrefix(name, "./")
}

// shouldCompressBySize reports whether payload size fits compression boundaries.
func shouldCompressBySize(opts WriterOptions, size uint32) bool {
	if size > opts.MaxCompressSize || size < opts.MinCompressSize {
		return false
	}

	return true
}
