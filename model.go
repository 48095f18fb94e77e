// SPDX-License-Identifier: MIT
// Copyright (c) 2026 coconutbird
// Source: github.com/coconutbird/sevenzip-era

package era

import (
	"runtime"

	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	headerSize = 8       // magic + entry count
	recordSize = 48      // fixed per-entry table record size
	digestSize = 32      // BLAKE3-256 digest of stored chunk bytes
	maxNameLen = 512     // max entry filename length
	maxEntries = 1 << 20 // sanity cap for entry table allocation
)

// Default writer tuning values.
const (
	DefaultMinCompressSize = 512
	DefaultMaxCompressSize = 16 * 1024 * 1024
)

// eraMagic opens every decrypted container image.
var eraMagic = [4]byte{'E', 'R', 'A', '1'}

// CodecID identifies the chunk codec of one stored entry payload.
type CodecID uint32

// Chunk codecs understood by the container.
const (
	// CodecStore marks raw uncompressed chunk bytes.
	CodecStore CodecID = 0
	// CodecDeflate marks raw DEFLATE (RFC 1951) chunk bytes.
	CodecDeflate CodecID = 1
	// CodecLZSS marks legacy LZSS chunk bytes.
	CodecLZSS CodecID = 2
)

// EntryInfo describes a single parsed container entry.
// Entry 0 is the filename table and always has an empty Name.
type EntryInfo struct {
	// Name is the decoded filename; empty when the table holds no name for this entry.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Offset is the absolute chunk offset inside the decrypted image.
	Offset uint32 `json:"offset" yaml:"offset"`
	// ChunkSize is the stored (possibly compressed) payload size in bytes.
	ChunkSize uint32 `json:"chunk_size" yaml:"chunk_size"`
	// DecompressedSize is the full payload size after decoding.
	DecompressedSize uint32 `json:"decompressed_size" yaml:"decompressed_size"`
	// Codec identifies the chunk codec.
	Codec CodecID `json:"codec" yaml:"codec"`
	// Digest is BLAKE3-256 over the stored chunk bytes.
	Digest [digestSize]byte `json:"digest" yaml:"digest"`
}

// IsCompressed reports whether this entry is stored with a compressing codec.
func (e *EntryInfo) IsCompressed() bool {
	return e.Codec != CodecStore
}

// CompressedEntry carries one entry's stored chunk bytes with the metadata
// needed to re-emit it into a new archive without recompression.
type CompressedEntry struct {
	// Data is the stored chunk bytes exactly as kept in the container.
	Data []byte `json:"-" yaml:"-"`
	// DecompressedSize is the full payload size after decoding.
	DecompressedSize uint32 `json:"decompressed_size" yaml:"decompressed_size"`
	// Codec identifies the chunk codec of Data.
	Codec CodecID `json:"codec" yaml:"codec"`
	// Digest is BLAKE3-256 over Data, as stored in the source container.
	Digest [digestSize]byte `json:"digest" yaml:"digest"`
}

// Item is the host-facing descriptor for one archive item.
type Item struct {
	// Name is the item name; never empty, a placeholder is synthesized for nameless entries.
	Name string `json:"name" yaml:"name"`
	// Size is the decompressed payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
	// CompressedSize is the stored chunk size in bytes.
	CompressedSize uint32 `json:"compressed_size" yaml:"compressed_size"`
}

// WriterOptions configures Writer behavior.
type WriterOptions struct {
	// OnEntryDone is called after one staged entry is fully serialized into the image.
	OnEntryDone func(entry EntryInfo) `json:"-" yaml:"-"`
	// Compress defines ordered path rules narrowing the compression candidate set.
	// With no rules every added entry is a candidate.
	Compress []pathrules.Rule `json:"compress,omitempty" yaml:"compress,omitempty"`
	// CompressMatcherOptions control compression path rule matching.
	CompressMatcherOptions pathrules.MatcherOptions `json:"compress_matcher_options,omitzero" yaml:"compress_matcher_options,omitzero"`
	// Codec selects the compressing codec for new content. Default is CodecDeflate.
	Codec CodecID `json:"codec,omitempty" yaml:"codec,omitempty"`
	// MinCompressSize disables compression for entries smaller than this size.
	// Default is 512 bytes.
	MinCompressSize uint32 `json:"min_compress_size,omitempty" yaml:"min_compress_size,omitempty"`
	// MaxCompressSize disables compression for entries larger than this size.
	// Default is 16 MiB.
	MaxCompressSize uint32 `json:"max_compress_size,omitempty" yaml:"max_compress_size,omitempty"`
	// MaxWorkers is the number of parallel compression workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
}

// applyDefaults fills zero-valued writer options with defaults.
func (opts *WriterOptions) applyDefaults() {
	if opts.Codec == CodecStore {
		opts.Codec = CodecDeflate
	}

	if opts.MinCompressSize == 0 {
		opts.MinCompressSize = DefaultMinCompressSize
	}

	if opts.MaxCompressSize == 0 || opts.MaxCompressSize <= opts.MinCompressSize {
		opts.MaxCompressSize = DefaultMaxCompressSize
	}

	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = runtime.GOMAXPROCS(0)
	}

	if opts.CompressMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.CompressMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	if opts.CompressMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.CompressMatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}
