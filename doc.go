// SPDX-License-Identifier: MIT
// Copyright (c) 2026 coconutbird
// Source: github.com/coconutbird/sevenzip-era

/*
Package era adapts ERA encrypted game archives to a generic archive-manager
plugin contract: enumerate items, extract payloads, and rebuild an archive
from an ordered edit list. It also provides the underlying container reader
and writer plus the TEA stream transform the format is wrapped in.

ERA archives are fully encrypted, so every operation starts from the whole
byte stream; there is no detectable signature and hosts match the format by
extension and class identifier.

# Reading

Open an archive and extract items by index:

	var f era.Format
	if err := f.OpenBytes(data); err != nil {
	    return err
	}
	defer f.Close()
	for i := 0; i < f.ItemCount(); i++ {
	    payload, err := f.Extract(i)
	    if err != nil {
	        return err
	    }
	    // use payload
	}

# Updating

Rebuild an archive, carrying items forward without recompression and adding
new content:

	edits := []era.UpdateItem{
	    era.CopyExisting(0),
	    era.CopyExistingAs(1, "renamed.xml"),
	    era.AddNew("extra.txt", extra),
	}
	var out bytes.Buffer
	if _, err := f.Update(nil, edits, &out); err != nil {
	    return err
	}

Copied items reuse the stored chunk bytes and their integrity digest from
the open source archive; only added content passes through the compressor.

# Container access

The container layer is available directly for tooling that works below the
host contract:

	dr, err := era.NewDecryptReader(bytes.NewReader(data), era.DefaultArchiveKeys())
	if err != nil {
	    return err
	}
	a, err := era.NewArchive(dr)
	if err != nil {
	    return err
	}
	for _, e := range a.Entries() {
	    _ = e
	}

Writer compression (summary):

  - with no WriterOptions.Compress rules every added entry is a candidate;
    rules narrow the candidate set by entry name;
  - final payload size must be within [MinCompressSize, MaxCompressSize];
  - compression is written only when the result is smaller than the source;
  - chunks staged via AddCompressedFile are stored verbatim and their
    digests are trusted, never recomputed.
*/
package era
