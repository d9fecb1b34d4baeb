// Package dump decodes JSON definition dumps, optionally zstd compressed.
//
// The format is
//
//	{"crate": "demo", "defs": [
//	  {"id": 1, "kind": "module", "name": "", "qualname": "demo", "parent": null, "docs": " Crate docs."},
//	  {"id": 2, "kind": "struct", "name": "Point", "qualname": "demo::Point", "parent": 1, "signature": "pub struct Point"}
//	]}
//
// Children are derived from parent references and keep document order.
package dump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"git.home.luguber.info/inful/doxidize/internal/defs"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type document struct {
	Crate string   `json:"crate"`
	Defs  []record `json:"defs"`
}

type record struct {
	ID        uint64  `json:"id"`
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	QualName  string  `json:"qualname"`
	Parent    *uint64 `json:"parent"`
	Docs      string  `json:"docs"`
	Signature string  `json:"signature"`
}

// Dump is a decoded definition dump.
type Dump struct {
	Crate string
	Index *defs.Index
}

// ReadFile decodes the dump stored at path.
func ReadFile(path string) (*Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read definition dump").
			WithContext("file", path).
			Build()
	}
	return Decode(data)
}

// Decode parses a dump. Input starting with the zstd frame magic is
// decompressed first.
func Decode(data []byte) (*Dump, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		defer dec.Close()
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryMetadata, "corrupt compressed definition dump").Build()
		}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryMetadata, "unexpected JSON in definition dump").Build()
	}
	ix, err := buildIndex(doc.Defs)
	if err != nil {
		return nil, err
	}
	return &Dump{Crate: doc.Crate, Index: ix}, nil
}

// buildIndex inserts records parents first. Records whose parent appears
// later in the document are retried on the next pass.
func buildIndex(recs []record) (*defs.Index, error) {
	ix := defs.NewIndex()
	known := make(map[uint64]bool, len(recs))
	pending := recs
	for len(pending) > 0 {
		var next []record
		for _, r := range pending {
			if r.ID == 0 {
				return nil, ferrors.MetadataError(fmt.Sprintf("definition %q has no id", r.QualName)).Build()
			}
			if r.Parent != nil && !known[*r.Parent] {
				next = append(next, r)
				continue
			}
			d := defs.Definition{
				ID:        defs.ID(r.ID),
				Kind:      defs.ParseKind(r.Kind),
				Name:      r.Name,
				QualName:  r.QualName,
				Docs:      r.Docs,
				Signature: r.Signature,
			}
			if r.Parent != nil {
				d.Parent = defs.ID(*r.Parent)
				d.HasParent = true
			}
			if _, err := ix.Add(d); err != nil {
				return nil, err
			}
			known[r.ID] = true
		}
		if len(next) == len(pending) {
			return nil, ferrors.MetadataError(fmt.Sprintf("definition %d references unknown parent %d", next[0].ID, *next[0].Parent)).
				WithContext("id", next[0].ID).
				Build()
		}
		pending = next
	}
	return ix, nil
}
