package driver

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"oxbow/internal/diag"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
)

// exportSchema changes whenever the Export layout does.
const exportSchema uint16 = 1

// ErrNotFrozen is returned when exporting a crate that is still open.
var ErrNotFrozen = errors.New("crate tables are not frozen")

// TypeEntry is the type of one definition, rendered as source text.
type TypeEntry struct {
	Local uint32 `msgpack:"local" json:"local"`
	Path  string `msgpack:"path" json:"path"`
	Type  string `msgpack:"type" json:"type"`
}

// DiagEntry is a diagnostic without its file id; spans are offsets into
// the crate's own description.
type DiagEntry struct {
	Code     uint16   `msgpack:"code" json:"code"`
	Severity uint8    `msgpack:"sev" json:"severity"`
	Message  string   `msgpack:"msg" json:"message"`
	Start    uint32   `msgpack:"start" json:"start"`
	End      uint32   `msgpack:"end" json:"end"`
	Notes    []string `msgpack:"notes,omitempty" json:"notes,omitempty"`
}

// Export is the serialisable view of a checked crate.
type Export struct {
	Schema      uint16                 `msgpack:"schema" json:"schema"`
	Session     string                 `msgpack:"session" json:"session"`
	Fingerprint Fingerprint            `msgpack:"fp" json:"fingerprint"`
	Crate       mappings.CrateSnapshot `msgpack:"crate" json:"crate"`
	Types       []TypeEntry            `msgpack:"types" json:"types"`
	Diagnostics []DiagEntry            `msgpack:"diags" json:"diagnostics"`
	Aborted     bool                   `msgpack:"aborted" json:"aborted"`
}

// BuildExport snapshots a checked crate. The crate must be frozen so that
// the snapshot cannot go stale.
func BuildExport(res *CrateResult) (*Export, error) {
	if res == nil {
		return nil, errors.New("nil crate result")
	}
	if res.Export != nil {
		return res.Export, nil
	}
	if !res.Maps.IsFrozen(res.Crate) {
		return nil, fmt.Errorf("%w: %s", ErrNotFrozen, res.Name)
	}
	snap, ok := res.Maps.Snapshot(res.Crate)
	if !ok {
		return nil, fmt.Errorf("unknown crate %s", res.Name)
	}
	exp := &Export{
		Schema:  exportSchema,
		Session: res.Session.String(),
		Crate:   snap,
		Aborted: res.Err != nil,
	}
	if res.Types != nil {
		for _, d := range snap.Defs {
			t, ok := res.Types.TypeOf(ids.IrID(d.Ir))
			if !ok {
				continue
			}
			exp.Types = append(exp.Types, TypeEntry{Local: d.Local, Path: d.Path, Type: res.Types.TypeString(t)})
		}
	}
	for _, d := range res.Bag.Items() {
		if d.Code == diag.ObsTimings {
			continue
		}
		e := DiagEntry{
			Code:     uint16(d.Code),
			Severity: uint8(d.Severity),
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, n := range d.Notes {
			e.Notes = append(e.Notes, n.Msg)
		}
		exp.Diagnostics = append(exp.Diagnostics, e)
	}
	return exp, nil
}

// Marshal encodes the export with msgpack.
func (e *Export) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalExport decodes data produced by Marshal.
func UnmarshalExport(data []byte) (*Export, error) {
	var e Export
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	if e.Schema != exportSchema {
		return nil, fmt.Errorf("export schema %d, want %d", e.Schema, exportSchema)
	}
	return &e, nil
}

// restore replays the export's diagnostics into bag, anchoring spans in
// file.
func (e *Export) restore(bag *diag.Bag, file source.FileID) {
	for _, d := range e.Diagnostics {
		out := diag.Diagnostic{
			Severity: diag.Severity(d.Severity),
			Code:     diag.Code(d.Code),
			Message:  d.Message,
			Primary:  source.Span{File: file, Start: d.Start, End: d.End},
		}
		for _, n := range d.Notes {
			out.Notes = append(out.Notes, diag.Note{Span: source.Span{File: file}, Msg: n})
		}
		bag.Add(out)
	}
}
