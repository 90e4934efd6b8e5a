// Package symbols builds an immutable address-to-function table from a firmware image's
// debug information and answers containment lookups against it.
//
// A Table is constructed once and never mutated afterwards, so it can be shared between
// goroutines without locking.
package symbols

import (
	"errors"
	"math"
	"sort"

	"github.com/coral-mesh/mcumon/internal/safe"
)

var (
	// ErrImageUnreadable is returned when the image file cannot be opened at all.
	ErrImageUnreadable = errors.New("firmware image unreadable")

	// ErrInvalidImage is returned when the file is not a usable object file or its
	// debug information is malformed.
	ErrInvalidImage = errors.New("invalid firmware image")

	// ErrNoDebugInfo is returned when the image carries neither DWARF nor function symbols.
	ErrNoDebugInfo = errors.New("firmware image has no debug information")
)

// Entry is one function-like range of the image.
type Entry struct {
	Start uint64
	Size  uint64
	Name  string
	// File and Line are the declaration location, when known.
	File string
	Line uint32
}

// End returns the exclusive end address. Entries without a range cover exactly Start.
func (e *Entry) End() uint64 {
	size := e.Size
	if size == 0 {
		size = 1
	}
	end, _ := safe.AddUint64(e.Start, size)
	return end
}

// Contains reports whether addr lies inside the entry's range.
func (e *Entry) Contains(addr uint64) bool {
	return addr >= e.Start && addr < e.End()
}

// LineRow is one row of a line-number program.
type LineRow struct {
	Address     uint64
	File        string
	Line        uint32
	EndSequence bool
}

// Frame is the result of resolving an address: the enclosing function and the most
// precise source location known for the address.
type Frame struct {
	Address  uint64
	Function string
	File     string
	Line     uint32
	Entry    *Entry
}

type span struct {
	start uint64
	end   uint64
	entry *Entry
}

type lineRow struct {
	address uint64
	file    uint32
	line    uint32
	end     bool
}

// Table is an immutable, address-ordered symbol table.
type Table struct {
	entries     []Entry
	spans       []span
	rows        []lineRow
	files       []string
	discarded   int
	duplicates  int
	fingerprint uint64
	path        string
}

// Empty returns a table on which every lookup misses.
func Empty() *Table {
	return &Table{}
}

// NewTable builds a table from function entries and line rows. Overlapping entries are
// resolved to the tightest enclosing range: a nested entry wins on its own span and the
// outer entry resumes after it. Exact duplicates keep the first entry given; an entry that
// partially crosses an earlier one is discarded.
func NewTable(entries []Entry, rows []LineRow) *Table {
	t := &Table{
		entries: make([]Entry, len(entries)),
	}
	copy(t.entries, entries)

	sort.SliceStable(t.entries, func(i, j int) bool {
		a, b := &t.entries[i], &t.entries[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End() > b.End()
	})
	t.flatten()

	fileIndex := make(map[string]uint32)
	t.rows = make([]lineRow, 0, len(rows))
	for _, r := range rows {
		idx, ok := fileIndex[r.File]
		if !ok {
			idx = uint32(len(t.files))
			fileIndex[r.File] = idx
			t.files = append(t.files, r.File)
		}
		t.rows = append(t.rows, lineRow{address: r.Address, file: idx, line: r.Line, end: r.EndSequence})
	}
	// End-of-sequence markers sort before a row starting at the same address so that the
	// last row <= addr is the live one.
	sort.SliceStable(t.rows, func(i, j int) bool {
		if t.rows[i].address != t.rows[j].address {
			return t.rows[i].address < t.rows[j].address
		}
		return t.rows[i].end && !t.rows[j].end
	})

	return t
}

// flatten turns the sorted entries into non-overlapping spans.
func (t *Table) flatten() {
	var (
		stack  []*Entry
		cursor uint64
	)

	emit := func(e *Entry, from, to uint64) {
		if from < to {
			t.spans = append(t.spans, span{start: from, end: to, entry: e})
		}
	}

	closeUntil := func(pos uint64) {
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.End() > pos {
				return
			}
			emit(top, cursor, top.End())
			cursor = top.End()
			stack = stack[:len(stack)-1]
		}
	}

	for i := range t.entries {
		e := &t.entries[i]
		closeUntil(e.Start)

		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if e.Start == top.Start && e.End() == top.End() {
				t.duplicates++
				continue
			}
			if e.End() > top.End() {
				t.discarded++
				continue
			}
			emit(top, cursor, e.Start)
		}

		cursor = e.Start
		stack = append(stack, e)
	}
	closeUntil(math.MaxUint64)
}

// Lookup returns the tightest entry containing addr.
func (t *Table) Lookup(addr uint64) (*Entry, bool) {
	i := sort.Search(len(t.spans), func(i int) bool {
		return t.spans[i].start > addr
	}) - 1
	if i < 0 {
		return nil, false
	}
	s := t.spans[i]
	if addr >= s.end {
		return nil, false
	}
	return s.entry, true
}

// Resolve returns the function containing addr together with the source line recorded
// for addr. When the line program has no row inside the function the declaration
// location is used instead.
func (t *Table) Resolve(addr uint64) (Frame, bool) {
	entry, ok := t.Lookup(addr)
	if !ok {
		return Frame{}, false
	}

	frame := Frame{
		Address:  addr,
		Function: entry.Name,
		File:     entry.File,
		Line:     entry.Line,
		Entry:    entry,
	}

	i := sort.Search(len(t.rows), func(i int) bool {
		return t.rows[i].address > addr
	}) - 1
	if i >= 0 {
		row := t.rows[i]
		if !row.end && row.address >= entry.Start && row.line != 0 {
			frame.File = t.files[row.file]
			frame.Line = row.line
		}
	}

	return frame, true
}

// Len returns the number of entries kept after overlap resolution.
func (t *Table) Len() int {
	return len(t.entries) - t.discarded - t.duplicates
}

// Discarded returns the number of entries dropped because they partially crossed an
// earlier entry.
func (t *Table) Discarded() int {
	return t.discarded
}

// Fingerprint returns the xxh3 hash of the image the table was loaded from, or zero for
// tables built in memory.
func (t *Table) Fingerprint() uint64 {
	return t.fingerprint
}

// Path returns the image path, empty for tables built in memory.
func (t *Table) Path() string {
	return t.path
}
