// Package annotate rewrites lines of device output, appending the resolved function and
// source location after every address token.
package annotate

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/coral-mesh/mcumon/internal/scanner"
	"github.com/coral-mesh/mcumon/internal/symbols"
)

// Unresolved is the insertion used for addresses that miss the table when
// Options.MarkUnresolved is set.
const Unresolved = "<??>"

// Resolver maps an address to a frame. *symbols.Table implements it.
type Resolver interface {
	Resolve(addr uint64) (symbols.Frame, bool)
}

// Options controls annotation output.
type Options struct {
	// MarkUnresolved inserts " <??>" after addresses the resolver does not know.
	MarkUnresolved bool
	// ShortPaths prints only the base name of source files.
	ShortPaths bool
	// CacheSize bounds the per-address insertion cache. Zero disables caching.
	CacheSize int
	// Style, when set, is applied to every bracketed insertion.
	Style func(string) string
}

// Annotator is safe for concurrent use.
type Annotator struct {
	resolver Resolver
	opts     Options
	cache    *lru.Cache[uint64, string]
}

// New creates an Annotator. A nil resolver behaves like an empty table.
func New(resolver Resolver, opts Options) *Annotator {
	if resolver == nil {
		resolver = symbols.Empty()
	}
	a := &Annotator{resolver: resolver, opts: opts}
	if opts.CacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		a.cache, _ = lru.New[uint64, string](opts.CacheSize)
	}
	return a
}

type insertion struct {
	at   int
	text string
}

// Line returns line with an insertion after each resolvable address. The original text
// is never altered. Addresses already followed by " <" are left alone, so annotating
// annotated output is a no-op.
func (a *Annotator) Line(line string) string {
	var (
		ins   []insertion
		extra int
	)
	for m := range scanner.Scan(line) {
		if strings.HasPrefix(line[m.End:], " <") {
			continue
		}
		text := a.insertion(m.Value)
		if text == "" {
			continue
		}
		ins = append(ins, insertion{at: m.End, text: text})
		extra += len(text)
	}
	if len(ins) == 0 {
		return line
	}

	// Fill from the end so each offset still refers to the original line.
	out := make([]byte, len(line)+extra)
	w, r := len(out), len(line)
	for i := len(ins) - 1; i >= 0; i-- {
		at := ins[i].at
		w -= copy(out[w-(r-at):w], line[at:r])
		r = at
		w -= len(ins[i].text)
		copy(out[w:], ins[i].text)
	}
	copy(out[:w], line[:r])

	return string(out)
}

// insertion returns the text appended after addr, or "" for none.
func (a *Annotator) insertion(addr uint64) string {
	if a.cache != nil {
		if text, ok := a.cache.Get(addr); ok {
			return text
		}
	}

	var text string
	if frame, ok := a.resolver.Resolve(addr); ok {
		text = " " + a.style(a.format(frame))
	} else if a.opts.MarkUnresolved {
		text = " " + a.style(Unresolved)
	}

	if a.cache != nil {
		a.cache.Add(addr, text)
	}
	return text
}

func (a *Annotator) format(frame symbols.Frame) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(frame.Function)
	if frame.File != "" {
		b.WriteString(" at ")
		b.WriteString(a.path(frame.File))
		if frame.Line != 0 {
			b.WriteByte(':')
			b.WriteString(strconv.FormatUint(uint64(frame.Line), 10))
		}
	}
	b.WriteByte('>')
	return b.String()
}

func (a *Annotator) path(file string) string {
	if !a.opts.ShortPaths {
		return file
	}
	// Images built on Windows carry backslash separators.
	if i := strings.LastIndexAny(file, `/\`); i >= 0 {
		return file[i+1:]
	}
	return file
}

func (a *Annotator) style(s string) string {
	if a.opts.Style == nil {
		return s
	}
	return a.opts.Style(s)
}
