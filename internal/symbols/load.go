package symbols

import (
	"debug/dwarf"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"github.com/coral-mesh/mcumon/internal/safe"
)

// LoadOptions controls how an image is turned into a Table.
type LoadOptions struct {
	Demangle DemangleStyle
}

// Load reads a firmware image and builds its symbol table.
//
// Function ranges come from DWARF subprogram and inlined-subroutine records, then from
// STT_FUNC entries of the ELF symbol table; line rows come from every compilation unit's
// line program. The returned error wraps ErrImageUnreadable when the file cannot be
// opened, ErrInvalidImage when it is not a readable ELF image, and ErrNoDebugInfo when
// no function information is present.
func Load(path string, opts LoadOptions, logger zerolog.Logger) (*Table, error) {
	logger = logger.With().Str("component", "symbols").Str("image", path).Logger()

	f, err := os.Open(path) // #nosec G304: path is supplied by the user on purpose.
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageUnreadable, err)
	}
	defer f.Close() // nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageUnreadable, err)
	}

	hasher := xxh3.New()
	if _, err := io.Copy(hasher, io.NewSectionReader(f, 0, info.Size())); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageUnreadable, err)
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	var (
		entries []Entry
		rows    []LineRow
	)

	dw, err := ef.DWARF()
	if err != nil {
		logger.Debug().Err(err).Msg("DWARF debug info not available, using symbol table only")
	} else {
		r := &dwarfReader{dw: dw, style: opts.Demangle, origins: make(map[dwarf.Offset]*dwarf.Entry)}
		if err := r.read(); err != nil {
			return nil, fmt.Errorf("%w: malformed DWARF: %w", ErrInvalidImage, err)
		}
		entries, rows = r.entries, r.rows
	}

	elfSyms, err := ef.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		logger.Debug().Err(err).Msg("Symbol table not readable")
	}
	entries = append(entries, functionSymbols(ef.Machine, elfSyms, opts.Demangle)...)

	if len(entries) == 0 {
		return nil, ErrNoDebugInfo
	}

	t := NewTable(entries, rows)
	t.fingerprint = hasher.Sum64()
	t.path = path

	logger.Info().
		Str("size", humanize.Bytes(uint64(info.Size()))). // #nosec G115: file sizes are non-negative
		Int("functions", t.Len()).
		Int("line_rows", len(t.rows)).
		Str("fingerprint", fmt.Sprintf("%016x", t.fingerprint)).
		Msg("Loaded firmware symbols")

	if t.Discarded() > 0 {
		logger.Warn().
			Int("discarded", t.Discarded()).
			Msg("Discarded function ranges that partially overlap earlier ones")
	}

	return t, nil
}

// functionSymbols converts STT_FUNC symbols into entries. Symbols without a size cover
// only their entry address.
func functionSymbols(machine elf.Machine, syms []elf.Symbol, style DemangleStyle) []Entry {
	var entries []Entry
	for _, sym := range syms {
		if elf.ST_TYPE(sym.Info) != elf.STT_FUNC || sym.Value == 0 || sym.Section == elf.SHN_UNDEF {
			continue
		}
		start := sym.Value
		if machine == elf.EM_ARM {
			// Thumb function symbols carry the mode in bit 0.
			start &^= 1
		}
		entries = append(entries, Entry{
			Start: start,
			Size:  sym.Size,
			Name:  style.Demangle(sym.Name),
		})
	}
	return entries
}

type dwarfReader struct {
	dw      *dwarf.Data
	style   DemangleStyle
	origins map[dwarf.Offset]*dwarf.Entry

	files   []*dwarf.LineFile
	entries []Entry
	rows    []LineRow
}

func (r *dwarfReader) read() error {
	rd := r.dw.Reader()
	for {
		entry, err := rd.Next()
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}

		switch entry.Tag {
		case dwarf.TagCompileUnit, dwarf.TagPartialUnit:
			if err := r.readLines(entry); err != nil {
				return err
			}
		case dwarf.TagSubprogram, dwarf.TagInlinedSubroutine:
			r.readFunction(entry)
		}
	}
}

func (r *dwarfReader) readLines(cu *dwarf.Entry) error {
	r.files = nil

	lr, err := r.dw.LineReader(cu)
	if err != nil {
		return err
	}
	if lr == nil {
		return nil
	}

	var le dwarf.LineEntry
	for {
		if err := lr.Next(&le); err != nil {
			if err == io.EOF {
				// The file table is complete only after the whole program has run.
				r.files = lr.Files()
				return nil
			}
			return err
		}
		row := LineRow{Address: le.Address, EndSequence: le.EndSequence}
		if le.File != nil {
			row.File = le.File.Name
		}
		row.Line, _ = safe.IntToUint32(le.Line)
		r.rows = append(r.rows, row)
	}
}

func (r *dwarfReader) readFunction(entry *dwarf.Entry) {
	ranges, err := r.dw.Ranges(entry)
	if err != nil || len(ranges) == 0 {
		// Declarations and functions optimized away.
		return
	}

	origin := r.origin(entry)
	name := r.name(entry, origin)
	if name == "" {
		return
	}

	target := entry
	if origin != nil && entry.Val(dwarf.AttrDeclFile) == nil {
		target = origin
	}
	var file string
	if idx, ok := target.Val(dwarf.AttrDeclFile).(int64); ok && idx >= 0 && int(idx) < len(r.files) {
		if lf := r.files[idx]; lf != nil {
			file = lf.Name
		}
	}
	var line uint32
	if l, ok := target.Val(dwarf.AttrDeclLine).(int64); ok {
		line, _ = safe.Int64ToUint32(l)
	}

	for _, rng := range ranges {
		if rng[1] < rng[0] {
			continue
		}
		r.entries = append(r.entries, Entry{
			Start: rng[0],
			Size:  rng[1] - rng[0],
			Name:  name,
			File:  file,
			Line:  line,
		})
	}
}

func (r *dwarfReader) name(die, origin *dwarf.Entry) string {
	candidates := []*dwarf.Entry{die}
	if origin != nil {
		candidates = append(candidates, origin)
	}

	if r.style != DemangleNone {
		for _, e := range candidates {
			if name, ok := e.Val(dwarf.AttrLinkageName).(string); ok && name != "" {
				return r.style.Demangle(name)
			}
		}
	}
	for _, e := range candidates {
		if name, ok := e.Val(dwarf.AttrName).(string); ok && name != "" {
			return name
		}
	}
	return ""
}

// origin follows DW_AT_abstract_origin and DW_AT_specification, which is where concrete
// and inlined instances keep their names.
func (r *dwarfReader) origin(die *dwarf.Entry) *dwarf.Entry {
	for _, attr := range []dwarf.Attr{dwarf.AttrAbstractOrigin, dwarf.AttrSpecification} {
		ref, ok := die.Val(attr).(dwarf.Offset)
		if !ok {
			continue
		}
		if cached, ok := r.origins[ref]; ok {
			return cached
		}
		rd := r.dw.Reader()
		rd.Seek(ref)
		entry, err := rd.Next()
		if err != nil || entry == nil {
			return nil
		}
		// An abstract instance may itself point at a declaration.
		if entry.Val(dwarf.AttrName) == nil {
			if spec, ok := entry.Val(dwarf.AttrSpecification).(dwarf.Offset); ok && spec != ref {
				rd.Seek(spec)
				if decl, err := rd.Next(); err == nil && decl != nil {
					entry = decl
				}
			}
		}
		r.origins[ref] = entry
		return entry
	}
	return nil
}
