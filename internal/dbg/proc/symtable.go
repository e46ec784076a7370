package proc

import (
	"debug/dwarf"
	"debug/elf"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports a miss against the debug information: an address
// no compilation unit covers, an unknown function, a source line with no
// statement.
var ErrNotFound = errors.New("not found in debug info")

// SymTable holds everything the engine asks of the target binary:
// compilation units with their line tables and subprogram DIEs, the ELF
// symbol tables, and whether the image is position independent.
type SymTable struct {
	cus  []*compileUnit
	syms []Symbol
	pie  bool
}

// LoadImage reads the DWARF and symbol tables out of an opened ELF
// image. The file may be closed afterwards; everything is kept in
// memory.
func LoadImage(f *elf.File) (*SymTable, error) {
	d, err := f.DWARF()
	if err != nil {
		return nil, fmt.Errorf("load DWARF: %w", err)
	}

	s := &SymTable{pie: f.Type == elf.ET_DYN}
	r := d.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return nil, err
		}
		if e == nil {
			break
		}
		switch e.Tag {
		case dwarf.TagCompileUnit:
			cu := newCompileUnit(d, e)
			if err := cu.loadLines(d, e); err != nil {
				return nil, err
			}
			if e.Children {
				if err := cu.loadFuncs(d, r); err != nil {
					return nil, err
				}
			}
			s.cus = append(s.cus, cu)
		default:
			r.SkipChildren()
		}
	}

	s.syms = loadSymbols(f)
	return s, nil
}

// PIE reports whether the image was linked position independent.
func (s *SymTable) PIE() bool {
	return s.pie
}

func (s *SymTable) unitFor(pc uint64) *compileUnit {
	for _, cu := range s.cus {
		if cu.contains(pc) {
			return cu
		}
	}
	return nil
}

// FunctionContaining returns the subprogram whose PC range covers the
// given DWARF address.
func (s *SymTable) FunctionContaining(pc uint64) (*Func, error) {
	cu := s.unitFor(pc)
	if cu == nil {
		return nil, fmt.Errorf("function containing %#x: %w", pc, ErrNotFound)
	}
	for _, f := range cu.funcs {
		if f.contains(pc) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("function containing %#x: %w", pc, ErrNotFound)
}

// FunctionsByName returns every subprogram whose DW_AT_name matches
// exactly, across all compilation units.
func (s *SymTable) FunctionsByName(name string) []*Func {
	var out []*Func
	for _, cu := range s.cus {
		for _, f := range cu.funcs {
			if f.name == name {
				out = append(out, f)
			}
		}
	}
	return out
}

// LineFor returns the line-table row covering the given DWARF address.
func (s *SymTable) LineFor(pc uint64) (dwarf.LineEntry, error) {
	cu := s.unitFor(pc)
	if cu == nil {
		return dwarf.LineEntry{}, fmt.Errorf("line for %#x: %w", pc, ErrNotFound)
	}
	le, ok := cu.lineFor(pc)
	if !ok {
		return dwarf.LineEntry{}, fmt.Errorf("line for %#x: %w", pc, ErrNotFound)
	}
	return le, nil
}

// EntryLine returns the line-table row one past the row for f's entry
// address, skipping the function prologue.
func (s *SymTable) EntryLine(f *Func) (dwarf.LineEntry, error) {
	cu := s.unitFor(f.lowpc)
	if cu == nil {
		return dwarf.LineEntry{}, fmt.Errorf("entry line of %s: %w", f.name, ErrNotFound)
	}
	i, ok := cu.lineIndexFor(f.lowpc)
	if !ok || i+1 >= len(cu.lines) || cu.lines[i+1].EndSequence {
		return dwarf.LineEntry{}, fmt.Errorf("entry line of %s: %w", f.name, ErrNotFound)
	}
	return cu.lines[i+1], nil
}

// LineForFileLine finds the first is_stmt row with the given line number
// in a compilation unit whose name ends with file.
func (s *SymTable) LineForFileLine(file string, line int) (dwarf.LineEntry, error) {
	for _, cu := range s.cus {
		if !strings.HasSuffix(cu.name, file) {
			continue
		}
		for _, le := range cu.lines {
			if le.EndSequence {
				continue
			}
			if le.Line == line && le.IsStmt {
				return le, nil
			}
		}
	}
	return dwarf.LineEntry{}, fmt.Errorf("%s:%d: %w", file, line, ErrNotFound)
}

// StatementsIn returns the statement rows whose addresses fall inside
// f's [lowpc, highpc) range.
func (s *SymTable) StatementsIn(f *Func) []dwarf.LineEntry {
	cu := s.unitFor(f.lowpc)
	if cu == nil {
		return nil
	}
	var out []dwarf.LineEntry
	for _, le := range cu.lines {
		if le.EndSequence || !le.IsStmt {
			continue
		}
		if le.Address >= f.lowpc && le.Address < f.highpc {
			out = append(out, le)
		}
	}
	return out
}
