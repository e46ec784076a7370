package proc

import (
	"debug/dwarf"
	"io"
)

type compileUnit struct {
	name string

	ranges [][2]uint64
	lines  []dwarf.LineEntry
	funcs  []*Func
}

func newCompileUnit(d *dwarf.Data, e *dwarf.Entry) *compileUnit {
	cu := &compileUnit{}
	cu.name, _ = e.Val(dwarf.AttrName).(string)
	cu.ranges, _ = d.Ranges(e)
	return cu
}

func (cu *compileUnit) contains(pc uint64) bool {
	for _, r := range cu.ranges {
		if pc >= r[0] && pc < r[1] {
			return true
		}
	}
	return false
}

func (cu *compileUnit) loadLines(d *dwarf.Data, e *dwarf.Entry) error {
	r, err := d.LineReader(e)
	if err != nil {
		return err
	}
	if r == nil {
		return nil
	}
	for {
		var le dwarf.LineEntry
		err := r.Next(&le)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		cu.lines = append(cu.lines, le)
	}
	return nil
}

// lineIndexFor finds the row covering pc: a non-terminal row whose
// address is <= pc while the following row's address is still above pc.
func (cu *compileUnit) lineIndexFor(pc uint64) (int, bool) {
	for i := 0; i+1 < len(cu.lines); i++ {
		le := cu.lines[i]
		if le.EndSequence {
			continue
		}
		if le.Address <= pc && pc < cu.lines[i+1].Address {
			return i, true
		}
	}
	return 0, false
}

func (cu *compileUnit) lineFor(pc uint64) (dwarf.LineEntry, bool) {
	i, ok := cu.lineIndexFor(pc)
	if !ok {
		return dwarf.LineEntry{}, false
	}
	return cu.lines[i], true
}

func (cu *compileUnit) loadFuncs(d *dwarf.Data, r *dwarf.Reader) error {
	depth := 0
	for {
		e, err := r.Next()
		if err != nil {
			return err
		}
		if e == nil {
			break
		}
		switch e.Tag {
		case 0:
			if depth == 0 {
				return nil
			}
			depth--
		case dwarf.TagSubprogram:
			f := newFunc(d, e)
			if f != nil {
				cu.funcs = append(cu.funcs, f)
			}
			if e.Children {
				r.SkipChildren()
			}
		default:
			if e.Children {
				depth++
			}
		}
	}
	return nil
}
