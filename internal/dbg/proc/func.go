package proc

import "debug/dwarf"

// Func is a subprogram DIE: a name plus the [lowpc, highpc) range it
// occupies.
type Func struct {
	name          string
	lowpc, highpc uint64
}

func newFunc(d *dwarf.Data, e *dwarf.Entry) *Func {
	name, ok := e.Val(dwarf.AttrName).(string)
	ranges, _ := d.Ranges(e)
	if ok && len(ranges) > 0 {
		return &Func{
			name:   name,
			lowpc:  ranges[0][0],
			highpc: ranges[0][1],
		}
	}
	return nil
}

func (f *Func) Name() string {
	return f.name
}

func (f *Func) LowPC() uint64 {
	return f.lowpc
}

func (f *Func) HighPC() uint64 {
	return f.highpc
}

func (f *Func) contains(pc uint64) bool {
	return pc >= f.lowpc && pc < f.highpc
}
