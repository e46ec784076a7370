package proc

import "debug/elf"

// SymKind is the local taxonomy of ELF symbol types.
type SymKind int

const (
	SymNotype SymKind = iota
	SymObject
	SymFunc
	SymSection
	SymFile
)

func (k SymKind) String() string {
	switch k {
	case SymObject:
		return "object"
	case SymFunc:
		return "func"
	case SymSection:
		return "section"
	case SymFile:
		return "file"
	default:
		return "notype"
	}
}

// Symbol is one entry of the static or dynamic symbol table.
type Symbol struct {
	Kind SymKind
	Name string
	Addr uint64
}

func symKind(t elf.SymType) SymKind {
	switch t {
	case elf.STT_OBJECT:
		return SymObject
	case elf.STT_FUNC:
		return SymFunc
	case elf.STT_SECTION:
		return SymSection
	case elf.STT_FILE:
		return SymFile
	default:
		return SymNotype
	}
}

func loadSymbols(f *elf.File) []Symbol {
	var out []Symbol
	// Either table may be absent; a stripped static binary still has
	// .dynsym worth searching and vice versa.
	static, _ := f.Symbols()
	dynamic, _ := f.DynamicSymbols()
	for _, tab := range [][]elf.Symbol{static, dynamic} {
		for _, sym := range tab {
			out = append(out, Symbol{
				Kind: symKind(elf.ST_TYPE(sym.Info)),
				Name: sym.Name,
				Addr: sym.Value,
			})
		}
	}
	return out
}

// LookupSymbol returns all exact name matches from both symbol tables.
func (s *SymTable) LookupSymbol(name string) []Symbol {
	var out []Symbol
	for _, sym := range s.syms {
		if sym.Name == name {
			out = append(out, sym)
		}
	}
	return out
}
