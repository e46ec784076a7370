package regs

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Reg identifies one of the 64-bit registers exposed by PTRACE_GETREGS.
// The value doubles as the register's slot in the kernel dump, so the
// constants below must stay in user_regs_struct order.
type Reg int

const (
	R15 Reg = iota
	R14
	R13
	R12
	Rbp
	Rbx
	R11
	R10
	R9
	R8
	Rax
	Rcx
	Rdx
	Rsi
	Rdi
	OrigRax
	Rip
	Cs
	Rflags
	Rsp
	Ss
	FsBase
	GsBase
	Ds
	Es
	Fs
	Gs

	numRegisters
)

// Descriptor ties a register to its DWARF number and canonical name.
// A DWARF number of -1 means the register has no DWARF mapping.
type Descriptor struct {
	Reg   Reg
	Dwarf int
	Name  string
}

var descriptors = [numRegisters]Descriptor{
	{R15, 15, "r15"},
	{R14, 14, "r14"},
	{R13, 13, "r13"},
	{R12, 12, "r12"},
	{Rbp, 6, "rbp"},
	{Rbx, 3, "rbx"},
	{R11, 11, "r11"},
	{R10, 10, "r10"},
	{R9, 9, "r9"},
	{R8, 8, "r8"},
	{Rax, 0, "rax"},
	{Rcx, 2, "rcx"},
	{Rdx, 1, "rdx"},
	{Rsi, 4, "rsi"},
	{Rdi, 5, "rdi"},
	{OrigRax, -1, "orig_rax"},
	{Rip, -1, "rip"},
	{Cs, 51, "cs"},
	{Rflags, 49, "eflags"},
	{Rsp, 7, "rsp"},
	{Ss, 52, "ss"},
	{FsBase, 58, "fs_base"},
	{GsBase, 59, "gs_base"},
	{Ds, 53, "ds"},
	{Es, 50, "es"},
	{Fs, 54, "fs"},
	{Gs, 55, "gs"},
}

func init() {
	// The whole package rests on the table mirroring user_regs_struct.
	if len(descriptors) != 27 || descriptors[16].Reg != Rip {
		panic("regs: descriptor table out of sync with user_regs_struct")
	}
	if unsafe.Sizeof(unix.PtraceRegs{}) != uintptr(numRegisters)*8 {
		panic("regs: unexpected PtraceRegs size")
	}
	for i, d := range descriptors {
		if d.Reg != Reg(i) {
			panic("regs: descriptor slot mismatch: " + d.Name)
		}
	}
}

// All returns the descriptors in kernel dump order.
func All() []Descriptor {
	return descriptors[:]
}

// Name returns the canonical name of r.
func (r Reg) Name() string {
	return descriptors[r].Name
}

// FromName resolves a register by its exact, case-sensitive name.
func FromName(name string) (Reg, error) {
	for _, d := range descriptors {
		if d.Name == name {
			return d.Reg, nil
		}
	}
	return 0, fmt.Errorf("unknown register %q", name)
}

// FromDwarf resolves a register by its DWARF number. Registers without
// a DWARF mapping cannot be found this way.
func FromDwarf(n int) (Reg, error) {
	if n < 0 {
		return 0, fmt.Errorf("unknown DWARF register %d", n)
	}
	for _, d := range descriptors {
		if d.Dwarf == n {
			return d.Reg, nil
		}
	}
	return 0, fmt.Errorf("unknown DWARF register %d", n)
}

// Value reads r's slot out of a fetched register file.
func Value(pr *unix.PtraceRegs, r Reg) uint64 {
	return (*[numRegisters]uint64)(unsafe.Pointer(pr))[r]
}

// SetValue overwrites r's slot in a fetched register file.
func SetValue(pr *unix.PtraceRegs, r Reg, v uint64) {
	(*[numRegisters]uint64)(unsafe.Pointer(pr))[r] = v
}
