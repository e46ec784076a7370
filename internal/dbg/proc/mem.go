package proc

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"gni.dev/minidbg/internal/dbg/regs"
)

// Memory is the ptrace view of a stopped inferior: registers and 8-byte
// words of its address space. Every method is a synchronous syscall and
// must only be called while the inferior is stopped.
type Memory struct {
	pid int
}

func NewMemory(pid int) *Memory {
	return &Memory{pid: pid}
}

func (m *Memory) Pid() int {
	return m.pid
}

// ReadRegister fetches the full register file and returns r's slot.
func (m *Memory) ReadRegister(r regs.Reg) (uint64, error) {
	var pr unix.PtraceRegs
	if err := unix.PtraceGetRegs(m.pid, &pr); err != nil {
		return 0, fmt.Errorf("read registers: %w", err)
	}
	return regs.Value(&pr, r), nil
}

// WriteRegister updates a single register with a fetch-modify-write of
// the whole register file.
func (m *Memory) WriteRegister(r regs.Reg, v uint64) error {
	var pr unix.PtraceRegs
	if err := unix.PtraceGetRegs(m.pid, &pr); err != nil {
		return fmt.Errorf("read registers: %w", err)
	}
	regs.SetValue(&pr, r, v)
	if err := unix.PtraceSetRegs(m.pid, &pr); err != nil {
		return fmt.Errorf("write registers: %w", err)
	}
	return nil
}

// ReadRegisterByDwarf resolves a DWARF register number and reads it.
func (m *Memory) ReadRegisterByDwarf(n int) (uint64, error) {
	r, err := regs.FromDwarf(n)
	if err != nil {
		return 0, err
	}
	return m.ReadRegister(r)
}

// ReadWord returns the 8-byte word at addr in the inferior.
func (m *Memory) ReadWord(addr uint64) (uint64, error) {
	buf := make([]byte, 8)
	if _, err := unix.PtracePeekData(m.pid, uintptr(addr), buf); err != nil {
		return 0, fmt.Errorf("read word at %#x: %w", addr, err)
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// WriteWord stores an 8-byte word at addr in the inferior.
func (m *Memory) WriteWord(addr uint64, v uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	if _, err := unix.PtracePokeData(m.pid, uintptr(addr), buf); err != nil {
		return fmt.Errorf("write word at %#x: %w", addr, err)
	}
	return nil
}

func (m *Memory) PC() (uint64, error) {
	return m.ReadRegister(regs.Rip)
}

func (m *Memory) SetPC(pc uint64) error {
	return m.WriteRegister(regs.Rip, pc)
}
