package proc

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"gni.dev/minidbg/internal/dbg/regs"
	"gni.dev/minidbg/internal/dbg/sys"
)

// sourceContext is the number of lines printed around the current line.
const sourceContext = 2

// ErrExited reports an operation against an inferior that is gone.
var ErrExited = errors.New("the inferior has exited")

// Target is the debugger engine. It owns the traced child, the
// breakpoint table and the debug information, and serializes every
// ptrace operation on the calling goroutine.
type Target struct {
	path string
	pid  int

	mem  *Memory
	sym  *SymTable
	base uint64
	bps  map[uint64]*Breakpoint

	exited bool

	log *logrus.Logger
	out io.Writer
}

// NewTarget builds an engine around an already-launched traced child.
// The ELF image is read once here; the child itself is not touched
// until WaitStart.
func NewTarget(path string, pid int, log *logrus.Logger, out io.Writer) (*Target, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open target %s: %w", path, err)
	}
	defer f.Close()

	st, err := LoadImage(f)
	if err != nil {
		return nil, fmt.Errorf("load debug info of %s: %w", path, err)
	}

	return &Target{
		path: path,
		pid:  pid,
		mem:  NewMemory(pid),
		sym:  st,
		bps:  make(map[uint64]*Breakpoint),
		log:  log,
		out:  out,
	}, nil
}

func (t *Target) Pid() int {
	return t.pid
}

// Path returns the target executable the engine was built around.
func (t *Target) Path() string {
	return t.path
}

// Exited reports whether the inferior is gone.
func (t *Target) Exited() bool {
	return t.exited
}

// LoadBase returns the runtime address of the image, 0 for non-PIE.
func (t *Target) LoadBase() uint64 {
	return t.base
}

// DwarfToRuntime translates a link-time address to a live one.
func (t *Target) DwarfToRuntime(addr uint64) uint64 {
	return addr + t.base
}

// RuntimeToDwarf translates a live address back to its link-time form.
func (t *Target) RuntimeToDwarf(addr uint64) uint64 {
	return addr - t.base
}

// WaitStart reaps the SIGTRAP the child raises at exec and determines
// the load base. Must be called once before any other operation.
func (t *Target) WaitStart() error {
	var ws unix.WaitStatus
	if _, err := unix.Wait4(t.pid, &ws, 0, nil); err != nil {
		return fmt.Errorf("wait for %d: %w", t.pid, err)
	}
	if ws.Exited() {
		t.exited = true
		return fmt.Errorf("inferior %d exited before it could be traced", t.pid)
	}
	if t.sym.PIE() {
		base, err := sys.LoadBase(t.pid)
		if err != nil {
			return fmt.Errorf("load base of %d: %w", t.pid, err)
		}
		t.base = base
	}
	return nil
}

func (t *Target) checkAlive() error {
	if t.exited {
		return ErrExited
	}
	return nil
}

// wait blocks until the next stop or exit of the inferior and routes
// the stop signal.
func (t *Target) wait() error {
	var ws unix.WaitStatus
	if _, err := unix.Wait4(t.pid, &ws, 0, nil); err != nil {
		return fmt.Errorf("wait for %d: %w", t.pid, err)
	}
	switch {
	case ws.Exited():
		t.exited = true
		t.log.Infof("Inferior %d exited with status %d", t.pid, ws.ExitStatus())
	case ws.Signaled():
		t.exited = true
		t.log.Infof("Inferior %d killed by %s", t.pid, unix.SignalName(ws.Signal()))
	case ws.Stopped():
		t.handleStop()
	}
	return nil
}

func (t *Target) handleStop() {
	si, err := sys.GetSigInfo(t.pid)
	if err != nil {
		t.log.Errorf("read siginfo: %v", err)
		return
	}
	switch syscall.Signal(si.Signo) {
	case unix.SIGTRAP:
		t.handleTrap(si)
	case unix.SIGSEGV:
		t.log.Infof("Segfault, reason %d", si.Code)
	default:
		t.log.Infof("Got signal %s", unix.SignalName(syscall.Signal(si.Signo)))
	}
}

// handleTrap distinguishes a breakpoint hit from a completed single
// step. On a hit the CPU has already advanced past the int3 byte, so
// the PC is rewound onto the breakpoint address.
func (t *Target) handleTrap(si *unix.Siginfo) {
	switch si.Code {
	case sys.SIKernel, sys.TrapBrkpt:
		pc, err := t.mem.PC()
		if err != nil {
			t.log.Errorf("read pc: %v", err)
			return
		}
		pc--
		if err := t.mem.SetPC(pc); err != nil {
			t.log.Errorf("rewind pc: %v", err)
			return
		}
		t.log.Infof("Hit breakpoint at address 0x%x", pc)
		le, err := t.sym.LineFor(t.RuntimeToDwarf(pc))
		if err != nil {
			// No line info, e.g. a breakpoint in a stripped library.
			return
		}
		if err := printSource(t.out, le.File.Name, le.Line, sourceContext); err != nil {
			t.log.Errorf("print source: %v", err)
		}
	case sys.TrapTrace:
		// Single step completed; nothing to report.
	default:
		t.log.Infof("Unknown SIGTRAP code %d", si.Code)
	}
}

// Continue resumes the inferior, first stepping over a breakpoint the
// PC may be resting on, and blocks until the next stop or exit.
func (t *Target) Continue() error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	if err := t.stepOverBreakpoint(); err != nil {
		return err
	}
	if t.exited {
		return nil
	}
	if err := unix.PtraceCont(t.pid, 0); err != nil {
		return fmt.Errorf("continue %d: %w", t.pid, err)
	}
	return t.wait()
}

// stepOverBreakpoint restores execution continuity when the PC sits on
// an armed breakpoint: disarm, execute the original instruction with a
// single step, rearm.
func (t *Target) stepOverBreakpoint() error {
	pc, err := t.mem.PC()
	if err != nil {
		return err
	}
	bp, ok := t.bps[pc]
	if !ok || !bp.Enabled() {
		return nil
	}
	if err := bp.Disable(); err != nil {
		return err
	}
	if err := t.singleStep(); err != nil {
		return err
	}
	if t.exited {
		return nil
	}
	return bp.Enable()
}

func (t *Target) singleStep() error {
	if err := unix.PtraceSingleStep(t.pid); err != nil {
		return fmt.Errorf("single step %d: %w", t.pid, err)
	}
	return t.wait()
}

// SingleStep executes exactly one machine instruction.
func (t *Target) SingleStep() error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	return t.singleStep()
}

// SingleStepCheck single-steps, going through the disarm/rearm dance
// when the PC sits on a breakpoint.
func (t *Target) SingleStepCheck() error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	pc, err := t.mem.PC()
	if err != nil {
		return err
	}
	if _, ok := t.bps[pc]; ok {
		return t.stepOverBreakpoint()
	}
	return t.singleStep()
}

// OffsetPC returns the current PC as a DWARF address.
func (t *Target) OffsetPC() (uint64, error) {
	pc, err := t.mem.PC()
	if err != nil {
		return 0, err
	}
	return t.RuntimeToDwarf(pc), nil
}

// SetBreakpointAtAddress arms a breakpoint at a runtime address. An
// already-armed breakpoint is left alone.
func (t *Target) SetBreakpointAtAddress(addr uint64) error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	if bp, ok := t.bps[addr]; ok && bp.Enabled() {
		t.log.Infof("Breakpoint already set at address 0x%x", addr)
		return nil
	}
	t.log.Infof("Set breakpoint at address 0x%x", addr)
	bp := NewBreakpoint(t.mem, addr)
	if err := bp.Enable(); err != nil {
		return err
	}
	t.bps[addr] = bp
	return nil
}

// SetBreakpointAtFunction arms a breakpoint past the prologue of every
// function with the given DW_AT_name.
func (t *Target) SetBreakpointAtFunction(name string) error {
	fns := t.sym.FunctionsByName(name)
	if len(fns) == 0 {
		return fmt.Errorf("function %s: %w", name, ErrNotFound)
	}
	for _, f := range fns {
		le, err := t.sym.EntryLine(f)
		if err != nil {
			return err
		}
		if err := t.SetBreakpointAtAddress(t.DwarfToRuntime(le.Address)); err != nil {
			return err
		}
	}
	return nil
}

// SetBreakpointAtSourceLine arms a breakpoint at the first statement of
// file:line. The file matches as a suffix of the compilation unit name.
func (t *Target) SetBreakpointAtSourceLine(file string, line int) error {
	le, err := t.sym.LineForFileLine(file, line)
	if err != nil {
		return err
	}
	return t.SetBreakpointAtAddress(t.DwarfToRuntime(le.Address))
}

// RemoveBreakpoint disarms and forgets the breakpoint at addr.
func (t *Target) RemoveBreakpoint(addr uint64) error {
	bp, ok := t.bps[addr]
	if !ok {
		return nil
	}
	if bp.Enabled() && !t.exited {
		if err := bp.Disable(); err != nil {
			return err
		}
	}
	delete(t.bps, addr)
	return nil
}

// Breakpoints returns the addresses currently in the table.
func (t *Target) Breakpoints() []uint64 {
	out := make([]uint64, 0, len(t.bps))
	for addr := range t.bps {
		out = append(out, addr)
	}
	return out
}

// StepIn advances by source line, descending into calls: single steps
// until the source line number for the PC changes.
func (t *Target) StepIn() error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	pc, err := t.OffsetPC()
	if err != nil {
		return err
	}
	start, err := t.sym.LineFor(pc)
	if err != nil {
		return err
	}
	cur := start
	for cur.Line == start.Line {
		if err := t.SingleStepCheck(); err != nil {
			return err
		}
		if t.exited {
			return nil
		}
		pc, err = t.OffsetPC()
		if err != nil {
			return err
		}
		cur, err = t.sym.LineFor(pc)
		if err != nil {
			return err
		}
	}
	return printSource(t.out, cur.File.Name, cur.Line, sourceContext)
}

// StepOut runs until the current function returns, using the return
// address at [rbp+8]. This relies on a frame-pointer prologue; with
// -fomit-frame-pointer the address read is garbage.
func (t *Target) StepOut() error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	ret, err := t.returnAddress()
	if err != nil {
		return err
	}
	if _, ok := t.bps[ret]; ok {
		// A user breakpoint already covers the return address.
		return t.Continue()
	}
	if err := t.setTemp(ret); err != nil {
		return err
	}
	defer t.clearTemp(ret)
	return t.Continue()
}

// StepOver runs to the next statement in the enclosing function without
// descending into calls: temporary breakpoints at every other statement
// of the function plus the return address, then continue.
func (t *Target) StepOver() error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	pc, err := t.OffsetPC()
	if err != nil {
		return err
	}
	fn, err := t.sym.FunctionContaining(pc)
	if err != nil {
		return err
	}
	cur, err := t.sym.LineFor(pc)
	if err != nil {
		return err
	}

	var temps []uint64
	defer func() {
		for _, addr := range temps {
			t.clearTemp(addr)
		}
	}()

	for _, le := range t.sym.StatementsIn(fn) {
		if le.Address == cur.Address {
			continue
		}
		addr := t.DwarfToRuntime(le.Address)
		if _, ok := t.bps[addr]; ok {
			continue
		}
		if err := t.setTemp(addr); err != nil {
			return err
		}
		temps = append(temps, addr)
	}

	ret, err := t.returnAddress()
	if err != nil {
		return err
	}
	if _, ok := t.bps[ret]; !ok {
		if err := t.setTemp(ret); err != nil {
			return err
		}
		temps = append(temps, ret)
	}

	return t.Continue()
}

func (t *Target) returnAddress() (uint64, error) {
	rbp, err := t.mem.ReadRegister(regs.Rbp)
	if err != nil {
		return 0, err
	}
	return t.mem.ReadWord(rbp + 8)
}

// setTemp arms a breakpoint without the user-facing log line.
func (t *Target) setTemp(addr uint64) error {
	bp := NewBreakpoint(t.mem, addr)
	if err := bp.Enable(); err != nil {
		return err
	}
	t.bps[addr] = bp
	return nil
}

func (t *Target) clearTemp(addr uint64) {
	bp, ok := t.bps[addr]
	if !ok {
		return
	}
	if bp.Enabled() && !t.exited {
		if err := bp.Disable(); err != nil {
			t.log.Errorf("remove temporary breakpoint at 0x%x: %v", addr, err)
		}
	}
	delete(t.bps, addr)
}

// DumpRegisters logs every register in kernel dump order.
func (t *Target) DumpRegisters() error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	for _, d := range regs.All() {
		v, err := t.mem.ReadRegister(d.Reg)
		if err != nil {
			return err
		}
		t.log.Infof("%-8s 0x%016x", d.Name, v)
	}
	return nil
}

// ReadRegisterName logs the value of a register given by name.
func (t *Target) ReadRegisterName(name string) error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	r, err := regs.FromName(name)
	if err != nil {
		return err
	}
	v, err := t.mem.ReadRegister(r)
	if err != nil {
		return err
	}
	t.log.Infof("0x%016x", v)
	return nil
}

// WriteRegisterName stores a value into a register given by name.
func (t *Target) WriteRegisterName(name string, v uint64) error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	r, err := regs.FromName(name)
	if err != nil {
		return err
	}
	return t.mem.WriteRegister(r, v)
}

// ReadMemory logs the 8-byte word at addr.
func (t *Target) ReadMemory(addr uint64) error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	v, err := t.mem.ReadWord(addr)
	if err != nil {
		return err
	}
	t.log.Infof("0x%016x", v)
	return nil
}

// WriteMemory stores an 8-byte word at addr.
func (t *Target) WriteMemory(addr uint64, v uint64) error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	return t.mem.WriteWord(addr, v)
}

// LookupSymbol logs every symbol-table entry matching name exactly.
func (t *Target) LookupSymbol(name string) error {
	syms := t.sym.LookupSymbol(name)
	if len(syms) == 0 {
		return fmt.Errorf("symbol %s: %w", name, ErrNotFound)
	}
	for _, s := range syms {
		t.log.Infof("%s %s 0x%x", s.Name, s.Kind, s.Addr)
	}
	return nil
}

// Close tears the session down. A still-running inferior is killed and
// reaped.
func (t *Target) Close() error {
	if t.exited {
		return nil
	}
	if err := unix.Kill(t.pid, unix.SIGKILL); err != nil {
		return err
	}
	var ws unix.WaitStatus
	_, err := unix.Wait4(t.pid, &ws, 0, nil)
	t.exited = true
	return err
}
