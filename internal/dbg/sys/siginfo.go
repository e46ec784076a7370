package sys

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// si_code values for SIGTRAP, from include/uapi/asm-generic/siginfo.h.
// An int3 hit arrives as SI_KERNEL or TRAP_BRKPT depending on kernel
// version; a completed PTRACE_SINGLESTEP arrives as TRAP_TRACE.
const (
	SIKernel  = 0x80
	TrapBrkpt = 0x1
	TrapTrace = 0x2
)

// GetSigInfo fetches the siginfo of the signal that stopped a traced
// process. There is no wrapper for PTRACE_GETSIGINFO in x/sys/unix, so
// the request goes through the raw syscall.
func GetSigInfo(pid int) (*unix.Siginfo, error) {
	var si unix.Siginfo
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_GETSIGINFO,
		uintptr(pid), 0, uintptr(unsafe.Pointer(&si)), 0, 0)
	if errno != 0 {
		return nil, errno
	}
	return &si, nil
}
