package proc

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

const disasmInstructions = 5

// Disassemble decodes and prints the next few instructions at the PC.
// Armed breakpoints in the window are shown with their original byte,
// not the int3 patch.
func (t *Target) Disassemble() error {
	if err := t.checkAlive(); err != nil {
		return err
	}
	pc, err := t.mem.PC()
	if err != nil {
		return err
	}

	// 15 bytes is the longest x86-64 instruction; 10 words cover the
	// window comfortably.
	buf := make([]byte, 0, 80)
	for i := 0; i < 10; i++ {
		w, err := t.mem.ReadWord(pc + uint64(8*i))
		if err != nil {
			return err
		}
		var word [8]byte
		binary.LittleEndian.PutUint64(word[:], w)
		buf = append(buf, word[:]...)
	}
	for addr, bp := range t.bps {
		if bp.Enabled() && addr >= pc && addr < pc+uint64(len(buf)) {
			buf[addr-pc] = bp.saved
		}
	}

	off := 0
	for n := 0; n < disasmInstructions && off < len(buf); n++ {
		inst, err := x86asm.Decode(buf[off:], 64)
		if err != nil {
			break
		}
		addr := pc + uint64(off)
		fmt.Fprintf(t.out, "0x%x: %s\n", addr, x86asm.GNUSyntax(inst, addr, nil))
		off += inst.Len
	}
	return nil
}
