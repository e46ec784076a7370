package term

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gni.dev/minidbg/internal/dbg/proc"
)

type command struct {
	name string
	fn   func(args []string) error
}

// Commands dispatches one line of input: the first token is matched as
// a prefix of a canonical verb, in table order, so the bare "s"
// resolves to step rather than symbol.
type Commands struct {
	cmds []command
	t    *proc.Target
}

func DebuggerCommands(t *proc.Target) *Commands {
	c := &Commands{t: t}
	c.cmds = []command{
		{"continue", c.cont},
		{"break", c.breakCmd},
		{"register", c.register},
		{"memory", c.memory},
		{"step", c.step},
		{"next", c.next},
		{"finish", c.finish},
		{"symbol", c.symbol},
		{"disassemble", c.disassemble},
		{"quit", c.quit},
	}
	return c
}

func (c *Commands) Process(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return fmt.Errorf("empty command")
	}
	cmd, ok := c.lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.fn(args[1:])
}

func (c *Commands) lookup(verb string) (command, bool) {
	for _, cmd := range c.cmds {
		if strings.HasPrefix(cmd.name, verb) {
			return cmd, true
		}
	}
	return command{}, false
}

func (c *Commands) Close() error {
	return c.t.Close()
}

func (c *Commands) cont(args []string) error {
	return c.t.Continue()
}

// breakCmd disambiguates its argument by shape: "0x..." is an address,
// something with a colon is file:line, anything else a function name.
func (c *Commands) breakCmd(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("break needs an address, file:line or function")
	}
	loc := args[0]
	switch {
	case strings.HasPrefix(loc, "0x"):
		addr, err := parseHex(loc)
		if err != nil {
			return err
		}
		return c.t.SetBreakpointAtAddress(addr)
	case strings.Contains(loc, ":"):
		parts := strings.Split(loc, ":")
		line, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Errorf("malformed line number %q", parts[1])
		}
		return c.t.SetBreakpointAtSourceLine(parts[0], line)
	default:
		return c.t.SetBreakpointAtFunction(loc)
	}
}

func (c *Commands) register(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("register needs dump, read or write")
	}
	switch args[0] {
	case "dump":
		return c.t.DumpRegisters()
	case "read":
		if len(args) < 2 {
			return fmt.Errorf("register read needs a register name")
		}
		return c.t.ReadRegisterName(args[1])
	case "write":
		if len(args) < 3 {
			return fmt.Errorf("register write needs a register name and a value")
		}
		v, err := parseHex(args[2])
		if err != nil {
			return err
		}
		return c.t.WriteRegisterName(args[1], v)
	default:
		return fmt.Errorf("unknown register operation %q", args[0])
	}
}

func (c *Commands) memory(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("memory needs read <addr> or write <addr> <value>")
	}
	addr, err := parseHex(args[1])
	if err != nil {
		return err
	}
	switch args[0] {
	case "read":
		return c.t.ReadMemory(addr)
	case "write":
		if len(args) < 3 {
			return fmt.Errorf("memory write needs a value")
		}
		v, err := parseHex(args[2])
		if err != nil {
			return err
		}
		return c.t.WriteMemory(addr, v)
	default:
		return fmt.Errorf("unknown memory operation %q", args[0])
	}
}

func (c *Commands) step(args []string) error {
	return c.t.StepIn()
}

func (c *Commands) next(args []string) error {
	return c.t.StepOver()
}

func (c *Commands) finish(args []string) error {
	return c.t.StepOut()
}

func (c *Commands) symbol(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("symbol needs a name")
	}
	return c.t.LookupSymbol(args[0])
}

func (c *Commands) disassemble(args []string) error {
	return c.t.Disassemble()
}

func (c *Commands) quit(args []string) error {
	return io.EOF
}

// parseHex accepts only the literal 0x form; a plain decimal is
// rejected.
func parseHex(s string) (uint64, error) {
	if !strings.HasPrefix(s, "0x") {
		return 0, fmt.Errorf("malformed hex value %q, expected 0x...", s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed hex value %q: %w", s, err)
	}
	return v, nil
}
