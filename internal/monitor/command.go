package monitor

import "fmt"

// CommandKind tags a Command.
type CommandKind int

const (
	// CommandPassthrough carries a typed byte that is not bound to an action.
	CommandPassthrough CommandKind = iota
	CommandReset
	CommandQuit
)

// Command is a control command decoded from keyboard input.
type Command struct {
	Kind CommandKind
	// Byte is set for CommandPassthrough.
	Byte byte
}

// Reset returns the reset command.
func Reset() Command { return Command{Kind: CommandReset} }

// Quit returns the quit command.
func Quit() Command { return Command{Kind: CommandQuit} }

// Passthrough returns a command carrying b.
func Passthrough(b byte) Command { return Command{Kind: CommandPassthrough, Byte: b} }

func (c Command) String() string {
	switch c.Kind {
	case CommandReset:
		return "reset"
	case CommandQuit:
		return "quit"
	case CommandPassthrough:
		return fmt.Sprintf("passthrough(%q)", c.Byte)
	default:
		return fmt.Sprintf("Command(%d)", int(c.Kind))
	}
}

// Decoder maps a key byte to a command.
type Decoder interface {
	Decode(b byte) Command
}
