package env

import (
	"fmt"
	"strings"
)

// Button is a Game Boy joypad button, named the way the emulator bridge
// expects it on the wire
type Button string

const (
	ButtonA      Button = "a"
	ButtonB      Button = "b"
	ButtonStart  Button = "start"
	ButtonSelect Button = "select"
	ButtonUp     Button = "up"
	ButtonDown   Button = "down"
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
)

// Action is one entry of the action catalog: a set of buttons held together
// for the duration of a step. An empty set is a no-op.
type Action struct {
	Name    string
	Buttons []Button
}

func (a Action) String() string {
	return a.Name
}

// Catalog is the fixed, ordered list of actions an agent may choose from.
// The index into the catalog is the action index stored in the Q-table.
type Catalog []Action

// Catalog variants
const (
	CatalogFull      = "full"
	CatalogBasic     = "basic"
	CatalogRightOnly = "right_only"
)

var (
	noop         = Action{Name: "NOOP"}
	right        = Action{Name: "RIGHT", Buttons: []Button{ButtonRight}}
	jump         = Action{Name: "JUMP", Buttons: []Button{ButtonA}}
	rightJump    = Action{Name: "RIGHT+JUMP", Buttons: []Button{ButtonRight, ButtonA}}
	runRight     = Action{Name: "RUN_RIGHT", Buttons: []Button{ButtonRight, ButtonB}}
	runRightJump = Action{Name: "RUN_RIGHT+JUMP", Buttons: []Button{ButtonRight, ButtonB, ButtonA}}
)

// NewCatalog returns the catalog for the given variant name
func NewCatalog(variant string) (Catalog, error) {
	switch variant {
	case CatalogFull, "":
		return Catalog{noop, right, jump, rightJump, runRight, runRightJump}, nil
	case CatalogBasic:
		return Catalog{noop, right, jump, rightJump}, nil
	case CatalogRightOnly:
		return Catalog{right, rightJump, runRight, runRightJump}, nil
	default:
		return nil, fmt.Errorf("unknown action catalog %q", variant)
	}
}

// Len returns the number of actions
func (c Catalog) Len() int {
	return len(c)
}

// Index returns the index of the named action, or -1
func (c Catalog) Index(name string) int {
	for i, a := range c {
		if strings.EqualFold(a.Name, name) {
			return i
		}
	}
	return -1
}

// Names returns the action names in catalog order
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, a := range c {
		names[i] = a.Name
	}
	return names
}

// Find returns the index of the first action that holds exactly the given
// buttons, ignoring order, or -1
func (c Catalog) Find(buttons ...Button) int {
	for i, a := range c {
		if sameButtons(a.Buttons, buttons) {
			return i
		}
	}
	return -1
}

func sameButtons(a, b []Button) bool {
	if len(a) != len(b) {
		return false
	}
	held := make(map[Button]int, len(a))
	for _, x := range a {
		held[x]++
	}
	for _, x := range b {
		held[x]--
		if held[x] < 0 {
			return false
		}
	}
	return true
}
