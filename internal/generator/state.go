package generator

import "fmt"

// State is a position in the generation state machine.
type State string

const (
	StateIdle      State = "idle"
	StateParsing   State = "parsing"
	StateAnalyzing State = "analyzing"
	StateRendering State = "rendering"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// transitions lists the legal successors of each state. Done and Failed are
// terminal.
var transitions = map[State][]State{
	StateIdle:      {StateParsing, StateFailed},
	StateParsing:   {StateAnalyzing, StateFailed},
	StateAnalyzing: {StateRendering, StateFailed},
	StateRendering: {StateDone, StateFailed},
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool { return s == StateDone || s == StateFailed }

// machine tracks the state of one generation.
type machine struct {
	state State
	trail []State
}

func newMachine() *machine { return &machine{state: StateIdle, trail: []State{StateIdle}} }

func (m *machine) advance(to State) error {
	for _, next := range transitions[m.state] {
		if next == to {
			m.state = to
			m.trail = append(m.trail, to)
			return nil
		}
	}
	return fmt.Errorf("illegal generation state transition %s -> %s", m.state, to)
}
