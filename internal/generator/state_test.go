package generator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMachineHappyPath(t *testing.T) {
	m := newMachine()
	for _, s := range []State{StateParsing, StateAnalyzing, StateRendering, StateDone} {
		require.NoError(t, m.advance(s))
	}
	require.Equal(t, []State{StateIdle, StateParsing, StateAnalyzing, StateRendering, StateDone}, m.trail)
	require.True(t, m.state.IsTerminal())
}

func TestMachineRejectsIllegalTransitions(t *testing.T) {
	m := newMachine()
	require.Error(t, m.advance(StateRendering))
	require.Equal(t, StateIdle, m.state)

	require.NoError(t, m.advance(StateFailed))
	require.Error(t, m.advance(StateParsing), "failed is terminal")
	require.Error(t, m.advance(StateDone))
	require.Equal(t, []State{StateIdle, StateFailed}, m.trail)
}
