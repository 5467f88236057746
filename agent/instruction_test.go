package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstruction_Static(t *testing.T) {
	i := NewInstructionFromText("Hello {{.name}}")
	assert.True(t, i.IsStatic())
	assert.False(t, i.IsZero())

	out, err := i.Resolve(map[string]any{"name": "Bidder"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Bidder", out)
}

func TestInstruction_Provider(t *testing.T) {
	i := NewInstructionFromFunc(func(state map[string]any) (string, error) {
		if state["fail"] == true {
			return "", errors.New("fail")
		}
		return "dynamic", nil
	})
	assert.False(t, i.IsStatic())

	out, err := i.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "dynamic", out)

	_, err = i.Resolve(map[string]any{"fail": true})
	assert.Error(t, err)
}

func TestInstruction_Zero(t *testing.T) {
	assert.True(t, Instruction{}.IsZero())
}
