package ledgersaga

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbabilisticFaultsAreReproducible(t *testing.T) {
	a := NewProbabilisticFaults(7, 99.99, 0.01, 0.01)
	b := NewProbabilisticFaults(7, 99.99, 0.01, 0.01)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.RefusePermanently(), b.RefusePermanently(), "draw %d", i)
		assert.Equal(t, a.IsBusy(), b.IsBusy(), "draw %d", i)
		assert.Equal(t, a.FailBeforeProcessing(), b.FailBeforeProcessing(), "draw %d", i)
		assert.Equal(t, a.FailAfterProcessing(), b.FailAfterProcessing(), "draw %d", i)
		assert.Equal(t, a.Fail(), b.Fail(), "draw %d", i)
	}
}

func TestScriptedFaultsAnswerFalseWhenExhausted(t *testing.T) {
	s := &ScriptedFaults{Failures: []bool{true}}

	assert.True(t, s.Fail())
	assert.False(t, s.Fail())
	assert.False(t, s.RefusePermanently())
	assert.False(t, s.IsBusy())
	assert.False(t, s.FailBeforeProcessing())
	assert.False(t, s.FailAfterProcessing())
}
