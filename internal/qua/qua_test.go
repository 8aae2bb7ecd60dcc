package qua

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycles(t *testing.T) {
	assert.Equal(t, int64(0), Cycles(0))
	assert.Equal(t, int64(1), Cycles(1*time.Nanosecond))
	assert.Equal(t, int64(1), Cycles(4*time.Nanosecond))
	assert.Equal(t, int64(250), Cycles(time.Microsecond))
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	n := r.Declare(Int)
	r.Assign(n, Lit(0))
	r.While(Lt(n, Lit(3)), func() {
		i, _ := r.Measure("readout", "q1.resonator", MeasureOptions{Stream: "I"})
		r.Play("x180", "q1.xy", PlayOptions{Condition: Gt(i, Lit(0.1))})
		r.Assign(n, Add(n, Lit(1)))
	})
	r.Align("q1.xy", "q1.resonator")
	r.Wait(Lit(100), "q1.xy")

	stmts := r.Statements()
	require.Len(t, stmts, 5)
	assert.Equal(t, "declare", stmts[0].Op)
	assert.Equal(t, []string{"v0", "int"}, stmts[0].Args)

	loop := stmts[2]
	assert.Equal(t, "while", loop.Op)
	assert.Equal(t, []string{"(v0 < 3)"}, loop.Args)
	require.Len(t, loop.Body, 5)
	assert.Equal(t, "measure", loop.Body[2].Op)
	assert.Equal(t, []string{"readout", "q1.resonator", "I=v1", "Q=v2", "stream=I"}, loop.Body[2].Args)
	assert.Equal(t, []string{"x180", "q1.xy", "condition=(v1 > 0.1)"}, loop.Body[3].Args)

	assert.Equal(t, "wait(100, q1.xy)", stmts[4].String())
	assert.Contains(t, Format(stmts), "\n  play(x180, q1.xy, condition=(v1 > 0.1))")
}
