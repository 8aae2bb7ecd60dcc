package qua

import (
	"fmt"
	"strconv"
)

// Recorder is a Builder that records statements.
type Recorder struct {
	frames [][]Statement
	nvars  int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{frames: [][]Statement{nil}}
}

var _ Builder = (*Recorder)(nil)
var _ Program = (*Recorder)(nil)

func (r *Recorder) emit(op string, args ...string) {
	top := len(r.frames) - 1
	r.frames[top] = append(r.frames[top], Statement{Op: op, Args: args})
}

// Statements returns the top-level statements recorded so far.
func (r *Recorder) Statements() []Statement {
	return append([]Statement(nil), r.frames[0]...)
}

func (r *Recorder) Declare(kind VarKind) Var {
	v := Var{Name: fmt.Sprintf("v%d", r.nvars), Kind: kind}
	r.nvars++
	r.emit("declare", v.Name, kind.String())
	return v
}

func (r *Recorder) Assign(v Var, e Expr) {
	r.emit("assign", v.Name, e.String())
}

func (r *Recorder) Align(elements ...string) {
	r.emit("align", elements...)
}

func (r *Recorder) Wait(duration Expr, elements ...string) {
	r.emit("wait", append([]string{duration.String()}, elements...)...)
}

func (r *Recorder) Play(op, element string, opts PlayOptions) {
	args := []string{op, element}
	if opts.AmplitudeScale != 0 {
		args = append(args, "amp="+strconv.FormatFloat(opts.AmplitudeScale, 'g', -1, 64))
	}
	if opts.Duration != nil {
		args = append(args, "duration="+opts.Duration.String())
	}
	if opts.Condition != nil {
		args = append(args, "condition="+opts.Condition.String())
	}
	r.emit("play", args...)
}

func (r *Recorder) Measure(op, element string, opts MeasureOptions) (Var, Var) {
	i, q := opts.I, opts.Q
	if i == nil {
		v := r.Declare(Fixed)
		i = &v
	}
	if q == nil {
		v := r.Declare(Fixed)
		q = &v
	}
	args := []string{op, element, "I=" + i.Name, "Q=" + q.Name}
	if opts.Stream != "" {
		args = append(args, "stream="+opts.Stream)
	}
	r.emit("measure", args...)
	return *i, *q
}

func (r *Recorder) While(cond Expr, body func()) {
	r.frames = append(r.frames, nil)
	body()
	inner := r.frames[len(r.frames)-1]
	r.frames = r.frames[:len(r.frames)-1]

	top := len(r.frames) - 1
	r.frames[top] = append(r.frames[top], Statement{Op: "while", Args: []string{cond.String()}, Body: inner})
}

func (r *Recorder) Save(v Var, stream string) {
	r.emit("save", v.Name, stream)
}
