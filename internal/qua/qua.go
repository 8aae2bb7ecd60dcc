// Package qua is the boundary to the pulse-programming DSL. Components emit
// program statements through Builder; the DSL itself lives outside this
// module. Recorder is a Builder that keeps the statements as data, which is
// what the tests and the CLI dry-run use.
package qua

import (
	"fmt"
	"strings"
	"time"
)

// Expr is a DSL expression.
type Expr interface {
	String() string
}

// VarKind is the type of a declared DSL variable.
type VarKind int

const (
	Fixed VarKind = iota
	Int
	Bool
)

func (k VarKind) String() string {
	switch k {
	case Fixed:
		return "fixed"
	case Int:
		return "int"
	case Bool:
		return "bool"
	}
	return fmt.Sprintf("VarKind(%d)", int(k))
}

// Var is a declared DSL variable.
type Var struct {
	Name string
	Kind VarKind
}

func (v Var) String() string { return v.Name }

type literal struct{ v any }

func (l literal) String() string { return fmt.Sprint(l.v) }

// Lit wraps a constant.
func Lit(v any) Expr { return literal{v: v} }

type binary struct {
	op   string
	a, b Expr
}

func (b binary) String() string { return fmt.Sprintf("(%s %s %s)", b.a, b.op, b.b) }

func Gt(a, b Expr) Expr  { return binary{">", a, b} }
func Lt(a, b Expr) Expr  { return binary{"<", a, b} }
func Add(a, b Expr) Expr { return binary{"+", a, b} }
func And(a, b Expr) Expr { return binary{"&", a, b} }

// ClockCycle is the DSL's unit of time.
const ClockCycle = 4 * time.Nanosecond

// Cycles converts d to clock cycles, rounding up.
func Cycles(d time.Duration) int64 {
	return int64((d + ClockCycle - 1) / ClockCycle)
}

// PlayOptions modify a play statement.
type PlayOptions struct {
	// Condition makes the play conditional on a boolean expression.
	Condition Expr
	// Duration overrides the pulse length, in clock cycles.
	Duration Expr
	// AmplitudeScale multiplies the waveform when non-zero.
	AmplitudeScale float64
}

// MeasureOptions modify a measure statement.
type MeasureOptions struct {
	// I and Q receive the demodulated result. Fresh variables are declared
	// when they are nil.
	I, Q *Var
	// Stream tags the result for saving.
	Stream string
}

// Builder emits DSL statements.
type Builder interface {
	Declare(kind VarKind) Var
	Assign(v Var, e Expr)
	Align(elements ...string)
	Wait(duration Expr, elements ...string)
	Play(op, element string, opts PlayOptions)
	Measure(op, element string, opts MeasureOptions) (i, q Var)
	While(cond Expr, body func())
	Save(v Var, stream string)
}

// Program is a finished sequence of statements.
type Program interface {
	Statements() []Statement
}

// Statement is one recorded DSL statement.
type Statement struct {
	Op   string
	Args []string
	Body []Statement
}

func (s Statement) String() string {
	var sb strings.Builder
	s.write(&sb, 0)
	return sb.String()
}

func (s Statement) write(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(s.Op)
	sb.WriteString("(")
	sb.WriteString(strings.Join(s.Args, ", "))
	sb.WriteString(")")
	for _, child := range s.Body {
		sb.WriteString("\n")
		child.write(sb, depth+1)
	}
}

// Format renders statements one per line, nested bodies indented.
func Format(stmts []Statement) string {
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}
