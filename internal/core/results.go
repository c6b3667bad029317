package core

import (
	"fmt"
	"iter"
)

// ResultKind describes how a handler result is rendered.
type ResultKind int

const (
	// ResultNone renders nothing.
	ResultNone ResultKind = iota
	// ResultScalar renders as one line.
	ResultScalar
	// ResultLines renders one line per element of a lazy sequence.
	ResultLines
)

// Result is what a command handler produces.
type Result struct {
	Kind   ResultKind
	Scalar string
	// Lines is finite and not restartable; the renderer consumes it once.
	Lines iter.Seq2[string, error]
}

// NoResult is the empty result.
func NoResult() Result { return Result{} }

// Scalar wraps a single value.
func Scalar(v any) Result {
	return Result{Kind: ResultScalar, Scalar: fmt.Sprint(v)}
}

// Lines wraps a lazy sequence.
func Lines(seq iter.Seq2[string, error]) Result {
	return Result{Kind: ResultLines, Lines: seq}
}

// SliceLines wraps an already built slice of lines.
func SliceLines(lines []string) Result {
	return Lines(func(yield func(string, error) bool) {
		for _, line := range lines {
			if !yield(line, nil) {
				return
			}
		}
	})
}

// Sink receives rendered lines.
type Sink interface {
	Line(text string) error
}

// Render writes a result to the sink. Iteration stops at the first error
// yielded by the sequence; lines already written stay written.
func Render(res Result, sink Sink) error {
	switch res.Kind {
	case ResultNone:
		return nil
	case ResultScalar:
		return sink.Line(res.Scalar)
	}
	if res.Lines == nil {
		return nil
	}
	for line, err := range res.Lines {
		if err != nil {
			return err
		}
		if err := sink.Line(line); err != nil {
			return err
		}
	}
	return nil
}
