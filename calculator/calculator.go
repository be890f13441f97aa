// Package calculator defines the Calculator contract (spec §4.4 external
// reference / C4): a pure function from opaque parameters to an opaque
// result, standing in for an external simulation binary wrapper (the
// Python source's XeKrSeparation RASPA wrapper). The core treats it as a
// sealed interface; this package ships only an adapter and a demo
// implementation, per spec.md's explicit non-goal scoping the calculator
// to its interface.
package calculator

import "github.com/bundaberg-joey/amiscreen"

// Calculator computes the domain "truth" for one candidate's opaque
// parameters. A returned error is treated by the worker pool as a job
// failure (spec §7): it is captured on the completion handle and surfaced
// to the scheduler as a None result, never propagated as a submission
// failure.
type Calculator interface {
	Calculate(params ami.SerializedOpaque) (ami.SerializedOpaque, error)
	Schema() ami.Schema
}

// FuncCalculator adapts a plain function to the Calculator interface.
type FuncCalculator struct {
	Fn         func(ami.SerializedOpaque) (ami.SerializedOpaque, error)
	CalcSchema ami.Schema
}

func (f FuncCalculator) Calculate(params ami.SerializedOpaque) (ami.SerializedOpaque, error) {
	return f.Fn(params)
}

func (f FuncCalculator) Schema() ami.Schema {
	return f.CalcSchema
}
