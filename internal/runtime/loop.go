// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package runtime

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"

	"github.com/samber/oops"
)

// Error codes attached to loop errors.
const (
	CodeLoopRunning   = "LOOP_RUNNING"
	CodeLoopCondition = "LOOP_CONDITION"
)

var (
	// ErrLoopRunning is returned when Process is entered while the loop is
	// already running.
	ErrLoopRunning = errors.New("loop already running")
	// ErrLoopCondition is returned when the loop condition is false on entry.
	ErrLoopCondition = errors.New("loop condition not met")
)

// Loop runs idle callbacks while its condition holds. Loops nest: a loop's
// subsystems are entered, idled and exited along with it. The loop is
// cooperative and runs entirely on the goroutine calling Process.
type Loop struct {
	ctx     *Context
	running atomic.Bool
	cond    func() bool

	enter []func()
	exit  []func()
	idle  []func()

	subsystems []*Loop
}

// NewLoop creates a loop bound to ctx. A nil cond never holds.
// Panics if ctx is nil.
func NewLoop(ctx *Context, cond func() bool) *Loop {
	if ctx == nil {
		panic("runtime: context cannot be nil")
	}
	return &Loop{ctx: ctx, cond: cond}
}

// Context returns the loop's runtime context.
func (l *Loop) Context() *Context { return l.ctx }

// SetCondition replaces the loop condition.
func (l *Loop) SetCondition(cond func() bool) { l.cond = cond }

// Test evaluates the loop condition.
func (l *Loop) Test() bool { return l.cond != nil && l.cond() }

// OnEnter adds a callback run when Process starts.
func (l *Loop) OnEnter(fn func()) { l.enter = append(l.enter, fn) }

// OnExit adds a callback run when Process returns.
func (l *Loop) OnExit(fn func()) { l.exit = append(l.exit, fn) }

// OnIdle adds a callback run once per iteration.
func (l *Loop) OnIdle(fn func()) { l.idle = append(l.idle, fn) }

// Running reports whether Process is executing.
func (l *Loop) Running() bool { return l.running.Load() }

// Process runs the loop: enter callbacks, then idle callbacks until the
// condition fails or ctx is done, then exit callbacks. Exit callbacks run
// whenever enter callbacks did.
func (l *Loop) Process(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return oops.In("runtime").Code(CodeLoopRunning).Wrap(ErrLoopRunning)
	}
	defer l.running.Store(false)

	l.onEnter()
	defer l.onExit()

	if !l.Test() {
		return oops.In("runtime").Code(CodeLoopCondition).Wrap(ErrLoopCondition)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.onIdle()
		if !l.Test() {
			return nil
		}
	}
}

func (l *Loop) onEnter() {
	for _, fn := range l.enter {
		fn()
	}
	for _, sub := range l.subsystems {
		sub.onEnter()
	}
}

// onExit unwinds in reverse: subsystems last-in first, then own callbacks.
func (l *Loop) onExit() {
	for _, sub := range slices.Backward(l.subsystems) {
		sub.onExit()
	}
	for _, fn := range slices.Backward(l.exit) {
		fn()
	}
}

func (l *Loop) onIdle() {
	for _, fn := range l.idle {
		fn()
	}
	for _, sub := range l.subsystems {
		sub.onIdle()
	}
}

func (l *Loop) validSubsystem(sub *Loop) bool {
	return sub != nil && sub != l && sub.ctx == l.ctx
}

// Insert adds sub as a subsystem. It returns false when sub is nil, the
// loop itself, or bound to another context. Inserting twice is a no-op
// that returns true.
func (l *Loop) Insert(sub *Loop) bool {
	if !l.validSubsystem(sub) {
		return false
	}
	if !slices.Contains(l.subsystems, sub) {
		l.subsystems = append(l.subsystems, sub)
	}
	return true
}

// Erase removes sub and reports whether it was present.
func (l *Loop) Erase(sub *Loop) bool {
	i := slices.Index(l.subsystems, sub)
	if i < 0 {
		return false
	}
	l.subsystems = slices.Delete(l.subsystems, i, i+1)
	return true
}

// Contains reports whether sub is a direct subsystem.
func (l *Loop) Contains(sub *Loop) bool {
	return l.validSubsystem(sub) && slices.Contains(l.subsystems, sub)
}

// Subsystems returns the direct subsystems in insertion order.
func (l *Loop) Subsystems() []*Loop { return slices.Clone(l.subsystems) }
