package compose

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// EffectFunc is the cooperative task body passed to LaunchEffect. It must
// check ctx.Err() at each suspension point (spec §5 "handlers must check
// [the cancellation token] at each suspension").
type EffectFunc func(ctx context.Context) error

// EffectRunner bounds how many launch_effect bodies may run concurrently
// (spec §5 "Background workers run on an external thread pool") via
// golang.org/x/sync/semaphore, and groups each task for structured
// cancellation via golang.org/x/sync/errgroup — the same pairing
// phanxgames-willow, zmux-server, and KoordeDHT all reach for around
// bounded concurrent work.
type EffectRunner struct {
	sem *semaphore.Weighted

	// OnError is called with any non-cancellation error an effect body
	// returns. Composition/measure/paint errors never escape the frame
	// loop (spec §7); this is the one hook an application gets to observe
	// an effect's failure, since effect result types are application-
	// defined.
	OnError func(key Key, scope ScopeId, err error)
}

// NewEffectRunner creates a runner allowing up to maxConcurrent effect
// bodies to run at once. maxConcurrent <= 0 means unbounded.
func NewEffectRunner(maxConcurrent int64) *EffectRunner {
	r := &EffectRunner{}
	if maxConcurrent > 0 {
		r.sem = semaphore.NewWeighted(maxConcurrent)
	}
	return r
}

// effectTask is one live launch_effect invocation: the key it was started
// with and how to cancel it.
type effectTask struct {
	key    Key
	cancel context.CancelFunc
	group  *errgroup.Group
}

// effectState is the per-scope Remembered bookkeeping LaunchEffect keeps
// across recompositions of its enclosing scope.
type effectState struct {
	runner *EffectRunner
	scope  ScopeId
	task   *effectTask
}

func (s *effectState) stop() {
	if s.task != nil {
		s.task.cancel()
		s.task = nil
	}
}

// relaunch implements the launch_effect key comparison of spec §4.2: an
// unchanged key is a no-op; a changed key cancels whatever was running and
// starts body fresh.
func (s *effectState) relaunch(key Key, scope ScopeId, body EffectFunc) {
	if s.task != nil && s.task.key == key {
		return
	}
	s.stop()

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	task := &effectTask{key: key, cancel: cancel, group: group}
	s.task, s.scope = task, scope

	runner := s.runner
	group.Go(func() error {
		if runner.sem != nil {
			if err := runner.sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer runner.sem.Release(1)
		}
		err := body(gctx)
		if err != nil && !errors.Is(err, context.Canceled) && runner.OnError != nil {
			runner.OnError(key, scope, err)
		}
		return err
	})
}

// LaunchEffect records a cooperative background task keyed by key against
// the Composer's innermost restartable scope (spec §4.2 "launch_effect(key,
// block) ... if key changed since the last visit, cancel the previous
// task, start a new cooperative task tied to the enclosing scope; if key is
// equal, do nothing"). The task is also cancelled if its scope is disposed
// before the key ever changes (wired through Recomposer.DisposeScope).
// runner is typically one *EffectRunner an AppShell owns for its whole
// composition.
func (c *Composer) LaunchEffect(runner *EffectRunner, key Key, body EffectFunc) {
	scope, ok := c.currentReaderScope()
	if !ok {
		return
	}
	state := Remember(c, func() *effectState {
		st := &effectState{runner: runner, scope: scope}
		c.rec.registerEffect(scope, st.stop)
		return st
	})
	state.relaunch(key, scope, body)
}
