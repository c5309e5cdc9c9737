package ledger

import (
	"context"

	"ledgerd/modules"
)

// command is a unit of work submitted to the serializer goroutine. It
// receives exclusive access to the engine's state for the duration of its
// call, which is what guarantees "at most one of {Submit, Mine, Reconcile}
// runs at a time" (spec §5) without any lock the rest of the package has to
// remember to take.
type command func(s *engineState) (interface{}, error)

type commandRequest struct {
	fn   command
	resp chan commandResult
}

type commandResult struct {
	val interface{}
	err error
}

// run is the single writer goroutine. It owns e.state outright: nothing
// else in the package ever touches it. Grounded on the teacher's
// ConsensusSet pattern of a lone internal subscriber loop serializing all
// mutation, generalized here with github.com/NebulousLabs/threadgroup
// providing the cooperative shutdown signal instead of a bespoke done
// channel.
func (e *Engine) run() {
	defer e.tg.Done()
	for {
		select {
		case req := <-e.commands:
			val, err := req.fn(e.state)
			e.snap.Store(e.state.publish())
			req.resp <- commandResult{val: val, err: err}
		case <-e.tg.StopChan():
			return
		}
	}
}

// exec enqueues fn on the serializer and blocks for its result, or returns
// early with a Cancelled error if ctx is done or the engine is shutting
// down. Every mutating operation (Submit, Mine, AdmitSystemTransaction, the
// startup Reconcile) goes through exec; read-only accessors do not.
func (e *Engine) exec(ctx context.Context, fn command) (interface{}, error) {
	if err := e.tg.Add(); err != nil {
		return nil, modules.NewError(modules.KindCancelled, "engine is shutting down")
	}
	defer e.tg.Done()

	req := commandRequest{fn: fn, resp: make(chan commandResult, 1)}
	select {
	case e.commands <- req:
	case <-e.tg.StopChan():
		return nil, modules.NewError(modules.KindCancelled, "engine is shutting down")
	case <-ctx.Done():
		return nil, modules.NewError(modules.KindCancelled, "request cancelled before it reached the engine")
	}

	select {
	case res := <-req.resp:
		return res.val, res.err
	case <-e.tg.StopChan():
		return nil, modules.NewError(modules.KindCancelled, "engine is shutting down")
	}
}
