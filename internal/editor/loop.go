package editor

import "context"

// Post queues fn to run on the editor goroutine. It is safe to call from
// any goroutine.
func (e *Editor) Post(fn func()) {
	if fn == nil {
		return
	}

	e.queueMu.Lock()
	e.queue = append(e.queue, fn)
	e.queueMu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// RunPending runs queued work until the queue is empty, including work
// queued by the functions it runs. It returns how many ran.
func (e *Editor) RunPending() int {
	n := 0
	for {
		e.queueMu.Lock()
		batch := e.queue
		e.queue = nil
		e.queueMu.Unlock()

		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
			n++
		}
	}
}

// Run processes posted work until ctx is done.
func (e *Editor) Run(ctx context.Context) error {
	for {
		e.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.wake:
		}
	}
}
