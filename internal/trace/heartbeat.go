package trace

import (
	"fmt"
	"sync"
	"time"
)

// StartHeartbeat emits a heartbeat to t every interval until the returned
// stop function is called. Each beat names the most recently opened stage or
// entity span that is still running, so a beat that repeats the same entity
// points at a stuck lowering. A nil t, a disabled t or a non-positive
// interval starts nothing.
func StartHeartbeat(t Tracer, interval time.Duration) (stop func()) {
	if !Enabled(t) || interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for beat := 1; ; beat++ {
			select {
			case <-done:
				return
			case now := <-tick.C:
				t.Emit(beatEvent(t, beat, now))
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

func beatEvent(t Tracer, beat int, now time.Time) *Event {
	return &Event{
		Time:   now,
		Kind:   KindHeartbeat,
		Scope:  ScopeRun,
		Name:   "heartbeat",
		Detail: fmt.Sprintf("#%d", beat),
		Attrs:  open.latest(t),
	}
}
