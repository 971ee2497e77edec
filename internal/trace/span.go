package trace

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

func nextSeq() uint64 { return seqCounter.Add(1) }

// Span is an open unit of work. A nil or disabled span accepts every call
// and records nothing.
type Span struct {
	tracer  Tracer
	scope   Scope
	name    string
	ctx     SpanContext
	parent  uint64
	started time.Time
	attrs   Attrs
}

// Start opens a span under parent, inheriting its module and stage. Spans
// with no parent start a new track, as do module spans opened directly under
// a run.
func Start(t Tracer, scope Scope, name string, parent SpanContext) *Span {
	if !Enabled(t) {
		return nil
	}
	s := &Span{
		tracer:  t,
		scope:   scope,
		name:    name,
		parent:  parent.SpanID,
		started: time.Now(),
		attrs:   Attrs{Module: parent.Module, Stage: parent.Stage},
	}
	s.ctx = parent
	s.ctx.SpanID = spanCounter.Add(1)
	s.ctx.Scope = scope
	if s.ctx.Track == 0 || (scope == ScopeModule && parent.Scope < ScopeModule) {
		s.ctx.Track = s.ctx.SpanID
	}
	if scope == ScopeStage {
		s.attrs.Stage = name
		s.ctx.Stage = name
	}
	s.emit(KindBegin, s.started)
	open.add(s)
	return s
}

// StartFromContext opens a span under the tracer and span carried by ctx and
// returns a context that makes it the parent of later spans.
func StartFromContext(ctx context.Context, scope Scope, name string) (*Span, context.Context) {
	s := Start(FromContext(ctx), scope, name, CurrentSpan(ctx))
	if s == nil {
		return nil, ctx
	}
	return s, WithSpanContext(ctx, s.ctx)
}

// Context returns the propagation handle of s.
func (s *Span) Context() SpanContext {
	if s == nil {
		return SpanContext{}
	}
	return s.ctx
}

// ID returns the span id, 0 for a disabled span.
func (s *Span) ID() uint64 { return s.Context().SpanID }

// Entity tags s with the function or global it covers.
func (s *Span) Entity(name string) *Span {
	if s != nil {
		s.attrs.Entity = name
	}
	return s
}

// Items records the size of the unit s covers.
func (s *Span) Items(n int) *Span {
	if s != nil {
		s.attrs.Items = n
	}
	return s
}

// Fail marks s as failed with err; nil is ignored.
func (s *Span) Fail(err error) *Span {
	if s != nil && err != nil {
		s.attrs.Err = err.Error()
	}
	return s
}

// End closes s and returns how long it was open.
func (s *Span) End() time.Duration {
	if s == nil {
		return 0
	}
	now := time.Now()
	open.remove(s)
	s.emit(KindEnd, now)
	return now.Sub(s.started)
}

func (s *Span) emit(kind Kind, at time.Time) {
	s.tracer.Emit(&Event{
		Time:     at,
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.ctx.SpanID,
		ParentID: s.parent,
		Track:    s.ctx.Track,
		Name:     s.name,
		Attrs:    s.attrs,
	})
}

// Progress records that stage has finished done of total items. Only debug
// sinks keep progress events.
func Progress(t Tracer, parent SpanContext, stage string, done, total int) {
	if !Enabled(t) || t.Level() < LevelDebug {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindProgress,
		Scope:    ScopeStage,
		ParentID: parent.SpanID,
		Track:    parent.Track,
		Name:     stage,
		Attrs:    Attrs{Module: parent.Module, Stage: stage, Done: done, Total: total},
	})
}

// openSpans tracks the stage and entity spans in flight so heartbeats can
// name where a stuck run is.
type openSpans struct {
	mu    sync.Mutex
	spans map[uint64]*Span
}

var open = openSpans{spans: make(map[uint64]*Span)}

func (o *openSpans) add(s *Span) {
	if s.scope < ScopeStage {
		return
	}
	o.mu.Lock()
	o.spans[s.ctx.SpanID] = s
	o.mu.Unlock()
}

func (o *openSpans) remove(s *Span) {
	o.mu.Lock()
	delete(o.spans, s.ctx.SpanID)
	o.mu.Unlock()
}

// latest returns the attributes of the most recently started open span of
// t, with Items set to the number of open spans of t.
func (o *openSpans) latest(t Tracer) Attrs {
	o.mu.Lock()
	defer o.mu.Unlock()
	var (
		newest *Span
		count  int
	)
	for _, s := range o.spans {
		if s.tracer != t {
			continue
		}
		count++
		if newest == nil || s.ctx.SpanID > newest.ctx.SpanID {
			newest = s
		}
	}
	if newest == nil {
		return Attrs{}
	}
	a := newest.attrs
	a.Items, a.Err = count, ""
	return a
}
