package trace

import "context"

// SpanContext is what a child span needs from its parent.
type SpanContext struct {
	SpanID uint64
	Scope  Scope
	Track  uint64
	Module string
	Stage  string
}

// WithModule returns sc with its module name replaced, for opening a span
// that lowers a different module.
func (sc SpanContext) WithModule(name string) SpanContext {
	sc.Module = name
	return sc
}

type ctxKey struct{}

// ctxState is stored as one value so tracer and span travel together.
type ctxState struct {
	tracer Tracer
	span   SpanContext
}

func stateOf(ctx context.Context) ctxState {
	if ctx != nil {
		if st, ok := ctx.Value(ctxKey{}).(ctxState); ok {
			return st
		}
	}
	return ctxState{tracer: Nop}
}

// FromContext returns the tracer carried by ctx, or Nop.
func FromContext(ctx context.Context) Tracer { return stateOf(ctx).tracer }

// CurrentSpan returns the innermost span started with StartFromContext or
// installed by WithSpanContext.
func CurrentSpan(ctx context.Context) SpanContext { return stateOf(ctx).span }

// WithTracer attaches t to ctx. The current span is kept.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	st := stateOf(ctx)
	st.tracer = t
	return context.WithValue(ctx, ctxKey{}, st)
}

// WithSpanContext makes sc the parent of spans started from the result.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	st := stateOf(ctx)
	st.span = sc
	return context.WithValue(ctx, ctxKey{}, st)
}
