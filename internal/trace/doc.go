// Package trace records what the pipeline and the materializer are doing:
// one span per run, per module job, per materializer stage and, at detail
// level, per function body.
//
// Spans carry typed Attrs (module, stage, entity, sizes, failure text)
// rather than free-form strings, and propagate through context:
//
//	span, ctx := trace.StartFromContext(ctx, trace.ScopeModule, "job:fib")
//	defer span.End()
//
// Sinks are a StreamTracer (text, NDJSON or Chrome trace_event JSON), a
// RingTracer that keeps the last events for a dump after a failure, or both
// through Fanout. StartHeartbeat adds periodic beats naming the innermost
// open stage or entity, which is what a hung run is stuck in.
//
// Levels filter what a sink keeps:
//
//	off     nothing
//	error   ends of failed spans
//	phase   run, module and stage spans
//	detail  plus per-function spans
//	debug   plus stage progress events
package trace
