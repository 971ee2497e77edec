package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelAdmits(t *testing.T) {
	stage := &Event{Kind: KindBegin, Scope: ScopeStage}
	entity := &Event{Kind: KindEnd, Scope: ScopeEntity}
	progress := &Event{Kind: KindProgress, Scope: ScopeStage}
	failed := &Event{Kind: KindEnd, Scope: ScopeEntity, Attrs: Attrs{Err: "boom"}}
	beat := &Event{Kind: KindHeartbeat, Scope: ScopeRun}

	assert.False(t, LevelOff.Admits(beat))
	assert.True(t, LevelError.Admits(failed))
	assert.False(t, LevelError.Admits(stage))
	assert.True(t, LevelError.Admits(beat))
	assert.True(t, LevelPhase.Admits(stage))
	assert.False(t, LevelPhase.Admits(entity))
	assert.True(t, LevelDetail.Admits(entity))
	assert.False(t, LevelDetail.Admits(progress))
	assert.True(t, LevelDebug.Admits(progress))

	l, err := ParseLevel("DETAIL")
	require.NoError(t, err)
	assert.Equal(t, LevelDetail, l)
	_, err = ParseLevel("everything")
	assert.Error(t, err)
}

func TestRingTracerKeepsNewest(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		r.Emit(&Event{Kind: KindProgress, Scope: ScopeStage, Name: name})
	}
	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "b", snap[0].Name)
	assert.Equal(t, "d", snap[2].Name)
	assert.Less(t, snap[0].Seq, snap[2].Seq)

	var buf bytes.Buffer
	require.NoError(t, r.Dump(&buf, FormatText))
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))
}

func TestDisabledSpansAreNil(t *testing.T) {
	span := Start(Nop, ScopeStage, "types", SpanContext{})
	assert.Nil(t, span)
	assert.Zero(t, span.ID())
	assert.Zero(t, span.Entity("@f").Items(2).Fail(errors.New("x")).End())

	r := NewRingTracer(8, LevelPhase)
	span = Start(r, ScopeEntity, "@main", SpanContext{})
	span.End()
	assert.Empty(t, r.Snapshot(), "entity spans are filtered at phase level")
}

func TestSpansInheritModuleStageAndTrack(t *testing.T) {
	r := NewRingTracer(16, LevelDebug)
	run := Start(r, ScopeRun, "pipeline", SpanContext{}).Items(2)
	job := Start(r, ScopeModule, "job:fib", run.Context().WithModule("fib"))
	mat := Start(r, ScopeModule, "materialize", job.Context())
	bodies := Start(r, ScopeStage, "bodies", mat.Context())
	fn := Start(r, ScopeEntity, "@fib", bodies.Context()).Entity("@fib").Items(4)
	fn.Fail(errors.New("bad block")).End()
	bodies.End()
	mat.End()
	job.End()
	run.End()

	assert.NotEqual(t, run.Context().Track, job.Context().Track, "jobs get their own track")
	assert.Equal(t, job.Context().Track, mat.Context().Track)
	assert.Equal(t, job.Context().Track, fn.Context().Track)

	snap := r.Snapshot()
	require.Len(t, snap, 10)
	fnEnd := snap[5]
	assert.Equal(t, KindEnd, fnEnd.Kind)
	assert.Equal(t, bodies.ID(), fnEnd.ParentID)
	assert.Equal(t, Attrs{Module: "fib", Stage: "bodies", Entity: "@fib", Items: 4, Err: "bad block"}, fnEnd.Attrs)
	assert.Equal(t, Attrs{Items: 2}, snap[9].Attrs)
}

func TestProgressOnlyAtDebug(t *testing.T) {
	detail := NewRingTracer(4, LevelDetail)
	Progress(detail, SpanContext{}, "globals", 1, 3)
	assert.Empty(t, detail.Snapshot())

	debug := NewRingTracer(4, LevelDebug)
	Progress(debug, SpanContext{SpanID: 9, Module: "m"}, "globals", 1, 3)
	snap := debug.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, Attrs{Module: "m", Stage: "globals", Done: 1, Total: 3}, snap[0].Attrs)
	want := fmt.Sprintf("[%6d]   • globals {module=m stage=globals progress=1/3}\n", snap[0].Seq)
	assert.Equal(t, want, string(FormatEvent(&snap[0], FormatText)))
}

func TestStreamTracerChromeIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDebug, FormatChrome)
	span := Start(st, ScopeStage, "validate", SpanContext{})
	span.End()
	require.NoError(t, st.Close())

	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.TraceEvents, 2)
	assert.Equal(t, "B", doc.TraceEvents[0]["ph"])
	assert.Equal(t, "E", doc.TraceEvents[1]["ph"])
	assert.Equal(t, "stage", doc.TraceEvents[1]["cat"])
	assert.Equal(t, map[string]any{"stage": "validate"}, doc.TraceEvents[1]["args"])
}

func TestFormatTextAttrs(t *testing.T) {
	ev := &Event{Seq: 7, Kind: KindEnd, Name: "@f", Attrs: Attrs{Stage: "bodies", Entity: "@f", Items: 3, Err: `no "x"`}}
	assert.Equal(t, "[     7] ← @f {stage=bodies entity=@f items=3 error=\"no \\\"x\\\"\"}\n", string(FormatEvent(ev, FormatText)))
}

func TestNewPicksFormatAndSinks(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeStream, Output: &buf, OutputPath: "out.ndjson"})
	require.NoError(t, err)
	st, ok := tr.(*StreamTracer)
	require.True(t, ok)
	assert.Equal(t, FormatNDJSON, st.format)
	assert.Empty(t, Rings(tr))

	tr, err = New(Config{Level: LevelDetail, Mode: ModeBoth, Output: &buf, RingSize: 8})
	require.NoError(t, err)
	assert.Equal(t, LevelDetail, tr.Level())
	require.Len(t, Rings(tr), 1)
	Start(tr, ScopeRun, "pipeline", SpanContext{}).End()
	assert.Len(t, Rings(tr)[0].Snapshot(), 2)
	assert.Contains(t, buf.String(), "→ pipeline")
	require.NoError(t, tr.Close())

	tr, err = New(Config{Level: LevelOff})
	require.NoError(t, err)
	assert.False(t, Enabled(tr))

	_, err = ParseFormat("xml")
	assert.Error(t, err)
	_, err = ParseMode("disk")
	assert.Error(t, err)
}

func TestHeartbeatNamesOpenWork(t *testing.T) {
	r := NewRingTracer(64, LevelError)
	stage := Start(r, ScopeStage, "bodies", SpanContext{Module: "slow"})
	fn := Start(r, ScopeEntity, "@loop", stage.Context()).Entity("@loop")

	stop := StartHeartbeat(r, time.Millisecond)
	require.Eventually(t, func() bool { return len(r.Snapshot()) > 0 }, time.Second, time.Millisecond)
	stop()
	stop()
	fn.End()
	stage.End()

	beat := r.Snapshot()[0]
	assert.Equal(t, KindHeartbeat, beat.Kind)
	assert.Equal(t, "#1", beat.Detail)
	assert.Equal(t, Attrs{Module: "slow", Stage: "bodies", Entity: "@loop", Items: 2}, beat.Attrs)

	StartHeartbeat(Nop, time.Millisecond)()
}

func TestContextPropagation(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Nop, FromContext(ctx))

	r := NewRingTracer(4, LevelDebug)
	ctx = WithSpanContext(ctx, SpanContext{SpanID: 42})
	ctx = WithTracer(ctx, r)
	assert.Equal(t, Tracer(r), FromContext(ctx))
	assert.Equal(t, uint64(42), CurrentSpan(ctx).SpanID, "tracer swap keeps the span")

	span, child := StartFromContext(ctx, ScopeStage, "types")
	require.NotNil(t, span)
	assert.Equal(t, span.Context(), CurrentSpan(child))
	assert.Equal(t, uint64(42), r.Snapshot()[0].ParentID)

	span, same := StartFromContext(context.Background(), ScopeStage, "types")
	assert.Nil(t, span)
	assert.Equal(t, context.Background(), same)
}
