package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irkit/internal/pipeline"
)

func TestProgressModelTracksModules(t *testing.T) {
	events := make(chan pipeline.Event)
	m := NewProgressModel("build", []string{"fib", "hello"}, events).(*progressModel)

	steps := []pipeline.Event{
		{Status: pipeline.StatusWorking},
		{Module: "fib", Stage: pipeline.StageMaterialize, Status: pipeline.StatusWorking, Detail: "bodies", Done: 1, Total: 2},
		{Module: "hello", Status: pipeline.StatusCached, Stage: pipeline.StageMaterialize},
		{Module: "unknown", Status: pipeline.StatusDone},
	}
	for _, ev := range steps {
		m.Update(eventMsg(ev))
	}

	view := m.View()
	assert.Contains(t, view, "build (running)")
	assert.Contains(t, view, "materializing fib · bodies")
	assert.Contains(t, view, "cached hello")
	assert.InDelta(t, 0.55, itemProgress(m.items[0]), 1e-9)
	assert.Equal(t, 1.0, itemProgress(m.items[1]))

	_, cmd := m.Update(doneMsg{})
	require.NotNil(t, cmd)
	assert.True(t, m.done)
	assert.Contains(t, m.View(), "done: build")
}

func TestListenForEventReportsClose(t *testing.T) {
	events := make(chan pipeline.Event, 1)
	m := NewProgressModel("build", []string{"fib"}, events).(*progressModel)
	events <- pipeline.Event{Module: "fib", Status: pipeline.StatusDone}
	close(events)

	assert.Equal(t, eventMsg{Module: "fib", Status: pipeline.StatusDone}, m.listenForEvent()())
	assert.Equal(t, doneMsg{}, m.listenForEvent()())
}

func TestEmptyModelRendersNothing(t *testing.T) {
	m := NewProgressModel("build", nil, nil)
	assert.Empty(t, m.View())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "界...", truncate("界界界界界", 9))
}

func TestLineSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLineSink(&buf)
	s.OnEvent(pipeline.Event{Status: pipeline.StatusDone})
	s.OnEvent(pipeline.Event{Module: "fib", Status: pipeline.StatusWorking})
	s.OnEvent(pipeline.Event{Module: "fib", Status: pipeline.StatusDone, Elapsed: 1500 * time.Microsecond})
	s.OnEvent(pipeline.Event{Module: "list", Status: pipeline.StatusCached})
	s.OnEvent(pipeline.Event{Module: "list", Status: pipeline.StatusDone})
	s.OnEvent(pipeline.Event{Module: "bad", Stage: pipeline.StageBuild, Status: pipeline.StatusError, Err: errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "fib          done (1.5ms)", lines[0])
	assert.Equal(t, "list         cached", lines[1])
	assert.Equal(t, "bad          error in build: boom", lines[2])
}
