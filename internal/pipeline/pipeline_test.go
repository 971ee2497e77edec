package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irkit/internal/cache"
	"irkit/internal/diag"
	"irkit/internal/ir"
	"irkit/internal/samples"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) OnEvent(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) statuses(module string) []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Status
	for _, ev := range l.events {
		if ev.Module == module && (len(out) == 0 || out[len(out)-1] != ev.Status) {
			out = append(out, ev.Status)
		}
	}
	return out
}

func sampleJobs() []Job {
	all := samples.All()
	jobs := make([]Job, len(all))
	for i, s := range all {
		jobs[i] = Job{Name: s.Name, Build: s.Build}
	}
	return jobs
}

func brokenJob() Job {
	return Job{Name: "broken", Build: func() (*ir.Module, error) {
		m := ir.NewModule("broken")
		sig, err := m.FuncType(m.VoidType(), nil, false)
		if err != nil {
			return nil, err
		}
		f, err := m.NewFunction("f", sig)
		if err != nil {
			return nil, err
		}
		_, err = m.NewBlock(f, "entry")
		return m, err
	}}
}

func TestRunWritesEverySample(t *testing.T) {
	out := t.TempDir()
	log := &eventLog{}
	report, err := Run(context.Background(), Request{
		Jobs:     sampleJobs(),
		OutDir:   out,
		Workers:  2,
		Progress: log,
	})
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	assert.Zero(t, report.Failed())

	for i, s := range samples.All() {
		res := report.Results[i]
		require.NoError(t, res.Err, s.Name)
		assert.Equal(t, s.Name, res.Module)
		assert.Equal(t, filepath.Join(out, s.Name+".ll"), res.OutputPath)

		got, err := os.ReadFile(res.OutputPath)
		require.NoError(t, err)
		want, err := os.ReadFile(filepath.Join("..", "backend", "llvm", "testdata", s.Name+".ll"))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), s.Name)

		assert.NotEmpty(t, res.Timings.Phases)
		assert.Equal(t, "build", res.Timings.Phases[0].Name)
		assert.Equal(t, []Status{StatusQueued, StatusWorking, StatusDone}, log.statuses(s.Name))
	}
}

func TestRunKeepsGoingAfterFailure(t *testing.T) {
	fib, _ := samples.Lookup("fib")
	report, err := Run(context.Background(), Request{
		Jobs:    []Job{brokenJob(), {Name: "fib", Build: fib.Build}},
		Backend: BackendCalls,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed())

	broken := report.Results[0]
	require.Error(t, broken.Err)
	require.Len(t, broken.Diagnostics, 1)
	assert.Equal(t, diag.ValMissingTerminator, broken.Diagnostics[0].Code)
	assert.Empty(t, broken.OutputPath)

	ok := report.Results[1]
	require.NoError(t, ok.Err)
	assert.Equal(t, "calls", ok.Artifact.Kind())

	bag := report.Bag(10)
	assert.True(t, bag.HasErrors())
	assert.Equal(t, 1, bag.Len())
}

func TestRunUsesCache(t *testing.T) {
	c, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	req := Request{Jobs: sampleJobs(), Cache: c, ToolVersion: "test"}

	first, err := Run(context.Background(), req)
	require.NoError(t, err)
	for _, res := range first.Results {
		assert.False(t, res.Cached, res.Module)
	}

	log := &eventLog{}
	req.Progress = log
	second, err := Run(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
	for i, res := range second.Results {
		assert.True(t, res.Cached, res.Module)
		assert.Equal(t, first.Results[i].Artifact.Bytes(), res.Artifact.Bytes())
		assert.Contains(t, log.statuses(res.Module), StatusCached)
	}

	req.Target = &Target{Triple: "i686-pc-linux-gnu"}
	third, err := Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, third.Results[0].Cached)
	assert.Contains(t, string(third.Results[0].Artifact.Bytes()), `target triple = "i686-pc-linux-gnu"`)
}

func TestRunRejectsBadRequests(t *testing.T) {
	ctx := context.Background()
	_, err := Run(ctx, Request{})
	assert.Error(t, err)

	_, err = Run(ctx, Request{Jobs: sampleJobs(), Backend: "wasm"})
	assert.Error(t, err)

	jobs := sampleJobs()
	_, err = Run(ctx, Request{Jobs: append(jobs, jobs[0])})
	assert.Error(t, err)

	_, err = Run(ctx, Request{Jobs: []Job{{Name: "nil"}}})
	assert.Error(t, err)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := Run(ctx, Request{Jobs: sampleJobs()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, len(samples.Names()), report.Failed())
	assert.Equal(t, diag.BckCanceled, report.Results[0].Diagnostics[0].Code)
}

func TestBackendExt(t *testing.T) {
	assert.Equal(t, ".ll", BackendLLVM.Ext())
	assert.Equal(t, ".calls", BackendCalls.Ext())
}
