// Package pipeline materializes many modules concurrently, reporting
// progress, timings and diagnostics per module.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"irkit/internal/backend/llvm"
	"irkit/internal/backend/record"
	"irkit/internal/cache"
	"irkit/internal/diag"
	"irkit/internal/ir"
	"irkit/internal/materialize"
	"irkit/internal/observ"
	"irkit/internal/trace"
)

// Job builds one module.
type Job struct {
	Name  string
	Build func() (*ir.Module, error)
}

// Target overrides the triple and data layout of every built module.
type Target struct {
	Triple     string
	DataLayout string
}

// Request configures a run.
type Request struct {
	RunID       string // generated when empty
	Jobs        []Job
	Backend     Backend
	Target      *Target
	OutDir      string // artifacts are not written when empty
	Cache       *cache.DiskCache
	ToolVersion string
	Workers     int // defaults to GOMAXPROCS
	Progress    ProgressSink
	Logger      *zap.SugaredLogger
}

// Result describes the outcome for one job.
type Result struct {
	Module      string
	Artifact    materialize.Artifact
	OutputPath  string
	Cached      bool
	Timings     observ.Report
	Diagnostics []diag.Diagnostic
	Err         error
}

// Report collects the results of a run in job order.
type Report struct {
	RunID   string
	Results []Result
	Elapsed time.Duration
}

// Failed returns the number of jobs that ended in an error.
func (r *Report) Failed() int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Err != nil {
			n++
		}
	}
	return n
}

// Bag gathers every job's diagnostics, sorted and deduplicated.
func (r *Report) Bag(limit int) *diag.Bag {
	bag := diag.NewBag(limit)
	for i := range r.Results {
		bag.AddAll(r.Results[i].Diagnostics)
	}
	bag.Sort()
	bag.Dedup()
	return bag
}

// Run executes every job with at most req.Workers running at once. A failing
// job does not stop the others; its error is kept in its Result. Run itself
// fails only for a malformed request or a canceled context.
func Run(ctx context.Context, req Request) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(req.Jobs) == 0 {
		return nil, fmt.Errorf("pipeline: no jobs")
	}
	switch req.Backend {
	case "":
		req.Backend = BackendLLVM
	case BackendLLVM, BackendCalls:
	default:
		return nil, fmt.Errorf("pipeline: unsupported backend %q (supported: llvm, calls)", req.Backend)
	}
	seen := make(map[string]struct{}, len(req.Jobs))
	for _, job := range req.Jobs {
		if job.Build == nil {
			return nil, fmt.Errorf("pipeline: job %q has no builder", job.Name)
		}
		if _, dup := seen[job.Name]; dup {
			return nil, fmt.Errorf("pipeline: duplicate job %q", job.Name)
		}
		seen[job.Name] = struct{}{}
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	workers := req.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := req.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	r := &runner{
		req: req,
		log: log.With("run", req.RunID),
		tr:  trace.FromContext(ctx),
	}
	start := time.Now()
	root, ctx := trace.StartFromContext(ctx, trace.ScopeRun, "pipeline")
	root.Items(len(req.Jobs))
	r.log.Infow("pipeline started", "jobs", len(req.Jobs), "backend", req.Backend, "workers", workers)

	for _, job := range req.Jobs {
		r.emit(Event{Module: job.Name, Status: StatusQueued})
	}
	r.emit(Event{Status: StatusWorking, Total: len(req.Jobs)})

	report := &Report{RunID: req.RunID, Results: make([]Result, len(req.Jobs))}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range req.Jobs {
		g.Go(func() error {
			report.Results[i] = r.runJob(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	report.Elapsed = time.Since(start)

	failed := report.Failed()
	status := StatusDone
	if failed > 0 {
		status = StatusError
	}
	r.emit(Event{Status: status, Done: len(req.Jobs) - failed, Total: len(req.Jobs), Elapsed: report.Elapsed})
	if failed > 0 {
		root.Fail(fmt.Errorf("%d of %d modules failed", failed, len(req.Jobs)))
	}
	root.End()
	r.log.Infow("pipeline finished", "failed", failed, "elapsed", report.Elapsed)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

type runner struct {
	req Request
	log *zap.SugaredLogger
	tr  trace.Tracer
}

func (r *runner) emit(ev Event) {
	if r.req.Progress == nil {
		return
	}
	ev.RunID = r.req.RunID
	r.req.Progress.OnEvent(ev)
}

func (r *runner) newBackend(m *ir.Module) materialize.Backend {
	if r.req.Backend == BackendCalls {
		return record.New()
	}
	return llvm.ForModule(m)
}

func (r *runner) runJob(ctx context.Context, job Job) (res Result) {
	res.Module = job.Name
	timer := observ.NewTimer()
	started := time.Now()
	span := trace.Start(r.tr, trace.ScopeModule, "job:"+job.Name, trace.CurrentSpan(ctx).WithModule(job.Name))
	ctx = trace.WithSpanContext(ctx, span.Context())
	log := r.log.With("module", job.Name)

	fail := func(stage Stage, err error) Result {
		res.Err = err
		res.Diagnostics = append(res.Diagnostics, diag.FromError(job.Name, err)...)
		res.Timings = timer.Report()
		r.emit(Event{Module: job.Name, Stage: stage, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		span.Fail(err).End()
		log.Warnw("module failed", "stage", stage, "error", err)
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(StageBuild, err)
	}

	r.emit(Event{Module: job.Name, Stage: StageBuild, Status: StatusWorking})
	done := timer.Track("build")
	m, err := job.Build()
	if err == nil && r.req.Target != nil && r.req.Target.Triple != "" {
		err = m.SetTarget(r.req.Target.Triple, r.req.Target.DataLayout)
	}
	done("")
	if err != nil {
		return fail(StageBuild, err)
	}

	var key cache.Key
	if r.req.Cache != nil {
		key, err = cache.KeyFor(m, string(r.req.Backend), r.req.ToolVersion)
		if err != nil {
			return fail(StageMaterialize, err)
		}
		var entry cache.Entry
		hit, err := r.req.Cache.Get(key, &entry)
		switch {
		case err != nil:
			res.Diagnostics = append(res.Diagnostics, cacheWarning(job.Name, err))
			log.Debugw("cache read failed", "error", err)
		case hit:
			res.Artifact = entry.Artifact()
			res.Cached = true
			timer.Add("cache", 0, "hit "+entry.ID)
			r.emit(Event{Module: job.Name, Stage: StageMaterialize, Status: StatusCached})
		}
	}

	if !res.Cached {
		art, err := r.materialize(ctx, job.Name, m, timer)
		if err != nil {
			return fail(StageMaterialize, err)
		}
		res.Artifact = art
		if r.req.Cache != nil {
			entry := &cache.Entry{
				RunID:   r.req.RunID,
				Module:  job.Name,
				Kind:    art.Kind(),
				Data:    art.Bytes(),
				Timings: timer.Report(),
			}
			if err := r.req.Cache.Put(key, entry); err != nil {
				res.Diagnostics = append(res.Diagnostics, cacheWarning(job.Name, err))
				log.Debugw("cache write failed", "error", err)
			}
		}
	}

	if r.req.OutDir != "" {
		r.emit(Event{Module: job.Name, Stage: StageWrite, Status: StatusWorking})
		done := timer.Track("write")
		path, err := writeArtifact(r.req.OutDir, job.Name+r.req.Backend.Ext(), res.Artifact)
		done("")
		if err != nil {
			return fail(StageWrite, err)
		}
		res.OutputPath = path
	}

	res.Timings = timer.Report()
	r.emit(Event{Module: job.Name, Status: StatusDone, Elapsed: time.Since(started)})
	span.End()
	log.Debugw("module done", "cached", res.Cached, "elapsed_ms", res.Timings.TotalMS)
	return res
}

// materialize drives the backend and turns materializer progress into
// events and per-stage timings.
func (r *runner) materialize(ctx context.Context, name string, m *ir.Module, timer *observ.Timer) (materialize.Artifact, error) {
	r.emit(Event{Module: name, Stage: StageMaterialize, Status: StatusWorking})
	mark := time.Now()
	progress := func(p materialize.Progress) {
		r.emit(Event{
			Module: name,
			Stage:  StageMaterialize,
			Status: StatusWorking,
			Detail: p.Stage.String(),
			Done:   p.Done,
			Total:  p.Total,
		})
		if p.Done == p.Total {
			now := time.Now()
			timer.Add("materialize:"+p.Stage.String(), now.Sub(mark), strconv.Itoa(p.Total))
			mark = now
		}
	}
	return materialize.Materialize(ctx, m, r.newBackend(m),
		materialize.WithLogger(r.log),
		materialize.WithProgress(progress),
	)
}

func cacheWarning(module string, err error) diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.IOCacheEntry,
		Message:  err.Error(),
		Primary:  diag.ModuleLocation(module),
	}
}

func writeArtifact(dir, file string, art materialize.Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.Wrap(err, "failed to create output dir")
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, art.Bytes(), 0o600); err != nil {
		return "", errors.Wrapf(err, "failed to write %q", path)
	}
	return path, nil
}
