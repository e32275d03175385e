package checks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/camel-workshop/tester/internal/drugstore"
	"github.com/camel-workshop/tester/internal/metrics"
	"github.com/camel-workshop/tester/internal/models"
)

// DefaultSeed is the filename seed used when Options.Seed is left zero.
const DefaultSeed int64 = 1

type Options struct {
	// HTTPClient is used for every call to the service under test.
	HTTPClient *http.Client
	// UploadFile is the local PDF sent by the upload check.
	UploadFile string
	// Seed drives the shared upload/download file name. Zero means DefaultSeed.
	Seed int64
	// ClusterTimeout bounds the cluster session of the persistent data check.
	ClusterTimeout time.Duration
	// OpenSession defaults to OpenKube.
	OpenSession SessionOpener
}

// Suite runs the six checks one after another. A Suite holds no per-run
// state and can serve concurrent runs.
type Suite struct {
	log    *slog.Logger
	httpc  *http.Client
	checks []Check
}

func NewSuite(l *slog.Logger, o Options) *Suite {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.OpenSession == nil {
		o.OpenSession = OpenKube
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.ClusterTimeout <= 0 {
		o.ClusterTimeout = 5 * time.Minute
	}
	return &Suite{
		log:   l,
		httpc: o.HTTPClient,
		checks: []Check{
			createDrug{},
			updateDrug{},
			disableDrug{},
			uploadFile{path: o.UploadFile, seed: o.Seed},
			persistentData{open: o.OpenSession, timeout: o.ClusterTimeout},
			downloadFile{seed: o.Seed},
		},
	}
}

// Run executes every check against req and never stops early: a failing or
// faulting check is recorded and the next one runs.
func (s *Suite) Run(ctx context.Context, runID string, req models.Request) *Report {
	log := s.log.With(slog.String("run", runID), slog.String("target", req.BaseURL))
	t := &Target{Request: req, Store: drugstore.New(req.BaseURL, s.httpc, log), Log: log}
	rep := &Report{RunID: runID}
	metrics.IncRun()
	for _, c := range s.checks {
		start := time.Now()
		res := runOne(ctx, c, t)
		d := time.Since(start)
		metrics.ObserveCheck(c.Name(), res.Passed(), d)
		if res.Passed() {
			log.Info("check passed", slog.String("check", c.Name()), slog.Duration("duration", d))
		} else {
			log.Warn("check failed", slog.String("check", c.Name()), slog.String("reason", res.String()), slog.Duration("duration", d))
		}
		rep.add(c.Name(), res)
	}
	if !rep.Passed() {
		metrics.IncRunFailed()
	}
	return rep
}

func runOne(ctx context.Context, c Check, t *Target) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			t.Log.Error("check panicked", slog.String("check", c.Name()), slog.Any("panic", rec))
			res = Fail(fmt.Sprintf("the check %s aborted: %v", c.Name(), rec))
		}
	}()
	return c.Run(ctx, t)
}
