package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/naka-gawa/skills-radar/internal/config"
	"github.com/naka-gawa/skills-radar/internal/discovery"
	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/frontmatter"
	"github.com/naka-gawa/skills-radar/internal/gateway"
	"github.com/naka-gawa/skills-radar/internal/logging"
	"github.com/naka-gawa/skills-radar/internal/metrics"
	"github.com/naka-gawa/skills-radar/internal/pool"
)

// DocumentLocator finds a skill document and, when it was downloaded on the
// way, returns its content.
type DocumentLocator interface {
	LocateDocument(ctx context.Context, repo, skillID string) (domain.RepoLocation, []byte, error)
}

// FileFetcher downloads a file from the source code host.
type FileFetcher interface {
	FetchFile(ctx context.Context, repo, branch, path string) ([]byte, error)
}

// DocumentStore is the durable side of the sync: the document cache and the
// progress record.
type DocumentStore interface {
	HasDocument(ref domain.SkillRef) bool
	WriteDocument(ref domain.SkillRef, content []byte, description string) error
	LoadProgress() (domain.SyncProgress, error)
	SaveProgress(p domain.SyncProgress) error
}

// Progress receives one tick per finished skill. *progressbar.ProgressBar
// satisfies it.
type Progress interface {
	Add(n int) error
}

// Stop reasons reported by a sync run.
const (
	StopBudget      = "time_budget"
	StopMaxFetched  = "max_fetched"
	StopRateLimited = "rate_limited"
	StopCanceled    = "canceled"
)

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeFetched
	outcomeMissing
	outcomeRateLimited
	outcomeFailed
)

type syncResult struct {
	outcome outcome
	elapsed time.Duration
}

// Syncer populates the document cache for a set of skills under a time and
// fetch budget. Progress accumulates across runs.
type Syncer struct {
	locator  DocumentLocator
	files    FileFetcher
	store    DocumentStore
	cfg      config.SyncConfig
	logger   *slog.Logger
	metrics  *metrics.Recorder
	progress Progress
	now      func() time.Time
}

// NewSyncer creates a new Syncer instance.
func NewSyncer(locator DocumentLocator, files FileFetcher, store DocumentStore, cfg config.SyncConfig, logger *slog.Logger, rec *metrics.Recorder) *Syncer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.FlushEvery < 1 {
		cfg.FlushEvery = 50
	}
	return &Syncer{
		locator: locator,
		files:   files,
		store:   store,
		cfg:     cfg,
		logger:  logger,
		metrics: rec,
		now:     time.Now,
	}
}

// WithProgress reports every finished skill to p.
func (s *Syncer) WithProgress(p Progress) *Syncer {
	s.progress = p
	return s
}

// Pending returns the refs a run would consider.
func (s *Syncer) Pending(refs []PrioritizedRef) []PrioritizedRef {
	if !s.cfg.OnlyMissing {
		return refs
	}
	pending := make([]PrioritizedRef, 0, len(refs))
	for _, r := range refs {
		if !s.store.HasDocument(r.SkillRef) {
			pending = append(pending, r)
		}
	}
	return pending
}

// Run syncs refs in the given order. Individual failures never abort the
// run. An unreadable progress record aborts before any work with a nil
// report. Otherwise the returned error is non-nil only when ctx was canceled
// or the progress record could not be saved, and the report is still valid.
func (s *Syncer) Run(ctx context.Context, refs []PrioritizedRef) (*Report, error) {
	start := s.now()
	base, err := s.store.LoadProgress()
	if err != nil {
		return nil, fmt.Errorf("failed to load sync progress: %w", err)
	}

	work := s.Pending(refs)
	report := &Report{
		Candidates: len(refs),
		Skipped:    len(refs) - len(work),
	}
	s.logger.Info("starting document sync",
		slog.Int("candidates", report.Candidates),
		slog.Int("pending", len(work)),
		slog.Int("max_to_fetch", s.cfg.MaxToFetch),
		slog.Duration("time_budget", s.cfg.TimeBudget))

	var deadline time.Time
	if s.cfg.TimeBudget > 0 {
		deadline = start.Add(s.cfg.TimeBudget)
	}
	var (
		reserved    atomic.Int64
		rateLimited atomic.Bool
		stopReason  atomic.Value
	)
	stop := func() bool {
		switch {
		case rateLimited.Load():
			stopReason.CompareAndSwap(nil, StopRateLimited)
		case s.cfg.MaxToFetch > 0 && reserved.Load() >= int64(s.cfg.MaxToFetch):
			stopReason.CompareAndSwap(nil, StopMaxFetched)
		case !deadline.IsZero() && !s.now().Before(deadline):
			stopReason.CompareAndSwap(nil, StopBudget)
		default:
			return false
		}
		return true
	}
	// reserve claims one of the MaxToFetch slots; it fails once all are taken.
	reserve := func() bool {
		if s.cfg.MaxToFetch <= 0 {
			reserved.Add(1)
			return true
		}
		for {
			n := reserved.Load()
			if n >= int64(s.cfg.MaxToFetch) {
				return false
			}
			if reserved.CompareAndSwap(n, n+1) {
				return true
			}
		}
	}

	tracker := &progressTracker{store: s.store, base: base, flushEvery: s.cfg.FlushEvery, now: s.now, logger: s.logger}
	results, poolErr := pool.Map(ctx, work, s.cfg.Concurrency, func(ctx context.Context, r PrioritizedRef) (syncResult, error) {
		began := s.now()
		o := s.syncOne(ctx, r.SkillRef, reserve)
		res := syncResult{outcome: o, elapsed: s.now().Sub(began)}
		if o == outcomeRateLimited {
			rateLimited.Store(true)
		}
		s.metrics.SyncOutcome(o.label(), res.elapsed)
		tracker.record(o)
		if s.progress != nil {
			_ = s.progress.Add(1)
		}
		return res, nil
	}, pool.WithStop(stop))

	if poolErr != nil && ctx.Err() != nil {
		stopReason.CompareAndSwap(nil, StopCanceled)
	}
	if v := stopReason.Load(); v != nil {
		report.Stopped = v.(string)
	}
	report.tally(results)
	report.Elapsed = s.now().Sub(start)

	final, saveErr := tracker.flush()
	report.Progress = final
	s.logger.Info("document sync finished",
		slog.Int("attempted", report.Attempted),
		slog.Int("fetched", report.Fetched),
		slog.Int("missing", report.Missing),
		slog.Int("rate_limited", report.RateLimited),
		slog.String("stopped", report.Stopped),
		slog.Duration("elapsed", report.Elapsed))

	if saveErr != nil {
		return report, fmt.Errorf("failed to save sync progress: %w", saveErr)
	}
	if poolErr != nil {
		return report, poolErr
	}
	return report, nil
}

func (s *Syncer) syncOne(ctx context.Context, ref domain.SkillRef, reserve func() bool) outcome {
	loc, content, err := s.locator.LocateDocument(ctx, ref.Source, ref.SkillID)
	switch {
	case err == nil:
	case errors.Is(err, gateway.ErrRateLimited):
		s.logger.Warn("rate limited while locating skill", logging.Repo(ref.Source), logging.Skill(ref.SkillID))
		return outcomeRateLimited
	case errors.Is(err, discovery.ErrSkillNotFound):
		s.logger.Debug("skill document not found", logging.Repo(ref.Source), logging.Skill(ref.SkillID))
		return outcomeMissing
	default:
		// Canceled while in flight; the ref stays pending.
		return outcomeSkipped
	}

	if content == nil {
		content, err = s.files.FetchFile(ctx, loc.Repo, loc.Branch, loc.Path)
		if errors.Is(err, gateway.ErrRateLimited) {
			return outcomeRateLimited
		}
		if err != nil {
			s.logger.Debug("failed to download located document",
				logging.Repo(loc.Repo), logging.Path(loc.Path), logging.Err(err))
			return outcomeMissing
		}
	}

	if !reserve() {
		return outcomeSkipped
	}
	if err := s.store.WriteDocument(ref, content, frontmatter.Description(content)); err != nil {
		s.logger.Warn("failed to cache skill document", logging.Repo(ref.Source), logging.Skill(ref.SkillID), logging.Err(err))
		return outcomeFailed
	}
	s.logger.Debug("cached skill document",
		logging.Repo(ref.Source), logging.Skill(ref.SkillID),
		slog.String("location", loc.Repo+"@"+loc.Branch+":"+loc.Path))
	return outcomeFetched
}

func (o outcome) label() string {
	switch o {
	case outcomeFetched:
		return metrics.OutcomeOK
	case outcomeMissing:
		return metrics.OutcomeNotFound
	case outcomeRateLimited:
		return metrics.OutcomeRateLimited
	case outcomeFailed:
		return metrics.OutcomeError
	}
	return "skipped"
}

// progressTracker accumulates run counters on top of the stored record and
// persists them every flushEvery attempts. Saves happen under the lock, so
// the record on disk never goes backwards.
type progressTracker struct {
	store      DocumentStore
	base       domain.SyncProgress
	flushEvery int
	now        func() time.Time
	logger     *slog.Logger

	mu                         sync.Mutex
	attempted, fetched, missed int
}

func (t *progressTracker) record(o outcome) {
	if o == outcomeSkipped {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempted++
	switch o {
	case outcomeFetched:
		t.fetched++
	case outcomeMissing:
		t.missed++
	}
	if t.attempted%t.flushEvery == 0 {
		if err := t.store.SaveProgress(t.snapshot()); err != nil {
			t.logger.Warn("failed to save sync progress", logging.Err(err))
		}
	}
}

func (t *progressTracker) flush() (domain.SyncProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.snapshot()
	return p, t.store.SaveProgress(p)
}

func (t *progressTracker) snapshot() domain.SyncProgress {
	return domain.SyncProgress{
		UpdatedAt: t.now().UTC(),
		Attempted: t.base.Attempted + t.attempted,
		Fetched:   t.base.Fetched + t.fetched,
		Missing:   t.base.Missing + t.missed,
	}
}
