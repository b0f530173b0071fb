package supervisor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/zypin-testing/zypin-core/internal/detector"
	"github.com/zypin-testing/zypin-core/internal/logger"
	"github.com/zypin-testing/zypin-core/internal/metrics"
	"github.com/zypin-testing/zypin-core/internal/provider"
	"github.com/zypin-testing/zypin-core/internal/state"
)

// StartProvider is the opaque provider handle the supervisor acts on. The
// concrete type comes from the registry, but the supervisor itself never
// depends on it; tests inject fakes.
type StartProvider interface {
	Name() string
	Has(c provider.Capability) bool
	Start(ctx context.Context, opts provider.StartOptions) (provider.Handle, error)
}

// Snapshot is a point-in-time read of the supervised table. Records are NOT
// re-verified against the OS; a listed pid may already be dead. Staleness is
// only resolved lazily, on the next start attempt for the same name.
type Snapshot struct {
	Running  int            `json:"running"`
	Packages []state.Record `json:"packages"`
}

// Options configures a Supervisor. Store is required; everything else has
// working defaults.
type Options struct {
	Store     state.Store
	Logger    *slog.Logger
	Log       logger.Config // child stdout/stderr destinations
	GlobalEnv []string      // KEY=VALUE entries handed to provider starts

	// Liveness and termination hooks. Alive defaults to the pid-based
	// detector.PIDDetector; Terminate to detector.Terminate. Tests
	// inject fakes here.
	Alive     func(pid int) bool
	Terminate func(pid int) error
}

// Supervisor owns the persisted table of supervised provider processes.
// It starts them (through the provider's start capability; it never forks
// itself), probes their liveness by pid, and terminates them on cleanup.
//
// Internal failures never escape as errors: start attempts report a boolean,
// persistence problems are logged and the in-memory table stays
// authoritative for the rest of the invocation.
type Supervisor struct {
	mu        sync.RWMutex
	st        state.Store
	logger    *slog.Logger
	logCfg    logger.Config
	globalEnv []string
	alive     func(pid int) bool
	terminate func(pid int) error

	table map[string]state.Record
}

// New builds a supervisor and loads the persisted table. A corrupt or
// unreadable store loads as an empty table (fail-open), never a startup
// error. Loaded records are taken as-is; no liveness check happens here.
func New(opts Options) *Supervisor {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	alive := opts.Alive
	if alive == nil {
		alive = func(pid int) bool {
			ok, _ := detector.PIDDetector{PID: pid}.Alive()
			return ok
		}
	}
	terminate := opts.Terminate
	if terminate == nil {
		terminate = detector.Terminate
	}
	s := &Supervisor{
		st:        opts.Store,
		logger:    log,
		logCfg:    opts.Log,
		globalEnv: opts.GlobalEnv,
		alive:     alive,
		terminate: terminate,
		table:     make(map[string]state.Record),
	}
	if s.st != nil {
		table, err := s.st.Load(context.Background())
		if err != nil {
			log.Warn("state unreadable, starting with empty table", "error", err)
		} else {
			s.table = table
		}
	}
	if s.table == nil {
		s.table = make(map[string]state.Record)
	}
	return s
}

// StartPackage starts the named provider's child process and records it.
// Returns false without spawning when a live record already exists, the
// provider lacks the start capability, or the spawn fails; every refusal is
// logged, never raised.
func (s *Supervisor) StartPackage(ctx context.Context, name string, p StartProvider) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.table[name]; ok {
		if s.alive(rec.PID) {
			s.logger.Warn("already running", "name", name, "pid", rec.PID)
			metrics.IncPackageStartFailure(name)
			return false
		}
		// stale record: the pid is gone, purge before starting fresh
		s.logger.Info("purging stale record", "name", name, "pid", rec.PID)
		delete(s.table, name)
		metrics.IncStalePurged()
		s.persist(ctx)
	}

	if p == nil || !p.Has(provider.CapStart) {
		s.logger.Warn("provider does not support start", "name", name)
		metrics.IncPackageStartFailure(name)
		return false
	}

	outW, errW, err := s.logCfg.Writers(name)
	if err != nil {
		// child output is best-effort; start anyway without log files
		s.logger.Warn("log writers unavailable", "name", name, "error", err)
		outW, errW = nil, nil
	}
	opts := provider.StartOptions{Env: s.globalEnv}
	if outW != nil {
		opts.Stdout = outW
	}
	if errW != nil {
		opts.Stderr = errW
	}

	h, err := p.Start(ctx, opts)
	if err != nil {
		s.logger.Error("start failed", "name", name, "error", err)
		metrics.IncPackageStartFailure(name)
		return false
	}
	if h.PID <= 0 {
		s.logger.Error("start returned no usable pid", "name", name)
		metrics.IncPackageStartFailure(name)
		return false
	}

	s.table[name] = state.Record{Name: name, PID: h.PID, StartedAt: time.Now().UTC()}
	s.persist(ctx)
	metrics.IncPackageStart(name)
	metrics.SetRunningPackages(len(s.table))
	s.logger.Info("started package", "name", name, "pid", h.PID)
	return true
}

// Status returns a snapshot of the current table, sorted by name.
func (s *Supervisor) Status() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]state.Record, 0, len(s.table))
	for _, rec := range s.table {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	return Snapshot{Running: len(recs), Packages: recs}
}

// Cleanup terminates every tracked process, clears the table and persists
// the empty table. A pid that is already gone is a success path, not an
// error. Safe to call more than once; the second call finds an empty table
// and only rewrites it.
func (s *Supervisor) Cleanup(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, rec := range s.table {
		if !s.alive(rec.PID) {
			s.logger.Debug("already dead", "name", name, "pid", rec.PID)
			continue
		}
		if err := s.terminate(rec.PID); err != nil {
			if detector.AlreadyGone(err) {
				// lost the race between probe and signal; still a success
				s.logger.Debug("already dead", "name", name, "pid", rec.PID)
			} else {
				s.logger.Warn("terminate failed", "name", name, "pid", rec.PID, "error", err)
			}
			continue
		}
		s.logger.Info("terminated package", "name", name, "pid", rec.PID)
	}
	s.table = make(map[string]state.Record)
	s.persist(ctx)
	metrics.SetRunningPackages(0)
}

// Close releases the underlying store.
func (s *Supervisor) Close() error {
	if s.st == nil {
		return nil
	}
	return s.st.Close()
}

// persist writes the full table. Failures are logged and swallowed: the
// in-memory table remains authoritative for the rest of this invocation.
func (s *Supervisor) persist(ctx context.Context) {
	if s.st == nil {
		return
	}
	if err := s.st.Save(ctx, s.table); err != nil {
		s.logger.Warn("state persist failed, continuing with in-memory table", "error", err)
	}
}
