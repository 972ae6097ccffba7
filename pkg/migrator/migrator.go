package migrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/log"
)

// Interface is what commands need from a migrator.
type Interface interface {
	IsConfigured(ctx context.Context) (bool, error)
	Configure(ctx context.Context) error
	// Run executes the next pending migration. It returns nil when nothing is pending.
	Run(ctx context.Context) (*Migration, error)
	// Rollback reverts the last executed migration. It returns nil when nothing was executed.
	Rollback(ctx context.Context) (*Migration, error)
	Repository() (Repository, error)
	Config() (Config, error)
}

// Migrator runs migrations from a Repository against databases from a
// dbal.Provider.
type Migrator struct {
	cfg  Config
	dbs  dbal.Provider
	repo Repository
	logE *logrus.Entry
	now  func() time.Time

	mu      sync.Mutex
	clients map[string]*target
}

type target struct {
	db     *dbal.Database
	client Client
}

// Option configures a Migrator.
type Option func(*Migrator)

func WithLogger(logE *logrus.Entry) Option {
	return func(m *Migrator) {
		m.logE = logE
	}
}

// WithClock replaces time.Now for execution timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Migrator) {
		m.now = now
	}
}

// New creates a Migrator.
func New(cfg Config, dbs dbal.Provider, repo Repository, opts ...Option) *Migrator {
	m := &Migrator{
		cfg:     cfg.withDefaults(),
		dbs:     dbs,
		repo:    repo,
		now:     time.Now,
		clients: make(map[string]*target),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logE = log.OrDiscard(m.logE)
	return m
}

// Config implements Interface.
func (m *Migrator) Config() (Config, error) {
	return m.cfg, nil
}

// Repository implements Interface.
func (m *Migrator) Repository() (Repository, error) {
	return m.repo, nil
}

func (m *Migrator) target(name string) (*target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.clients[name]; ok {
		return t, nil
	}
	db, err := m.dbs.Database(name)
	if err != nil {
		return nil, err
	}
	client, err := NewClient(db.Dialect, db.Table(m.cfg.Table), db.DB)
	if err != nil {
		return nil, err
	}
	t := &target{db: db, client: client}
	m.clients[name] = t
	return t, nil
}

// targets returns the default database and every database migrations point
// at, once each.
func (m *Migrator) targets(migs []*Migration) ([]*target, error) {
	names := []string{""}
	for _, mig := range migs {
		names = append(names, mig.Database)
	}
	seen := make(map[string]bool)
	var targets []*target
	for _, name := range names {
		t, err := m.target(name)
		if err != nil {
			return nil, err
		}
		if seen[t.db.Name] {
			continue
		}
		seen[t.db.Name] = true
		targets = append(targets, t)
	}
	return targets, nil
}

// IsConfigured reports whether every database has a migrations table.
func (m *Migrator) IsConfigured(ctx context.Context) (bool, error) {
	migs, err := m.repo.Migrations()
	if err != nil {
		return false, err
	}
	targets, err := m.targets(migs)
	if err != nil {
		return false, err
	}
	for _, t := range targets {
		ok, err := t.client.HasTable(ctx)
		if err != nil {
			return false, fmt.Errorf("check migrations table of %q: %w", t.db.Name, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Configure creates missing migrations tables.
func (m *Migrator) Configure(ctx context.Context) error {
	migs, err := m.repo.Migrations()
	if err != nil {
		return err
	}
	targets, err := m.targets(migs)
	if err != nil {
		return err
	}
	eg, ctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		eg.Go(func() error {
			if err := t.client.EnsureTable(ctx); err != nil {
				return fmt.Errorf("configure migrations table of %q: %w", t.db.Name, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// load reads the migrations and marks the executed ones.
func (m *Migrator) load(ctx context.Context) ([]*Migration, error) {
	migs, err := m.repo.Migrations()
	if err != nil {
		return nil, err
	}
	executed := make(map[string]map[string]Record)
	for _, mig := range migs {
		records, ok := executed[mig.Database]
		if !ok {
			t, err := m.target(mig.Database)
			if err != nil {
				return nil, err
			}
			records, err = t.client.Executed(ctx)
			if err != nil {
				return nil, fmt.Errorf("read migrations table of %q: %w", t.db.Name, err)
			}
			executed[mig.Database] = records
		}
		rec, ok := records[mig.Key()]
		if !ok {
			mig.setPending()
			continue
		}
		if m.cfg.ValidateChecksums && rec.Md5 != "" && rec.Md5 != mig.Md5 {
			return nil, fmt.Errorf("checksum mismatch for migration %s: the file changed after it was executed", mig.Key())
		}
		mig.setExecuted(rec.TimeExecuted)
	}
	return migs, nil
}

// Run implements Interface.
func (m *Migrator) Run(ctx context.Context) (*Migration, error) {
	migs, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, mig := range migs {
		if mig.state.Status == StatusExecuted {
			continue
		}
		if err := m.apply(ctx, mig, mig.Up, true); err != nil {
			return nil, err
		}
		return mig, nil
	}
	return nil, nil
}

// Rollback implements Interface.
func (m *Migrator) Rollback(ctx context.Context) (*Migration, error) {
	migs, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(migs) - 1; i >= 0; i-- {
		mig := migs[i]
		if mig.state.Status != StatusExecuted {
			continue
		}
		if err := m.apply(ctx, mig, mig.Down, false); err != nil {
			return nil, err
		}
		return mig, nil
	}
	return nil, nil
}

// apply runs script and updates the migrations table in one transaction.
func (m *Migrator) apply(ctx context.Context, mig *Migration, script string, up bool) error {
	t, err := m.target(mig.Database)
	if err != nil {
		return err
	}
	logE := log.WithDatabase(m.logE, t.db.Name).WithField("migration", mig.Key())
	tx, err := t.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if script != "" {
		logE.Debug("executing migration script")
		if _, err := tx.ExecContext(ctx, script); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", mig.Key(), err)
		}
	}
	at := m.now()
	if up {
		err = t.client.Persist(ctx, tx, mig, at)
	} else {
		err = t.client.Forget(ctx, tx, mig)
	}
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update migrations table: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", mig.Key(), err)
	}
	if up {
		mig.setExecuted(at)
		logE.Info("migration executed")
	} else {
		mig.setPending()
		logE.Info("migration rolled back")
	}
	return nil
}
