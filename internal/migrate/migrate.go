// Package migrate evolves the SQLite schema through ordered, versioned steps.
// The schema version lives in PRAGMA user_version and only advances inside
// the same transaction as the step that earned it, so a failed step leaves
// the store exactly where it was and halts startup.
package migrate

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	appErrors "github.com/fikri-aulia/tpq-santri-api/pkg/errors"
)

// Step is one schema transformation targeting a single version.
type Step struct {
	Version int
	Name    string
	// Statements are executed in order for simple DDL steps.
	Statements []string
	// Apply runs instead of Statements when a step needs data-dependent
	// logic. It may record findings on the report.
	Apply func(ctx context.Context, tx *sqlx.Tx, rep *Report) error
}

// Report summarises what a migration run did.
type Report struct {
	FromVersion    int
	ToVersion      int
	StepsApplied   []string
	OrphansDropped int
}

// Migrator applies pending steps against a database handle.
type Migrator struct {
	db     *sqlx.DB
	logger *zap.Logger
	steps  []Step
}

// New constructs a Migrator with the canonical step sequence.
func New(db *sqlx.DB, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{db: db, logger: logger, steps: Steps()}
}

// LatestVersion is the version a fully migrated store reports.
func LatestVersion() int {
	steps := Steps()
	return steps[len(steps)-1].Version
}

// Run applies every pending step. Re-running against a fully migrated store
// is a no-op.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	return m.RunTo(ctx, LatestVersion())
}

// RunTo applies pending steps up to and including the target version.
func (m *Migrator) RunTo(ctx context.Context, target int) (*Report, error) {
	conn, err := m.db.Connx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMigration.Code, appErrors.ErrMigration.Status, "acquire migration connection")
	}
	defer conn.Close() //nolint:errcheck

	current, err := userVersion(ctx, conn)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMigration.Code, appErrors.ErrMigration.Status, "read schema version")
	}

	rep := &Report{FromVersion: current, ToVersion: current}

	// Table rebuilds need foreign key enforcement out of the way; SQLite
	// ignores this pragma inside a transaction, so it brackets the run.
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMigration.Code, appErrors.ErrMigration.Status, "disable foreign keys")
	}
	defer conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON") //nolint:errcheck

	for _, step := range m.steps {
		if step.Version <= current || step.Version > target {
			continue
		}
		if err := m.applyStep(ctx, conn, step, rep); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrMigration.Code, appErrors.ErrMigration.Status,
				fmt.Sprintf("migration step %d (%s) failed", step.Version, step.Name))
		}
		rep.ToVersion = step.Version
		rep.StepsApplied = append(rep.StepsApplied, step.Name)
		m.logger.Info("schema migration applied",
			zap.Int("version", step.Version),
			zap.String("step", step.Name),
		)
	}

	if rep.OrphansDropped > 0 {
		m.logger.Warn("orphaned attendance rows dropped during identity promotion",
			zap.Int("count", rep.OrphansDropped),
		)
	}

	return rep, nil
}

func (m *Migrator) applyStep(ctx context.Context, conn *sqlx.Conn, step Step, rep *Report) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback() //nolint:errcheck
		}
	}()

	if step.Apply != nil {
		if err := step.Apply(ctx, tx, rep); err != nil {
			return err
		}
	} else {
		for _, stmt := range step.Statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", step.Version)); err != nil {
		return fmt.Errorf("advance version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func userVersion(ctx context.Context, conn *sqlx.Conn) (int, error) {
	var v int
	if err := conn.GetContext(ctx, &v, "PRAGMA user_version"); err != nil {
		return 0, err
	}
	return v, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
