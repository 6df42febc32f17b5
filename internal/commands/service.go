package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tskpay/tskpay-core/internal/audit"
	"github.com/tskpay/tskpay-core/internal/infrastructure/database"
	"github.com/tskpay/tskpay-core/internal/record"
	"github.com/tskpay/tskpay-core/internal/store"
)

// Change operations reported to the Notifier.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpLink   = "link"
	OpImport = "import"
)

// Connector hands out bootstrapped connections.
// *database.Manager satisfies it.
type Connector interface {
	Connect(ctx context.Context) (*database.DB, error)
	Init(ctx context.Context) (database.Report, error)
}

// Archiver copies the database file out and in.
// *backup.Service satisfies it.
type Archiver interface {
	Export(dst string) (string, error)
	Import(src string) (string, error)
}

// Notifier is told about every successful mutation.
// *mqtt.ChangeFeed satisfies it.
type Notifier interface {
	NotifyChange(ctx context.Context, table, id, op string) error
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Service implements the entity command surface.
type Service struct {
	conn     Connector
	archiver Archiver
	notifier Notifier
	logger   Logger
}

// NewService creates a Service. archiver may be nil when export and
// import are not offered.
func NewService(conn Connector, archiver Archiver) *Service {
	return &Service{
		conn:     conn,
		archiver: archiver,
		logger:   noopLogger{},
	}
}

// SetNotifier sets the change notifier. nil disables notifications.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetLogger sets the logger for command events.
func (s *Service) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// Init bootstraps the database and reports what was done.
func (s *Service) Init(ctx context.Context) (database.Report, error) {
	return s.conn.Init(ctx)
}

// List returns every row of table.
func (s *Service) List(ctx context.Context, table string) ([]record.Record, error) {
	var records []record.Record
	err := s.withDB(ctx, func(db *database.DB) error {
		var err error
		records, err = store.New(db).GetAll(ctx, table)
		return err
	})
	return records, err
}

// Get returns the row of table with the given id, or nil when there is none.
func (s *Service) Get(ctx context.Context, table, id string) (record.Record, error) {
	var rec record.Record
	err := s.withDB(ctx, func(db *database.DB) error {
		var err error
		rec, err = store.New(db).GetByID(ctx, table, id)
		if errors.Is(err, store.ErrNotFound) {
			rec, err = nil, nil
		}
		return err
	})
	return rec, err
}

// Create inserts rec into table and returns the stored row.
func (s *Service) Create(ctx context.Context, table string, rec record.Record) (record.Record, error) {
	var created record.Record
	err := s.withDB(ctx, func(db *database.DB) error {
		var err error
		created, err = store.New(db).Create(ctx, table, rec)
		return err
	})
	if err != nil {
		return nil, err
	}

	id, _ := created.ID()
	s.notify(ctx, table, id, OpCreate)
	return created, nil
}

// Update sets the columns of rec on the row with the given id.
func (s *Service) Update(ctx context.Context, table, id string, rec record.Record) error {
	err := s.withDB(ctx, func(db *database.DB) error {
		return store.New(db).Update(ctx, table, id, rec)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, table, id, OpUpdate)
	return nil
}

// Delete removes the row with the given id.
func (s *Service) Delete(ctx context.Context, table, id string) error {
	err := s.withDB(ctx, func(db *database.DB) error {
		return store.New(db).Delete(ctx, table, id)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, table, id, OpDelete)
	return nil
}

// GetMemberParents returns the parent ids linked to memberID.
func (s *Service) GetMemberParents(ctx context.Context, memberID string) ([]string, error) {
	var ids []string
	err := s.withDB(ctx, func(db *database.DB) error {
		var err error
		ids, err = store.NewMemberParents(db).GetMemberParents(ctx, memberID)
		return err
	})
	return ids, err
}

// SetMemberParents replaces the parent set of memberID.
func (s *Service) SetMemberParents(ctx context.Context, memberID string, parentIDs []string) error {
	err := s.withDB(ctx, func(db *database.DB) error {
		return store.NewMemberParents(db).SetMemberParents(ctx, memberID, parentIDs)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, "member_parents", memberID, OpLink)
	return nil
}

// GetParentMembers returns the member ids linked to parentID.
func (s *Service) GetParentMembers(ctx context.Context, parentID string) ([]string, error) {
	var ids []string
	err := s.withDB(ctx, func(db *database.DB) error {
		var err error
		ids, err = store.NewMemberParents(db).GetParentMembers(ctx, parentID)
		return err
	})
	return ids, err
}

// ExportDatabase copies the database file to dst and returns the written path.
func (s *Service) ExportDatabase(_ context.Context, dst string) (string, error) {
	if s.archiver == nil {
		return "", fmt.Errorf("export: no archiver configured")
	}
	return s.archiver.Export(dst)
}

// ImportDatabase replaces the database file with src and returns the
// pre-import backup path (empty when no database existed).
//
// The imported file is bootstrapped immediately and the import is recorded
// in its audit log. When bootstrapping fails the imported file stays in
// place and the backup path is returned with the error.
func (s *Service) ImportDatabase(ctx context.Context, src string) (string, error) {
	if s.archiver == nil {
		return "", fmt.Errorf("import: no archiver configured")
	}

	backupPath, err := s.archiver.Import(src)
	if err != nil {
		return "", err
	}

	report, err := s.conn.Init(ctx)
	if err != nil {
		return backupPath, fmt.Errorf("bootstrapping imported database: %w", err)
	}

	err = s.withDB(ctx, func(db *database.DB) error {
		return audit.NewRepository(db).Create(ctx, &audit.Entry{
			Action:      audit.ActionDatabaseImport,
			Description: "Database imported from " + filepath.Base(src),
			Details: map[string]any{
				"source":      src,
				"backup":      backupPath,
				"fromVersion": report.From,
				"toVersion":   report.To,
			},
		})
	})
	if err != nil {
		s.logger.Warn("recording import in audit log failed", "error", err)
	}

	s.logger.Info("database imported",
		"source", src,
		"backup", backupPath,
		"from_version", report.From,
		"to_version", report.To,
	)
	s.notify(ctx, "database", "", OpImport)
	return backupPath, nil
}

// ListAudit returns one page of the audit trail, most recent first.
func (s *Service) ListAudit(ctx context.Context, filter audit.Filter) (*audit.ListResult, error) {
	var result *audit.ListResult
	err := s.withDB(ctx, func(db *database.DB) error {
		var err error
		result, err = audit.NewRepository(db).List(ctx, filter)
		return err
	})
	return result, err
}

// withDB runs fn on a fresh bootstrapped connection and closes it.
func (s *Service) withDB(ctx context.Context, fn func(db *database.DB) error) error {
	db, err := s.conn.Connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Closing after the operation has finished

	return fn(db)
}

func (s *Service) notify(ctx context.Context, table, id, op string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyChange(ctx, table, id, op); err != nil {
		s.logger.Warn("change notification failed",
			"table", table,
			"id", id,
			"op", op,
			"error", err,
		)
	}
}
