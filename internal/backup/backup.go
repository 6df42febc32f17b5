// Package backup copies the database file to and from user-chosen locations.
//
// The engine does not lock the file against external copies; callers must
// not run Export or Import while a write is in flight.
package backup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// timestampLayout matches the YYYY-MM-DD-HHMMSS stamp in backup names.
	timestampLayout = "2006-01-02-150405"

	exportPrefix       = "tskpay-backup-"
	preImportPrefix    = "tskpay-backup-before-import-"
	backupExt          = ".db"
	filePermissions    = 0600
	dirPermissions     = 0750
	sqliteHeaderLength = 16
)

// sqliteMagic is the 16-byte header every SQLite 3 database starts with.
var sqliteMagic = []byte("SQLite format 3\x00")

var (
	// ErrDatabaseMissing is returned by Export when there is no database file yet.
	ErrDatabaseMissing = errors.New("backup: database does not exist")

	// ErrNotSQLite is returned by Import when the chosen file is not a SQLite database.
	ErrNotSQLite = errors.New("backup: not a SQLite database")
)

// PathResolver resolves the live database file path.
// *database.Manager satisfies it.
type PathResolver interface {
	Path() (string, error)
}

// Service performs export and import of the database file.
type Service struct {
	resolver  PathResolver
	backupDir string
	now       func() time.Time
}

// NewService creates a Service. Pre-import backups go to backupDir, or next
// to the database file when backupDir is empty.
func NewService(resolver PathResolver, backupDir string) *Service {
	return &Service{
		resolver:  resolver,
		backupDir: backupDir,
		now:       time.Now,
	}
}

// DefaultExportName returns the suggested file name for an export.
func (s *Service) DefaultExportName() string {
	return exportPrefix + s.now().Format(timestampLayout) + backupExt
}

// Export copies the database file to dst and returns the written path.
// When dst is an existing directory the default export name is used inside it.
func (s *Service) Export(dst string) (string, error) {
	if dst == "" {
		return "", fmt.Errorf("export destination is required")
	}

	dbPath, err := s.resolver.Path()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrDatabaseMissing, dbPath)
		}
		return "", fmt.Errorf("inspecting database: %w", err)
	}

	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		dst = filepath.Join(dst, s.DefaultExportName())
	}

	if err := copyFile(dbPath, dst); err != nil {
		return "", fmt.Errorf("exporting database: %w", err)
	}

	return dst, nil
}

// Import replaces the database file with src.
//
// The current database, when present, is first copied to a pre-import
// backup whose path is returned. An empty path means nothing was replaced.
// The next connection bootstraps the imported file, upgrading it if it
// was written by an older release.
func (s *Service) Import(src string) (string, error) {
	if err := ValidateSQLiteFile(src); err != nil {
		return "", err
	}

	dbPath, err := s.resolver.Path()
	if err != nil {
		return "", err
	}

	var backupPath string
	if _, err := os.Stat(dbPath); err == nil {
		backupPath, err = s.preImportPath(dbPath)
		if err != nil {
			return "", err
		}
		if err := copyFile(dbPath, backupPath); err != nil {
			return "", fmt.Errorf("backing up current database: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("inspecting database: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), dirPermissions); err != nil {
		return "", fmt.Errorf("creating database directory: %w", err)
	}

	if err := copyFile(src, dbPath); err != nil {
		return "", fmt.Errorf("importing database: %w", err)
	}

	// A leftover rollback journal would be replayed onto the imported file
	if err := os.Remove(dbPath + "-journal"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("removing stale journal: %w", err)
	}

	return backupPath, nil
}

// ValidateSQLiteFile checks that path starts with the SQLite header.
// A header that only starts with "SQLite" is accepted.
func ValidateSQLiteFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, sqliteHeaderLength)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("%w: reading header of %s: %w", ErrNotSQLite, path, err)
	}

	if bytes.Equal(header, sqliteMagic) || strings.HasPrefix(string(header), "SQLite") {
		return nil
	}

	return fmt.Errorf("%w: %s has header %q", ErrNotSQLite, path, header)
}

func (s *Service) preImportPath(dbPath string) (string, error) {
	dir := s.backupDir
	if dir == "" {
		dir = filepath.Dir(dbPath)
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	stamp := s.now().Format(timestampLayout)
	path := filepath.Join(dir, preImportPrefix+stamp+backupExt)
	if _, err := os.Stat(path); err == nil {
		suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
		path = filepath.Join(dir, preImportPrefix+stamp+"-"+suffix+backupExt)
	}
	return path, nil
}

// copyFile copies src to dst through a temporary file in dst's directory
// so dst is never left half-written.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tskpay-copy-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Gone after a successful rename

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close() //nolint:errcheck // Error path
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // Error path
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, filePermissions); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("replacing %s: %w", dst, err)
	}
	return nil
}
