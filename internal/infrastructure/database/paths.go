package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tskpay/tskpay-core/internal/infrastructure/config"
)

// Location describes where the database file lives.
//
// Resolution order:
//  1. Path, if set, is used as-is
//  2. DataDir/Filename
//  3. <user config dir>/Identifier/Filename
type Location struct {
	Path       string
	DataDir    string
	Identifier string
	Filename   string
}

// LocationFromConfig builds a Location from the app and database sections.
func LocationFromConfig(cfg *config.Config) Location {
	return Location{
		Path:       cfg.Database.Path,
		DataDir:    cfg.App.DataDir,
		Identifier: cfg.App.Identifier,
		Filename:   cfg.Database.Filename,
	}
}

// Resolve returns the absolute database file path and creates its parent
// directory. Every failure wraps ErrPathResolution.
func (l Location) Resolve() (string, error) {
	path, err := l.path()
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPathResolution, err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), dirPermissions); err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", ErrPathResolution, filepath.Dir(abs), err)
	}

	return abs, nil
}

func (l Location) path() (string, error) {
	if l.Path != "" {
		return l.Path, nil
	}

	if l.Filename == "" {
		return "", fmt.Errorf("%w: no database filename configured", ErrPathResolution)
	}

	if l.DataDir != "" {
		return filepath.Join(l.DataDir, l.Filename), nil
	}

	if l.Identifier == "" {
		return "", fmt.Errorf("%w: no application identifier configured", ErrPathResolution)
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPathResolution, err)
	}

	return filepath.Join(base, l.Identifier, l.Filename), nil
}
