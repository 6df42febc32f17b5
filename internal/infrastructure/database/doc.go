// Package database provides SQLite connectivity and schema bootstrap for
// the TSK Pay engine.
//
// This package manages:
//   - Resolving the database file inside the application data directory
//   - Opening connections with foreign-key enforcement
//   - Creating the baseline schema on first run
//   - Applying numbered upgrade steps to older database files
//
// One connection is opened per Connect call. The desktop application is
// single-user; no coordination between concurrent writers is attempted.
//
// Usage:
//
//	mgr := database.NewManagerFromConfig(cfg)
//	mgr.SetLogger(logger)
//
//	db, err := mgr.Connect(ctx)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
// Upgrade Strategy:
//
// The version marker lives in schema_version. Steps are registered in the
// migrations package by the version they produce; Run applies every step
// above the stored version up to the engine version, then advances the
// marker, all inside one transaction.
package database
