// Package commands is the entity command surface consumed by the desktop shell.
//
// Service exposes typed operations: generic CRUD over the entity tables,
// the member/parent relationship, bootstrap, export and import. Dispatch
// maps the shell's command names and camelCase JSON arguments onto those
// operations and renders results back to JSON.
//
// Every operation acquires its own bootstrapped connection and releases
// it before returning. Successful mutations are announced through an
// optional Notifier; notification failures are logged, never returned.
//
// Usage:
//
//	svc := commands.NewService(manager, backup.NewService(manager, cfg.Backup.Dir))
//	out, err := svc.Dispatch(ctx, "db_get_all", []byte(`{"table":"members"}`))
package commands
