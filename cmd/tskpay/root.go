package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tskpay/tskpay-core/internal/audit"
	"github.com/tskpay/tskpay-core/internal/commands"
	"github.com/tskpay/tskpay-core/internal/record"
	"github.com/tskpay/tskpay-core/internal/store"
	"github.com/tskpay/tskpay-core/migrations"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	Quiet      bool
}

// newRootCommand creates the root command. Configuration is loaded
// before any subcommand runs, except version.
func newRootCommand(a *app) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "tskpay",
		Short:         "TSK Pay data engine",
		Long:          "Maintenance and command dispatch for the TSK Pay club records database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default $TSKPAY_CONFIG)")
	cmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "discard log output")

	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newInitCommand(a))
	cmd.AddCommand(newStatusCommand(a))
	cmd.AddCommand(newListCommand(a))
	cmd.AddCommand(newGetCommand(a))
	cmd.AddCommand(newCreateCommand(a))
	cmd.AddCommand(newUpdateCommand(a))
	cmd.AddCommand(newDeleteCommand(a))
	cmd.AddCommand(newMemberParentsCommand(a))
	cmd.AddCommand(newParentMembersCommand(a))
	cmd.AddCommand(newExportCommand(a))
	cmd.AddCommand(newImportCommand(a))
	cmd.AddCommand(newInvokeCommand(a))
	cmd.AddCommand(newAuditCommand(a))

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build and schema version",
		Args:  cobra.NoArgs,
		// Version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tskpay %s (commit %s, built %s), schema version %d\n",
				version, commit, date, migrations.CurrentVersion)
			return nil
		},
	}
}

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := a.service.Init(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database location and schema version without modifying it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := a.manager.Status(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), status)
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <table>",
		Short: "List every row of an entity table",
		Long:  "List every row of an entity table.\n\nTables: " + strings.Join(store.Tables(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.service.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Print one row, or null when absent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.service.Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newCreateCommand(a *app) *cobra.Command {
	var (
		data       string
		generateID bool
	)

	cmd := &cobra.Command{
		Use:   "create <table>",
		Short: "Insert a row and print it as stored",
		Long: `Insert a row and print it as stored.

Example:
  tskpay create parents --data '{"id":"par-1","first_name":"Ana","last_name":"Novak"}'
  tskpay create coaches --generate-id --data '{"name":"Maja"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]

			rec, err := parseData(data)
			if err != nil {
				return err
			}

			if _, ok := rec.ID(); !ok && generateID {
				id, err := store.NewID(table)
				if err != nil {
					return err
				}
				rec["id"] = id
			}

			created, err := a.service.Create(cmd.Context(), table, rec)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), created)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "row as a JSON object")
	cmd.Flags().BoolVar(&generateID, "generate-id", false, "assign a prefixed id when data has none")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func newUpdateCommand(a *app) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "update <table> <id>",
		Short: "Set the given columns on one row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseData(data)
			if err != nil {
				return err
			}
			return a.service.Update(cmd.Context(), args[0], args[1], rec)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "columns to set as a JSON object")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete one row; deleting an absent id succeeds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.service.Delete(cmd.Context(), args[0], args[1])
		},
	}
}

func newMemberParentsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member-parents",
		Short: "Read or replace the parents linked to a member",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <member-id>",
		Short: "List the parent ids of a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.service.GetMemberParents(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ids)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <member-id> [parent-id...]",
		Short: "Replace the parent set of a member; no parent ids clears it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.service.SetMemberParents(cmd.Context(), args[0], args[1:])
		},
	})

	return cmd
}

func newParentMembersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parent-members <parent-id>",
		Short: "List the member ids linked to a parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.service.GetParentMembers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ids)
		},
	}
}

func newExportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <destination>",
		Short: "Copy the database file to a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.service.ExportDatabase(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), commands.ExportResult{Path: path})
		},
	}
}

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <source>",
		Short: "Replace the database file, keeping a pre-import backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backupPath, err := a.service.ImportDatabase(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), commands.ImportResult{BackupPath: backupPath})
		},
	}
}

func newInvokeCommand(a *app) *cobra.Command {
	var payload string

	cmd := &cobra.Command{
		Use:   "invoke <command>",
		Short: "Run a desktop shell command with JSON arguments",
		Long: fmt.Sprintf(`Run a desktop shell command with JSON arguments.

Commands: %s

Example:
  tskpay invoke db_set_member_parents --args '{"memberId":"mem-1","parentIds":["par-1"]}'`,
			strings.Join(commands.Commands(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.service.Dispatch(cmd.Context(), args[0], []byte(payload))
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := json.Indent(&buf, result, "", "  "); err != nil {
				return fmt.Errorf("formatting result: %w", err)
			}
			buf.WriteByte('\n')
			_, err = buf.WriteTo(cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVar(&payload, "args", "{}", "command arguments as JSON")

	return cmd
}

func newAuditCommand(a *app) *cobra.Command {
	var filter audit.Filter

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List the audit trail, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.service.ListAudit(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&filter.Action, "action", "", "only entries with this action")
	cmd.Flags().StringVar(&filter.UserID, "user", "", "only entries by this user id")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "page size (max 200)")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "entries to skip")

	return cmd
}

// parseData decodes a --data flag into a Record.
func parseData(data string) (record.Record, error) {
	rec, err := record.Decode([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("invalid --data JSON: %w", err)
	}
	return rec, nil
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}
