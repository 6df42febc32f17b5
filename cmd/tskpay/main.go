// TSK Pay data engine maintenance binary.
//
// tskpay operates on the same database file as the desktop application:
// it bootstraps and migrates the schema, exposes the entity command
// surface (generic CRUD, member/parent links, export and import) as
// subcommands, and runs raw shell commands through `tskpay invoke`.
// Every result is written to stdout as JSON; logs go to stderr.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line arguments without the program name
//   - out: Destination for command results
//
// Returns:
//   - error: nil on success, or error describing failure
func run(ctx context.Context, args []string, out io.Writer) error {
	a := &app{}
	defer a.close()

	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	cmd.SetOut(out)

	return cmd.ExecuteContext(ctx)
}
