// Command spendlens-cli runs ledger and report operations against the
// configured store without starting the server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"spendlens/internal/cli"
	"spendlens/internal/config"
	"spendlens/internal/core"
	"spendlens/internal/log"
	"spendlens/internal/services"
)

func main() {
	cli.LoadEnvFile()
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := cli.SetupLogger(level, log.ComponentCLI)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		usage(os.Stderr)
		return fmt.Errorf("unknown command %q", name)
	}

	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.Close()

	rc, err := cli.ReportsConfig(cfg, nil)
	if err != nil {
		return err
	}
	ledger := services.NewLedger(be.Store, logger)
	reports := services.NewReports(ledger, rc, logger)
	if err := ledger.Load(ctx); err != nil {
		return err
	}

	a := &app{ledger: ledger, reports: reports, out: os.Stdout}
	return cmd.run(ctx, a, args)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: spendlens-cli <command> [flags]")
	fmt.Fprintln(w, "\ncommands:")
	for _, name := range commandNames() {
		fmt.Fprintf(w, "  %-13s %s\n", name, commands[name].help)
	}
	fmt.Fprintf(w, "\ncategories: %s (any other name is accepted)\n", strings.Join(core.DefaultCategories(), ", "))
}
