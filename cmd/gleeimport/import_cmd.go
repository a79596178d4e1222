package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/glee/internal/config"
	"github.com/JonMunkholm/glee/internal/core"
	"github.com/JonMunkholm/glee/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

type importOptions struct {
	apply      bool
	logPath    string
	actorID    string
	actorEmail string
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <kind> <file>",
		Short: "Import a CSV file (dry-run by default)",
		Long: "Validates the file and commits its valid rows. Without --apply the\n" +
			"rows are committed to an empty in-memory store, so the report shows\n" +
			"what the file would do on a fresh database. With --apply they are\n" +
			"written to the Postgres database named by DATABASE_URL.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Write to the database (default dry-run)")
	cmd.Flags().StringVar(&opts.logPath, "log", "", "Write the import log CSV to this file")
	cmd.Flags().StringVar(&opts.actorID, "actor", envOr("USER", "gleeimport"), "Actor id recorded as created_by/updated_by")
	cmd.Flags().StringVar(&opts.actorEmail, "actor-email", "", "Actor email (optional)")
	return cmd
}

func runImport(cmd *cobra.Command, kind, path string, opts importOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	actor := core.Actor{ID: opts.actorID, Email: opts.actorEmail}
	if err := actor.Validate(); err != nil {
		return withCode(exitUsage, err)
	}
	def, err := core.Lookup(kind)
	if err != nil {
		return withCode(exitUsage, err)
	}

	records, closeStore, err := openStore(ctx, opts.apply)
	if err != nil {
		return withCode(exitDB, err)
	}
	defer closeStore()

	svc := core.NewService(records, core.NewMemorySessionStore(0), core.ServiceConfig{MaxConcurrentUploads: 1})
	if auditor, ok := records.(core.AuditRecorder); ok {
		svc.SetAuditRecorder(auditor)
	}

	f, err := os.Open(path)
	if err != nil {
		return withCode(exitUsage, err)
	}
	defer f.Close()

	sess, err := svc.StartImport(ctx, actor, kind, filepath.Base(path), f)
	if err != nil {
		return withCode(exitValidation, fmt.Errorf("%s: %w", path, err))
	}
	if err := printReport(out, def, sess.Summary(), sess.Malformed, core.Issues(sess.Records)); err != nil {
		return err
	}

	if _, err := svc.Confirm(ctx, sess.ID); err != nil {
		if errors.Is(err, core.ErrBlockingErrors) {
			return withCode(exitValidation, fmt.Errorf("%s: fix the rows marked as errors and run again", path))
		}
		return err
	}

	sess, err = svc.Commit(ctx, actor, sess.ID)
	if err != nil {
		return err
	}

	mode := "dry-run"
	if opts.apply {
		mode = "applied"
	}
	res := sess.Result
	fmt.Fprintf(out, "%s: %d successful, %d skipped, %d failed\n", mode, res.Successful, res.Skipped, res.Failed)

	if opts.logPath != "" {
		if err := writeLogFile(ctx, svc, sess.ID, opts.logPath); err != nil {
			return err
		}
	}
	if res.Failed > 0 {
		return withCode(exitDB, fmt.Errorf("%d records failed to import", res.Failed))
	}
	return nil
}

// openStore returns the in-memory store for dry runs, or a Postgres store
// configured from the environment.
func openStore(ctx context.Context, apply bool) (core.Store, func(), error) {
	if !apply {
		return store.NewMemoryStore(), func() {}, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	pg := store.NewPGStore(pool)
	if cfg.Database.EnsureSchema {
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return pg, pool.Close, nil
}

func writeLogFile(ctx context.Context, svc *core.Service, id, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := svc.WriteLog(ctx, id, f); err != nil {
		f.Close()
		return fmt.Errorf("write import log: %w", err)
	}
	return f.Close()
}
