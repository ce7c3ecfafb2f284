package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cleared-gl/internal/accounts"
	"github.com/cleared-dev/cleared-gl/internal/audit"
	"github.com/cleared-dev/cleared-gl/internal/config"
	"github.com/cleared-dev/cleared-gl/internal/gitops"
)

type initOptions struct {
	name     string
	chart    string
	currency string
	driver   string
	dsn      string
	noGit    bool
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.chart, "chart", "freight_forwarder", "default chart of accounts (freight_forwarder, minimal)")
	cmd.Flags().StringVar(&opts.currency, "currency", "USD", "reporting currency")
	cmd.Flags().StringVar(&opts.driver, "store", config.DriverFile, "store driver (file, postgres)")
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "postgres connection string")
	cmd.Flags().BoolVar(&opts.noGit, "no-git", false, "skip git init and commits")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, opts initOptions) error {
	ctx := cmd.Context()

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	for _, d := range []string{"accounts", "journal", "logs", filepath.Join("import", "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(opts.name, opts.chart)
	cfg.Currency = opts.currency
	cfg.Store.Driver = opts.driver
	cfg.Store.DSN = opts.dsn
	if opts.noGit {
		cfg.Git.AutoCommit = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(".env\nimport/*.csv\n"), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if err := cfg.ApplyEnv(filepath.Join(dir, ".env")); err != nil {
		return err
	}
	p, err := openWithConfig(ctx, dir, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	if _, err := p.engine.InitializeIfEmpty(ctx); err != nil {
		return fmt.Errorf("seeding chart of accounts: %w", err)
	}
	n := len(p.engine.ListAccounts(accounts.Filter{}))

	if cfg.Git.AutoCommit && gitAvailable() {
		repo := gitops.NewRepo(dir, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
		if !repo.IsRepo() {
			if err := repo.Init(ctx); err != nil {
				return err
			}
		}
	}
	if err := p.record(ctx, audit.ActionInit, "", fmt.Sprintf("chart %s, %d accounts", cfg.Business.Chart, n), "init: Initialize "+opts.name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger for %s at %s (%d accounts)\n", opts.name, dir, n)
	return nil
}
