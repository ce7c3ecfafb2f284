package commands

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/cleared-gl/internal/audit"
	"github.com/cleared-dev/cleared-gl/internal/config"
	"github.com/cleared-dev/cleared-gl/internal/gitops"
	"github.com/cleared-dev/cleared-gl/internal/gl"
	"github.com/cleared-dev/cleared-gl/internal/logging"
	"github.com/cleared-dev/cleared-gl/internal/model"
	"github.com/cleared-dev/cleared-gl/internal/store"
)

// project is an opened ledger directory: its config, logger and engine.
type project struct {
	dir    string
	cfg    *config.Config
	log    *zap.Logger
	engine *gl.Engine
	closer func()
}

// openProject loads dir/gl.yaml and opens the configured store.
func openProject(ctx context.Context, dir string) (*project, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.LoadDir(absDir)
	if err != nil {
		return nil, err
	}
	return openWithConfig(ctx, absDir, cfg)
}

func openWithConfig(ctx context.Context, dir string, cfg *config.Config) (*project, error) {
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	p := &project{dir: dir, cfg: cfg, log: log, closer: func() {}}

	var st gl.Store
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := store.ConnectPostgres(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		p.closer = pg.Close
		st = pg
	case config.DriverMemory:
		st = store.NewMemory(nil, nil)
	default:
		root := dir
		if cfg.Store.Path != "" {
			root = filepath.Join(dir, cfg.Store.Path)
		}
		st = store.NewFile(root)
	}

	p.engine, err = gl.Open(ctx, st, gl.WithLogger(log), gl.WithChart(cfg.Business.Chart))
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	return p, nil
}

// Close releases the store and flushes the logger.
func (p *project) Close() {
	p.closer()
	_ = p.log.Sync()
}

// account resolves an account by code, falling back to ID.
func (p *project) account(ref string) (model.Account, error) {
	a, err := p.engine.AccountByCode(ref)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Account{}, err
	}
	return p.engine.GetAccount(ref)
}

// record writes an audit row and, when auto-commit is on and the project is
// a git repository, commits everything with message.
func (p *project) record(ctx context.Context, action, subject, details, message string) error {
	actor := fmt.Sprintf("%s <%s>", p.cfg.Git.AuthorName, p.cfg.Git.AuthorEmail)
	if err := audit.Append(p.dir, audit.Record{
		Timestamp: time.Now(),
		Actor:     actor,
		Action:    action,
		Subject:   subject,
		Details:   details,
	}); err != nil {
		return err
	}

	if !p.cfg.Git.AutoCommit {
		return nil
	}
	repo := gitops.NewRepo(p.dir, p.cfg.Git.AuthorName, p.cfg.Git.AuthorEmail)
	if !repo.IsRepo() {
		return nil
	}
	hash, err := repo.CommitAll(ctx, message)
	if err != nil {
		return err
	}
	p.log.Debug("committed", zap.String("action", action), zap.String("commit", hash))
	return nil
}

// gitAvailable reports whether a git binary is on PATH.
func gitAvailable() bool {
	_, err := exec.LookPath("git")
	return err == nil
}
