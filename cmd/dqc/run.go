package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emo-bon/dqc/internal/authority"
	"github.com/emo-bon/dqc/internal/config"
	"github.com/emo-bon/dqc/internal/core"
	"github.com/emo-bon/dqc/internal/engine"
	"github.com/emo-bon/dqc/internal/logging"
	"github.com/emo-bon/dqc/internal/repair"
	"github.com/emo-bon/dqc/internal/report"
	"github.com/emo-bon/dqc/internal/rules"
)

// listOnly is a placeholder resolver for building rule sets that are never run.
type listOnly struct{}

func (listOnly) Name() string { return "none" }

func (listOnly) Resolve(context.Context, string) (string, error) {
	return "", authority.ErrUnresolved
}

// session is the configured state shared by run and repair.
type session struct {
	cfg       *config.Config
	habitat   core.Habitat
	threshold time.Time
	logfile   io.Closer
}

// openSession loads configuration, resolves the habitat scope and starts
// logging to data-quality-control/logfile and stderr.
func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if err := os.MkdirAll(cfg.Workspace.QualityDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create quality dir: %w", err)
	}
	logfile, err := os.Create(filepath.Join(cfg.Workspace.QualityDir(), "logfile"))
	if err != nil {
		return nil, fmt.Errorf("create logfile: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, io.MultiWriter(logfile, os.Stderr))
	slog.Info("configuration loaded", "config", cfg.String())

	habitat, err := core.ResolveHabitat(cfg.Logsheets.SedimentEnabled(), cfg.Logsheets.WaterEnabled())
	if err != nil {
		logfile.Close()
		return nil, err
	}
	threshold, err := time.Parse(time.DateOnly, cfg.Logsheets.ThresholdDate)
	if err != nil {
		logfile.Close()
		return nil, fmt.Errorf("threshold date: %w", err)
	}

	return &session{cfg: cfg, habitat: habitat, threshold: threshold, logfile: logfile}, nil
}

func (s *session) Close() error { return s.logfile.Close() }

// signalContext returns a context tagged with a fresh run ID that is
// cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return logging.WithRunID(ctx, uuid.NewString()), cancel
}

func runRun(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	logger := logging.FromContext(ctx)
	logger.Info("quality control started", "habitat", s.habitat, "threshold", s.cfg.Logsheets.ThresholdDate)

	ws := s.cfg.Workspace
	// Habitats write disjoint files, so they are filtered side by side.
	g, gctx := errgroup.WithContext(ctx)
	for _, h := range s.habitat.Habitats() {
		g.Go(func() error {
			if _, err := core.FilterLogsheets(gctx, ws.RawDir(), ws.FilteredDir(), h, s.threshold); err != nil {
				return fmt.Errorf("filter %s logsheets: %w", h, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	client := authority.NewHTTPClient(s.cfg.Authority.Timeout)
	entries, err := core.FetchSchemaConfig(ctx, client, s.cfg.Logsheets.SchemaURL)
	if err != nil {
		return err
	}
	model, err := core.LoadDataModel(ctx, ws.FilteredDir(), s.habitat, entries)
	if err != nil {
		return err
	}

	rs, err := rules.Build(s.habitat, rules.Options{
		ORCID:    authority.NewORCID(s.cfg.Authority.ORCIDBaseURL, client),
		Taxonomy: authority.NewNCBI(s.cfg.Authority.NCBIBaseURL, client),
	})
	if err != nil {
		return err
	}

	var sinks []engine.Sink
	if s.cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, s.cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		sink := engine.NewPostgresSink(pool)
		if err := sink.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, sink)
	}

	res, err := engine.New(filepath.Join(ws.QualityDir(), "dqc.csv"), sinks...).Run(ctx, rs, model)
	if err != nil {
		return err
	}

	human := report.Entries(res.Violations, model)
	if err := report.WriteFile(filepath.Join(ws.QualityDir(), "report.csv"), human); err != nil {
		return err
	}
	summary := report.Summary{
		RunID:      res.RunID,
		Habitat:    string(s.habitat),
		Threshold:  s.cfg.Logsheets.ThresholdDate,
		Generated:  time.Now(),
		Total:      len(res.Violations),
		Repairable: res.Repairable,
		Entries:    human,
	}
	if err := report.WriteHTML(ctx, filepath.Join(ws.QualityDir(), "report.html"), summary); err != nil {
		return err
	}

	if noRepair {
		logger.Info("quality control finished, repairs skipped", "violations", len(res.Violations))
		return nil
	}
	if _, err := repair.Transform(ctx, ws.FilteredDir(), ws.TransformedDir(), s.habitat, entries, res.Violations); err != nil {
		return err
	}
	logger.Info("quality control finished", "violations", len(res.Violations), "manual_fixes", len(human))
	return nil
}

func runRepair(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	ws := s.cfg.Workspace
	path := reportPath
	if path == "" {
		path = filepath.Join(ws.QualityDir(), "dqc.csv")
	}
	violations, err := engine.ReadReportFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no report at %s; run dqc run first", path)
	}
	if err != nil {
		return err
	}

	entries, err := core.FetchSchemaConfig(ctx, authority.NewHTTPClient(s.cfg.Authority.Timeout), s.cfg.Logsheets.SchemaURL)
	if err != nil {
		return err
	}
	_, err = repair.Transform(ctx, ws.FilteredDir(), ws.TransformedDir(), s.habitat, entries, violations)
	return err
}
