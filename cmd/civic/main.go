package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/ai"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/app"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/cache"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/remote"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/report"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/server"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	local := flag.Bool("local", false, "run the bundled reference server in-process")
	addr := flag.String("addr", "127.0.0.1:8787", "listen address for -local mode")
	flag.Parse()

	if err := run(*configPath, *local, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "civic: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, local bool, addr string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if local {
		srv := server.New(logger.Named("server"),
			time.Duration(cfg.AI.DelayMs)*time.Millisecond)
		go func() {
			if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
				logger.Error("reference server stopped", zap.Error(err))
			}
		}()
		cfg.Server.BaseURL = "http://" + addr
	}

	c, err := cache.New(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("opening report cache: %w", err)
	}
	defer c.Close()

	client := remote.NewClient(cfg.Server.BaseURL,
		time.Duration(cfg.Server.TimeoutSec)*time.Second)

	ctx := context.Background()
	repo, err := report.New(ctx, c, client, logger.Named("repository"))
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Flush(context.Background()); err != nil {
			logger.Error("flushing report cache", zap.Error(err))
		}
	}()

	delegate := ai.New(cfg.AI, client, logger.Named("ai"))

	program := tea.NewProgram(app.New(repo, delegate), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// newLogger builds a file logger; the terminal UI owns stdout, so an
// empty path means logs are dropped.
func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}

	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
