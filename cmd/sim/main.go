package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/fast-dialogue/internal/config"
	"github.com/jwebster45206/fast-dialogue/internal/logger"
	"github.com/jwebster45206/fast-dialogue/internal/simhost"
	"github.com/jwebster45206/fast-dialogue/internal/submodule"
	"github.com/jwebster45206/fast-dialogue/pkg/observer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI; logs only go to LOG_FILE.
	var log *slog.Logger
	var closer io.Closer
	if cfg.LogFile != "" {
		log, closer, err = logger.Setup(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			_ = closer.Close()
		}()
	} else {
		log = logger.New(cfg, io.Discard)
	}
	log = logger.WithSession(log, cfg.SessionID)

	world, err := simhost.DefaultWorld()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build world: %v\n", err)
		os.Exit(1)
	}
	engine := simhost.NewEngine(world.Player, log)

	feed := &feed{}
	rt, err := submodule.Start(context.Background(), engine, cfg, log, observer.ReporterFunc(feed.report))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start fast dialogue: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Error("Error closing fast dialogue", "error", err)
		}
	}()

	rt.OnBeforeInitialModuleScreenSetAsRoot()
	rt.OnGameStart(engine.Starter())
	engine.Start()

	p := tea.NewProgram(NewSimUI(engine, world, rt, feed),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
