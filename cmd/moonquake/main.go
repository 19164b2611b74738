// Command moonquake shows recorded lunar seismic events on a rotating Moon.
//
// Data comes from, in order of preference, a JSON event file, a SQLite
// catalog written by quakeprep, or the built-in table.
//
// Controls:
//   - Left/Right: previous/next event in time
//   - Drag: orbit; wheel: zoom; click a marker to select it
//   - Space: toggle auto-rotation
//   - L: labels, W: wireframe overlay, K: landers, M: all markers
//   - F: FPS readout, P: screenshot
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/moonquake"
	"github.com/phanxgames/moonquake/catalog"
	"github.com/phanxgames/moonquake/internal/config"
	"github.com/phanxgames/moonquake/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "moonquake: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("moonquake", pflag.ContinueOnError)
	configDir := fs.String("config", ".", "directory containing "+config.FileName)
	script := fs.String("script", "", "JSON script of scripted input and screenshots")
	debug := fs.Bool("debug", false, "log per-frame render stats")
	fs.String("logLevel", "", "log level (trace, debug, info, warn, error)")
	fs.String("assetDir", "", "directory holding textures and the lander model")
	fs.String("dataFile", "", "JSON event file")
	fs.String("landerFile", "", "JSON lander file")
	fs.String("sqlitePath", "", "SQLite catalog written by quakeprep")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configDir, fs)
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogConsole)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := loadStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info().Int("events", store.Len()).Int("landers", len(store.Landers())).Msg("Catalog loaded")

	g, err := newGame(ctx, cfg, store, log)
	if err != nil {
		return err
	}
	g.scene.SetDebugMode(*debug)
	if *script != "" {
		data, err := os.ReadFile(*script)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		runner, err := moonquake.LoadScript(data)
		if err != nil {
			return err
		}
		g.scene.SetScriptRunner(runner)
		g.runner = runner
	}

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// loadStore reads the catalog from the configured JSON file, then the SQLite
// catalog, then falls back to the built-in table.
func loadStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*moonquake.EventStore, error) {
	switch {
	case cfg.DataFile != "":
		events, err := readJSON(cfg.DataFile, catalog.ReadEvents)
		if err != nil {
			return nil, err
		}
		landers := moonquake.DefaultLanders()
		if cfg.LanderFile != "" {
			if landers, err = readJSON(cfg.LanderFile, catalog.ReadLanders); err != nil {
				return nil, err
			}
		}
		return moonquake.NewEventStore(events, landers), nil

	case cfg.SQLitePath != "":
		db, err := catalog.OpenDB(cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		store, err := db.Store(ctx)
		if err != nil {
			return nil, err
		}
		if store.Len() > 0 {
			return store, nil
		}
		log.Warn().Str("path", cfg.SQLitePath).Msg("SQLite catalog is empty, using built-in table")
	}
	return moonquake.DefaultEventStore(), nil
}

func readJSON(path string, decode func(io.Reader) ([]moonquake.RawEvent, error)) ([]moonquake.RawEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}
