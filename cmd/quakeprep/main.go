// Command quakeprep converts the published moonquake CSV table into the JSON
// array read by the viewer, and optionally into a SQLite catalog and a
// GeoJSON feature collection.
//
//	quakeprep --in quakedata.csv --out static/quakedata.json --sqlitePath quakes.db
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/phanxgames/moonquake"
	"github.com/phanxgames/moonquake/catalog"
	"github.com/phanxgames/moonquake/internal/config"
	"github.com/phanxgames/moonquake/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "quakeprep: %v\n", err)
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("quakeprep", pflag.ContinueOnError)
	fs.String("config", ".", "directory containing "+config.FileName)
	fs.String("in", "", "input CSV file (required)")
	fs.String("out", "", "output JSON file; - for stdout")
	fs.String("sqlitePath", "", "write the catalog into this SQLite file")
	fs.String("geojson", "", "write a GeoJSON feature collection to this file")
	fs.Bool("mercator", false, "GeoJSON coordinates in lunar Mercator metres")
	fs.String("tz", "UTC", "time zone the CSV dates are recorded in")
	fs.String("logLevel", "", "log level (trace, debug, info, warn, error)")
	return fs
}

func run(ctx context.Context, args []string, logOut io.Writer) error {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	configDir, _ := fs.GetString("config")
	v, err := config.New(configDir, fs)
	if err != nil {
		return err
	}
	log := logging.New(logOut, v.GetString("logLevel"), v.GetBool("logConsole"))

	in := v.GetString("in")
	if in == "" {
		return errors.New("--in is required")
	}
	loc, err := time.LoadLocation(v.GetString("tz"))
	if err != nil {
		return fmt.Errorf("time zone: %w", err)
	}

	events, err := parseFile(in, loc)
	if err != nil {
		return err
	}
	log.Info().Str("in", in).Int("events", len(events)).Msg("CSV parsed")

	return export(ctx, v, events, log)
}

func parseFile(path string, loc *time.Location) ([]moonquake.RawEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return catalog.ParseCSV(f, loc)
}

func export(ctx context.Context, v *viper.Viper, events []moonquake.RawEvent, log zerolog.Logger) error {
	if out := v.GetString("out"); out != "" {
		if err := writeFile(out, func(w io.Writer) error { return catalog.WriteEvents(w, events) }); err != nil {
			return err
		}
		log.Info().Str("out", out).Msg("JSON written")
	}

	landers := moonquake.DefaultLanders()
	if path := v.GetString("sqlitePath"); path != "" {
		db, err := catalog.OpenDB(path, log)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Replace(ctx, events, landers); err != nil {
			return err
		}
		log.Info().Str("sqlite", path).Int("landers", len(landers)).Msg("SQLite catalog written")
	}

	if path := v.GetString("geojson"); path != "" {
		store := moonquake.NewEventStore(events, landers)
		opts := catalog.GeoJSONOptions{Mercator: v.GetBool("mercator"), Landers: true}
		if err := writeFile(path, func(w io.Writer) error { return catalog.WriteGeoJSON(w, store, opts) }); err != nil {
			return err
		}
		log.Info().Str("geojson", path).Msg("GeoJSON written")
	}
	return nil
}

// writeFile creates path (or uses stdout for "-") and hands it to write.
func writeFile(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
