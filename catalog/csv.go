package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/phanxgames/moonquake"
)

// CSV column layout: type, latitude, longitude, (unused), compact date.
const (
	colType = 0
	colLat  = 1
	colLong = 2
	colDate = 4
	minCols = 5
)

// ParseCompactDate decodes a YYMMDDHHMM timestamp into milliseconds since the
// Unix epoch. The year is 1900+YY and MM is a zero-based month index, so
// "7107..." falls in August 1971; out-of-range parts normalise the way
// time.Date does. Characters past the tenth are ignored. A nil loc means UTC.
func ParseCompactDate(s string, loc *time.Location) (int64, error) {
	if len(s) < 10 {
		return 0, fmt.Errorf("want YYMMDDHHMM, got %d characters", len(s))
	}
	var parts [5]int
	for i := range parts {
		v, err := strconv.Atoi(s[i*2 : i*2+2])
		if err != nil {
			return 0, err
		}
		parts[i] = v
	}
	if loc == nil {
		loc = time.UTC
	}
	t := time.Date(1900+parts[0], time.Month(parts[1]+1), parts[2], parts[3], parts[4], 0, 0, loc)
	return t.UnixMilli(), nil
}

// ParseCSV reads the event table from r. The first line is a header; blank
// lines are skipped. Dates are interpreted in loc (UTC when nil).
func ParseCSV(r io.Reader, loc *time.Location) ([]moonquake.RawEvent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []moonquake.RawEvent
	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if header {
			header = false
			continue
		}
		ev, err := parseRow(rec, line, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func parseRow(rec []string, line int, loc *time.Location) (moonquake.RawEvent, error) {
	if len(rec) < minCols {
		return moonquake.RawEvent{}, &ParseError{
			Line:  line,
			Field: "columns",
			Value: strings.Join(rec, ","),
			Err:   fmt.Errorf("want at least %d columns, got %d", minCols, len(rec)),
		}
	}
	field := func(i int) string { return strings.TrimSpace(rec[i]) }

	ev := moonquake.RawEvent{Type: field(colType)}
	var err error
	if ev.Lat, err = strconv.ParseFloat(field(colLat), 64); err != nil {
		return ev, &ParseError{Line: line, Field: "lat", Value: field(colLat), Err: err}
	}
	if ev.Long, err = strconv.ParseFloat(field(colLong), 64); err != nil {
		return ev, &ParseError{Line: line, Field: "long", Value: field(colLong), Err: err}
	}
	if ev.Date, err = ParseCompactDate(field(colDate), loc); err != nil {
		return ev, &ParseError{Line: line, Field: "date", Value: field(colDate), Err: err}
	}
	return ev, nil
}
