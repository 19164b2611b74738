package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/phanxgames/moonquake"
)

// jsonRecord mirrors moonquake.RawEvent but keeps a null date detectable.
type jsonRecord struct {
	Type string   `json:"type"`
	Long float64  `json:"long"`
	Lat  float64  `json:"lat"`
	Date *float64 `json:"date"`
}

// ReadEvents decodes a flat JSON array of {type,long,lat,date} records.
// A null or absent date fails with ErrMissingDate.
func ReadEvents(r io.Reader) ([]moonquake.RawEvent, error) {
	var recs []jsonRecord
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("catalog: decode json: %w", err)
	}
	out := make([]moonquake.RawEvent, len(recs))
	for i, rec := range recs {
		if rec.Date == nil {
			return nil, &ParseError{Line: i + 1, Field: "date", Value: "null", Err: ErrMissingDate}
		}
		out[i] = moonquake.RawEvent{
			Type: rec.Type,
			Long: rec.Long,
			Lat:  rec.Lat,
			Date: int64(math.Round(*rec.Date)),
		}
	}
	return out, nil
}

// ReadLanders decodes a lander table; the format is the same as for events
// with the mission code in "type".
func ReadLanders(r io.Reader) ([]moonquake.RawLander, error) {
	return ReadEvents(r)
}

// WriteEvents encodes events as a flat JSON array.
func WriteEvents(w io.Writer, events []moonquake.RawEvent) error {
	if events == nil {
		events = []moonquake.RawEvent{}
	}
	if err := json.NewEncoder(w).Encode(events); err != nil {
		return fmt.Errorf("catalog: encode json: %w", err)
	}
	return nil
}
