package moonquake

import (
	"sort"
)

// RawEvent is an unsorted event as produced by the data-prep tooling.
// Date is milliseconds since the Unix epoch.
type RawEvent struct {
	Type string  `json:"type"`
	Long float64 `json:"long"`
	Lat  float64 `json:"lat"`
	Date int64   `json:"date"`
}

// RawLander has the same shape as RawEvent; Type carries the mission code.
type RawLander = RawEvent

// EventRecord is one seismic event in store order.
type EventRecord struct {
	TypeCode     string
	LongitudeDeg float64
	LatitudeDeg  float64
	TimestampMs  int64

	ordinal int
}

// OrdinalIndex is the record's zero-based position in ascending time order.
func (r EventRecord) OrdinalIndex() int { return r.ordinal }

// LanderRecord is a fixed landing or impact site.
type LanderRecord struct {
	MissionTypeCode string
	LongitudeDeg    float64
	LatitudeDeg     float64
	TimestampMs     int64
}

// EventStore holds time-sorted events and lander sites. It is immutable after
// construction and safe for concurrent readers.
type EventStore struct {
	events  []EventRecord
	landers []LanderRecord
}

// NewEventStore sorts events ascending by timestamp (ties keep their input
// order) and assigns ordinal indices. Landers keep their input order.
func NewEventStore(events []RawEvent, landers []RawLander) *EventStore {
	s := &EventStore{
		events:  make([]EventRecord, len(events)),
		landers: make([]LanderRecord, len(landers)),
	}
	for i, e := range events {
		s.events[i] = EventRecord{
			TypeCode:     e.Type,
			LongitudeDeg: e.Long,
			LatitudeDeg:  e.Lat,
			TimestampMs:  e.Date,
		}
	}
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].TimestampMs < s.events[j].TimestampMs
	})
	for i := range s.events {
		s.events[i].ordinal = i
	}
	for i, l := range landers {
		s.landers[i] = LanderRecord{
			MissionTypeCode: l.Type,
			LongitudeDeg:    l.Long,
			LatitudeDeg:     l.Lat,
			TimestampMs:     l.Date,
		}
	}
	return s
}

// Len returns the number of event records.
func (s *EventStore) Len() int { return len(s.events) }

// Event returns the record with ordinal index i.
func (s *EventStore) Event(i int) EventRecord { return s.events[i] }

// Events returns a copy of all event records in ascending time order.
func (s *EventStore) Events() []EventRecord {
	out := make([]EventRecord, len(s.events))
	copy(out, s.events)
	return out
}

// Landers returns a copy of the lander records.
func (s *EventStore) Landers() []LanderRecord {
	out := make([]LanderRecord, len(s.landers))
	copy(out, s.landers)
	return out
}

// Query returns every event whose timestamp t satisfies
// |t - centerMs| <= windowMs, in ascending time order. Both bounds are
// inclusive. A negative window matches nothing.
func (s *EventStore) Query(centerMs, windowMs int64) []EventRecord {
	if windowMs < 0 {
		return nil
	}
	lo := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].TimestampMs >= centerMs-windowMs
	})
	var out []EventRecord
	for i := lo; i < len(s.events); i++ {
		e := s.events[i]
		if e.TimestampMs > centerMs+windowMs {
			break
		}
		// Guard against the bounds above overflowing.
		if absDiff(e.TimestampMs, centerMs) <= windowMs {
			out = append(out, e)
		}
	}
	return out
}

// Nearest returns the ordinal of the event closest in time to ms, or -1 for
// an empty store.
func (s *EventStore) Nearest(ms int64) int {
	if len(s.events) == 0 {
		return -1
	}
	i := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].TimestampMs >= ms
	})
	switch {
	case i == 0:
		return 0
	case i == len(s.events):
		return i - 1
	case absDiff(s.events[i-1].TimestampMs, ms) <= absDiff(s.events[i].TimestampMs, ms):
		return i - 1
	default:
		return i
	}
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
