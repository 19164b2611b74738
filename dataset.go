package moonquake

import "slices"

// Built-in catalog of Apollo passive seismic network events and the
// artificial impact and landing sites used as reference points.
// Dates are milliseconds since the Unix epoch.

// DefaultEventStore returns a store over the built-in catalog.
func DefaultEventStore() *EventStore {
	return NewEventStore(builtinEvents, builtinLanders)
}

// DefaultEvents returns a copy of the built-in event table.
func DefaultEvents() []RawEvent {
	return slices.Clone(builtinEvents)
}

// DefaultLanders returns a copy of the built-in lander table.
func DefaultLanders() []RawLander {
	return slices.Clone(builtinLanders)
}

var builtinEvents = []RawEvent{
	{Type: "M", Long: -16.49, Lat: 1.2, Date: 77287560000},
	{Type: "M", Long: 7.23, Lat: 23.42, Date: 84146880000},
	{Type: "M", Long: 20.57, Lat: 15.19, Date: 86669880000},
	{Type: "M", Long: -20.74, Lat: -17.94, Date: 128271780000},
	{Type: "M", Long: 6.49, Lat: 20.35, Date: 145987500000},
	{Type: "M", Long: 21.73, Lat: -8.88, Date: 156881700000},
	{Type: "M", Long: -8.07, Lat: 2.44, Date: 159026820000},
	{Type: "M", Long: 3.42, Lat: -49.93, Date: 165984540000},
	{Type: "M", Long: -8.95, Lat: -14.33, Date: 204804120000},
	{Type: "M", Long: 2.71, Lat: 70.76, Date: 66051060000},
	{Type: "M", Long: 37.94, Lat: 28.16, Date: 120530760000},
	{Type: "M", Long: -34.55, Lat: 7.64, Date: 138234540000},
	{Type: "M", Long: 41.61, Lat: 3.14, Date: 169164720000},
	{Type: "M", Long: 59.78, Lat: -38.17, Date: 193061460000},
	{Type: "M", Long: -59.98, Lat: -18.5, Date: 232774320000},
	{Type: "M", Long: -73.54, Lat: -9.82, Date: 238990920000},
	{Type: "M", Long: -121.3, Lat: -36.4, Date: 171122340000},
	{Type: "M", Long: -85.07, Lat: 21.54, Date: 219471120000},
	{Type: "M", Long: 137.69, Lat: 33.14, Date: 120820260000},
	{Type: "SH", Long: -24.62, Lat: -16.15, Date: 163998180000},
	{Type: "SH", Long: 49.33, Lat: 11.99, Date: 88194900000},
	{Type: "SH", Long: 36.81, Lat: 45.84, Date: 95227680000},
	{Type: "SH", Long: 56.25, Lat: 64.83, Date: 161424840000},
	{Type: "SH", Long: 32.12, Lat: 42.28, Date: 192298740000},
	{Type: "SH", Long: -24.76, Lat: 50.23, Date: 197651520000},
	{Type: "SH", Long: 87.09, Lat: 25.01, Date: 145428360000},
	{Type: "SH", Long: -90.57, Lat: 27.41, Date: 160641720000},
	{Type: "A01", Long: -34.04, Lat: -15.27, Date: 120820200000},
	{Type: "A06", Long: 47.57, Lat: 47.22, Date: 207845520000},
	{Type: "A07", Long: 48.41, Lat: 22.94, Date: 207817860000},
	{Type: "A08", Long: -28.1, Lat: -28, Date: 235320720000},
	{Type: "A09", Long: -30.8, Lat: -37.8, Date: 232675080000},
	{Type: "A11", Long: 15.75, Lat: 8.83, Date: 238064460000},
	{Type: "A14", Long: -30.48, Lat: -25.82, Date: 110155980000},
	{Type: "A16", Long: 4.06, Lat: 6.66, Date: 90102240000},
	{Type: "A17", Long: -16.27, Lat: 21.56, Date: 92584320000},
	{Type: "A18", Long: 31.01, Lat: 17.54, Date: 97818600000},
	{Type: "A20", Long: -34.84, Lat: 20.46, Date: 77491080000},
	{Type: "A24", Long: -34.32, Lat: -32.89, Date: 237593820000},
	{Type: "A25", Long: 53.67, Lat: 33.31, Date: 237341700000},
	{Type: "A27", Long: 16.21, Lat: 20.12, Date: 235281660000},
	{Type: "A30", Long: -30.38, Lat: 11.22, Date: 77604120000},
	{Type: "A33", Long: 113.03, Lat: 7.71, Date: 90376500000},
	{Type: "A34", Long: -8.42, Lat: 6.99, Date: 80001240000},
	{Type: "A40", Long: -10.32, Lat: -0.9, Date: 112679280000},
	{Type: "A41", Long: -23.1, Lat: 12.7, Date: 79474560000},
	{Type: "A42", Long: -23.1, Lat: 12.7, Date: 107934720000},
	{Type: "A44", Long: 49.17, Lat: 48.74, Date: 140857740000},
	{Type: "A50", Long: -47.41, Lat: 9.36, Date: 107586300000},
	{Type: "A51", Long: 14.42, Lat: 8.63, Date: 132845700000},
	{Type: "A97", Long: 16.39, Lat: -2.36, Date: 235562880000},
}

var builtinLanders = []RawLander{
	{Type: "12 LM", Long: -21.2, Lat: -3.94, Date: -938580000},
	{Type: "13 S-IVB", Long: -27.86, Lat: -2.75, Date: 11599740000},
	{Type: "14 S-IVB", Long: -26.02, Lat: -8.09, Date: 36938400000},
	{Type: "14 LM", Long: -19.67, Lat: -3.42, Date: 37172700000},
	{Type: "15 S-IVB", Long: -11.81, Lat: -1.51, Date: 52361880000},
	{Type: "15 LM", Long: 0.25, Lat: 26.36, Date: 52729380000},
	{Type: "17 S-IVB", Long: -12.31, Lat: -4.21, Date: 95563920000},
}
