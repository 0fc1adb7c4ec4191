package model

import "time"

// Counter is a singleton-per-name persisted sequence used to mint trip
// and stop numbers. Incremented atomically by the counters repository.
type Counter struct {
	Name   string
	Seq    int64
	Day    time.Time
	DaySeq int64
}
