package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	TripsCreated    prometheus.Counter
	TripsCompleted  prometheus.Counter
	TripsCancelled  prometheus.Counter
	TripsSplit      prometheus.Counter
	TripsDuplicated prometheus.Counter

	StopsRecorded prometheus.Counter
	StopsUpdated  prometheus.Counter
	StopsDeleted  prometheus.Counter

	EventsPublished  prometheus.Counter
	EventPublishErrs prometheus.Counter

	// Number of downstream stops rewritten by one ledger mutation.
	CascadeLength prometheus.Histogram

	AssumedSpeedKmh prometheus.Gauge
}

func NewCollector(assumedSpeedKmh float64) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TripsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_trips_created_total",
			Help: "Total trips created.",
		}),
		TripsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_trips_completed_total",
			Help: "Total trips completed by mappers.",
		}),
		TripsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_trips_cancelled_total",
			Help: "Total trips cancelled.",
		}),
		TripsSplit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_trips_split_total",
			Help: "Total split operations performed.",
		}),
		TripsDuplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_trips_duplicated_total",
			Help: "Total duplicate operations performed.",
		}),
		StopsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_stops_recorded_total",
			Help: "Total stops appended to trip ledgers.",
		}),
		StopsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_stops_updated_total",
			Help: "Total in-place stop edits.",
		}),
		StopsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_stops_deleted_total",
			Help: "Total stops deleted from trip ledgers.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_events_published_total",
			Help: "Total lifecycle events published to the broker.",
		}),
		EventPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_event_publish_errors_total",
			Help: "Total broker publish errors.",
		}),
		CascadeLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "survey_cascade_rewritten_stops",
			Help:    "Stops rewritten downstream of a single ledger mutation.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		AssumedSpeedKmh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_assumed_speed_kmh",
			Help: "Average speed assumed when synthesizing stop times.",
		}),
	}

	reg.MustRegister(
		c.TripsCreated, c.TripsCompleted, c.TripsCancelled,
		c.TripsSplit, c.TripsDuplicated,
		c.StopsRecorded, c.StopsUpdated, c.StopsDeleted,
		c.EventsPublished, c.EventPublishErrs,
		c.CascadeLength,
		c.AssumedSpeedKmh,
	)

	c.AssumedSpeedKmh.Set(assumedSpeedKmh)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
