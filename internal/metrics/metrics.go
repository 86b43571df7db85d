package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConferenceProvider exposes the live registry state the collector scrapes.
type ConferenceProvider interface {
	ActiveConferenceCount() int
	ActiveParticipantCount() int
	ActiveRecordingCount() int
}

// TalkerEventCounter tracks talker/silence transitions by state label
// ("talking", "silent") since process start.
type TalkerEventCounter interface {
	TalkerEventCount(state string) uint64
}

// Collector is a prometheus.Collector that gathers conference bridge metrics
// at scrape time.
type Collector struct {
	conferences ConferenceProvider
	talkers     TalkerEventCounter
	startTime   time.Time

	activeConferencesDesc  *prometheus.Desc
	activeParticipantsDesc *prometheus.Desc
	talkerEventsDesc       *prometheus.Desc
	activeRecordingsDesc   *prometheus.Desc
	uptimeDesc             *prometheus.Desc
}

// NewCollector creates a new metrics collector. Either provider may be nil
// if unavailable, in which case the corresponding metric is omitted.
func NewCollector(conferences ConferenceProvider, talkers TalkerEventCounter, startTime time.Time) *Collector {
	return &Collector{
		conferences: conferences,
		talkers:     talkers,
		startTime:   startTime,

		activeConferencesDesc: prometheus.NewDesc(
			"meetme_active_conferences",
			"Number of currently active conference rooms",
			nil, nil,
		),
		activeParticipantsDesc: prometheus.NewDesc(
			"meetme_active_participants",
			"Number of currently joined participants across all conferences",
			nil, nil,
		),
		talkerEventsDesc: prometheus.NewDesc(
			"meetme_talker_events_total",
			"Total talker state transitions observed",
			[]string{"state"}, nil,
		),
		activeRecordingsDesc: prometheus.NewDesc(
			"meetme_recordings_active",
			"Number of conferences currently being recorded",
			nil, nil,
		),
		uptimeDesc: prometheus.NewDesc(
			"meetme_uptime_seconds",
			"Seconds since the conference bridge process started",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeConferencesDesc
	ch <- c.activeParticipantsDesc
	ch <- c.talkerEventsDesc
	ch <- c.activeRecordingsDesc
	ch <- c.uptimeDesc
}

// Collect implements prometheus.Collector. It queries all providers at
// scrape time rather than tracking metrics in band, matching the pull-based
// shape of the rest of the collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.conferences != nil {
		ch <- prometheus.MustNewConstMetric(
			c.activeConferencesDesc, prometheus.GaugeValue,
			float64(c.conferences.ActiveConferenceCount()),
		)
		ch <- prometheus.MustNewConstMetric(
			c.activeParticipantsDesc, prometheus.GaugeValue,
			float64(c.conferences.ActiveParticipantCount()),
		)
		ch <- prometheus.MustNewConstMetric(
			c.activeRecordingsDesc, prometheus.GaugeValue,
			float64(c.conferences.ActiveRecordingCount()),
		)
	}

	if c.talkers != nil {
		for _, state := range []string{"talking", "silent"} {
			ch <- prometheus.MustNewConstMetric(
				c.talkerEventsDesc, prometheus.CounterValue,
				float64(c.talkers.TalkerEventCount(state)), state,
			)
		}
	}

	ch <- prometheus.MustNewConstMetric(
		c.uptimeDesc, prometheus.GaugeValue,
		time.Since(c.startTime).Seconds(),
	)
}
