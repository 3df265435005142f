package content

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
	resultStale = "stale"
)

var (
	sectionLoads = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "hotel_site_section_loads_total",
			Help: "Number of section fetches per page, by result (ok, error, stale).",
		},
		[]string{"page", "result"},
	)

	settingLoads = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "hotel_site_setting_loads_total",
			Help: "Number of site settings fetches, by result (ok, error, stale).",
		},
		[]string{"result"},
	)
)
