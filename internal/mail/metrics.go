package mail

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var relays = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "hotel_site_contact_relays_total",
	Help: "Contact form messages handed to the SMTP relay, by result.",
}, []string{"result"})
