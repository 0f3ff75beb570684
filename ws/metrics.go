package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridgeclient_channel_reconnects_total",
		Help: "Redial attempts after a channel connection ended.",
	})

	channelsSwapped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridgeclient_channels_swapped_total",
		Help: "Live channels torn down because another conversation was opened.",
	})
)
