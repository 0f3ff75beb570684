package chatlog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridgeclient_messages_sent_total",
		Help: "Messages accepted by the synchronous send call.",
	})

	pushAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridgeclient_push_applied_total",
		Help: "Push events appended to the open conversation log.",
	})

	pushDiscardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridgeclient_push_discarded_total",
		Help: "Push events dropped instead of applied.",
	}, []string{"reason"})

	reactionPatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridgeclient_reaction_patches_total",
		Help: "Reaction updates patched into the log.",
	})

	reactionMissedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridgeclient_reaction_misses_total",
		Help: "Reaction updates referencing an unknown message id.",
	})
)

const (
	discardForeignChat = "foreign_chat"
	discardDuplicate   = "duplicate"
)
