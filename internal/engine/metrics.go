package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arc_engine_resets_total",
		Help: "Resets by game and whether a new session was created",
	}, []string{"game_id", "session"})

	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arc_engine_actions_total",
		Help: "Applied actions by game and scoring rule",
	}, []string{"game_id", "rule"})

	winsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arc_engine_wins_total",
		Help: "Sessions that reached WIN",
	}, []string{"game_id"})

	rejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arc_engine_rejected_commands_total",
		Help: "Commands rejected during validation",
	}, []string{"command", "reason"})

	scorecardsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arc_engine_scorecards_opened_total",
		Help: "Scorecards opened",
	})
)
