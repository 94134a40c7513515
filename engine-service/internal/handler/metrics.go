package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gamesStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_games_started_total",
		Help: "Total number of game sessions created.",
	})

	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_turns_total",
			Help: "Total number of resolved turns by kind.",
		},
		[]string{"kind"},
	)

	gamesFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_games_finished_total",
			Help: "Total number of finished game sessions by outcome.",
		},
		[]string{"outcome"},
	)

	savesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_saves_total",
			Help: "Total number of save slot operations by kind.",
		},
		[]string{"kind"},
	)
)
