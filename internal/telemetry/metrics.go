package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Finish reasons.
const (
	ReasonCompleted = "completed"
	ReasonTimeout   = "timeout"
)

var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "sessions_started_total",
		Help:      "Quiz sessions that entered the answering phase.",
	})

	SessionsResumed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "sessions_resumed_total",
		Help:      "Quiz sessions resumed from a stored snapshot.",
	})

	SessionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "sessions_finished_total",
		Help:      "Quiz sessions that reached the finished phase, by reason.",
	}, []string{"reason"})

	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "fetch_failures_total",
		Help:      "Question batches that could not be fetched or were empty.",
	})

	Answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "answers_total",
		Help:      "Answers recorded, by correctness.",
	}, []string{"correct"})
)
