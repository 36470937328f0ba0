package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shg_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shg_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	LoanTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shg_loan_transitions_total",
			Help: "Loan lifecycle transitions by action and resulting status",
		},
		[]string{"action", "status"},
	)

	DepositsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shg_saving_deposits_total",
			Help: "Number of recorded saving deposits",
		},
	)

	PollVotesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shg_poll_votes_total",
			Help: "Number of accepted poll votes",
		},
	)
)
