package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterSuggestions        *prometheus.CounterVec
	CounterSweepExercises     *prometheus.CounterVec
	CounterSweeps             *prometheus.CounterVec
	CounterStagnationAnalyses *prometheus.CounterVec
	CounterAIDecisions        *prometheus.CounterVec
	CounterToolCalls          *prometheus.CounterVec
	CounterRateLimitedCalls   prometheus.Counter
	CounterHandleRequestPanic prometheus.Counter

	// gauges
	GaugeRequests     prometheus.Gauge
	GaugeLifeSignal   prometheus.Gauge
	GaugeActiveSweeps prometheus.Gauge

	// histograms
	HistSweepDuration        prometheus.Histogram
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("fitcoach", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fitcoach", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterSuggestions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "weight_suggestions",
		Help:      "The total number of weight suggestions served, by source",
	}, []string{"source"})
	counterSweepExercises := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "learning_sweep_exercises",
		Help:      "The total number of exercises processed by learning sweeps, by result",
	}, []string{"result"})
	counterSweeps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "learning_sweeps",
		Help:      "The total number of learning sweeps, by result",
	}, []string{"result"})
	counterStagnationAnalyses := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "stagnation_analyses",
		Help:      "The total number of stagnation analyses, by outcome",
	}, []string{"stagnant", "type"})
	counterAIDecisions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ai_decisions",
		Help:      "The total number of recorded AI decisions, by type",
	}, []string{"type"})
	counterToolCalls := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "mcp_tool_calls",
		Help:      "The total number of MCP tool calls, by tool and status",
	}, []string{"tool", "status"})
	counterRateLimitedCalls := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_calls",
		Help:      "The total number of rate limited analysis calls",
	})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})
	gaugeActiveSweeps := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_learning_sweeps",
		Help:      "Number of learning sweeps currently running",
	})

	histSweepDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.001, 0.01, 0.05, 0.1, 0.5, 1,
				5, 10, 30, 60, 120, 300,
			},
			Name: "learning_sweep_duration_seconds",
			Help: "Total duration of a single user learning sweep in seconds",
		},
	)
	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterSuggestions:        counterSuggestions,
		CounterSweepExercises:     counterSweepExercises,
		CounterSweeps:             counterSweeps,
		CounterStagnationAnalyses: counterStagnationAnalyses,
		CounterAIDecisions:        counterAIDecisions,
		CounterToolCalls:          counterToolCalls,
		CounterRateLimitedCalls:   counterRateLimitedCalls,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		GaugeRequests:             gaugeRequests,
		GaugeLifeSignal:           gaugeLifeSignal,
		GaugeActiveSweeps:         gaugeActiveSweeps,
		HistSweepDuration:         histSweepDuration,
		HistogramRequestDuration:  histogramRequestDuration,
	}
}
