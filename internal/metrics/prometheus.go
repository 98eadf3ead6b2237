package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fleetdocs/backend/pkg/circuitbreaker"
)

var (
	FilesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetdocs_files_processed_total",
			Help: "Uploaded files by document family and terminal outcome",
		},
		[]string{"family", "outcome"},
	)

	StageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetdocs_stage_failures_total",
			Help: "Rejected files by failure kind",
		},
		[]string{"family", "kind"},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetdocs_pipeline_duration_seconds",
			Help:    "Per-file pipeline duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 60, 120, 300},
		},
		[]string{"family"},
	)

	OCRCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetdocs_ocr_calls_total",
			Help: "OCR calls by status",
		},
		[]string{"status"},
	)

	ExtractionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetdocs_extraction_duration_seconds",
			Help:    "LLM field extraction duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"family", "status"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetdocs_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	ConfidenceScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetdocs_extraction_confidence_score",
			Help:    "Confidence reported for extracted certificates",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"family"},
	)

	DuplicatesFlagged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetdocs_duplicates_flagged_total",
			Help: "Uploads paused for duplicate resolution",
		},
		[]string{"family", "strategy"},
	)

	IdentityConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetdocs_identity_conflicts_total",
			Help: "Ship identity mismatches by type",
		},
		[]string{"type"},
	)

	StorageDeletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetdocs_storage_deletions_total",
			Help: "Background storage deletions by status",
		},
		[]string{"status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetdocs_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetdocs_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

// BreakerState is 0 closed, 1 half-open, 2 open.
var BreakerState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "fleetdocs_circuit_breaker_state",
		Help: "Circuit breaker state per external dependency",
	},
	[]string{"name"},
)

// BreakerStateChanged is a circuitbreaker.Config.OnStateChange hook.
func BreakerStateChanged(name string, _, to circuitbreaker.State) {
	BreakerState.WithLabelValues(name).Set(float64(to))
}

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(FilesProcessed)
		prometheus.MustRegister(StageFailures)
		prometheus.MustRegister(PipelineDuration)
		prometheus.MustRegister(OCRCalls)
		prometheus.MustRegister(ExtractionDuration)
		prometheus.MustRegister(LLMTokensUsed)
		prometheus.MustRegister(ConfidenceScore)
		prometheus.MustRegister(DuplicatesFlagged)
		prometheus.MustRegister(IdentityConflicts)
		prometheus.MustRegister(StorageDeletions)
		prometheus.MustRegister(CacheHits)
		prometheus.MustRegister(CacheMisses)
		prometheus.MustRegister(BreakerState)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
