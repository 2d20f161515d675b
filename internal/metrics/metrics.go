// Package metrics provides Prometheus instrumentation for fetch and score runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Fetch outcomes.
const (
	FetchCached  = "cached"
	FetchLive    = "live"
	FetchFailed  = "failed"
	FetchInvalid = "invalid"
)

var (
	// FetchTotal counts wallet history lookups by outcome.
	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskscore",
			Name:      "fetch_total",
			Help:      "Wallet history lookups by outcome.",
		},
		[]string{"outcome"},
	)

	// SkippedRecords counts explorer records dropped at ingestion.
	SkippedRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "riskscore",
		Name:      "skipped_records_total",
		Help:      "Explorer records dropped because they failed validation.",
	})

	// WalletsScored counts produced reports by confidence.
	WalletsScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskscore",
			Name:      "wallets_scored_total",
			Help:      "Reports produced, labelled by confidence.",
		},
		[]string{"confidence"},
	)

	// ScoreDistribution observes final scores.
	ScoreDistribution = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "riskscore",
		Name:      "score",
		Help:      "Distribution of wallet risk scores.",
		Buckets:   prometheus.LinearBuckets(0, 100, 11),
	})

	// OracleErrors counts price lookups that failed.
	OracleErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "riskscore",
		Name:      "oracle_errors_total",
		Help:      "Price oracle lookups that failed.",
	})
)

func init() {
	prometheus.MustRegister(
		FetchTotal,
		SkippedRecords,
		WalletsScored,
		ScoreDistribution,
		OracleErrors,
	)
}

// ObserveReport records one finished report.
func ObserveReport(score int, lowConfidence bool) {
	confidence := "normal"
	if lowConfidence {
		confidence = "low"
	}
	WalletsScored.WithLabelValues(confidence).Inc()
	ScoreDistribution.Observe(float64(score))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *zap.Logger) {
	if addr == "" {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}
