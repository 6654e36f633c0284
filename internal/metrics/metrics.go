package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    imagesIngested = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "lotespdf",
            Name:      "images_ingested_total",
            Help:      "Ingested images by result (accepted, duplicate, unsupported, error)",
        },
        []string{"result"},
    )

    exportsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "lotespdf",
            Name:      "exports_total",
            Help:      "Document exports by mode (preview, archive) and result",
        },
        []string{"mode", "result"},
    )

    exportDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "lotespdf",
            Name:      "export_duration_seconds",
            Help:      "Duration of document composition by mode",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"mode"},
    )

    itemsSkipped = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "lotespdf",
            Name:      "layout_items_skipped_total",
            Help:      "Items skipped during layout for missing geometry",
        },
    )

    persistErrors = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "lotespdf",
            Name:      "persist_errors_total",
            Help:      "Failed write-through persists of the batch set",
        },
    )

    batchCount = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "lotespdf",
            Name:      "batches",
            Help:      "Current number of batches",
        },
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(imagesIngested, exportsTotal, exportDuration, itemsSkipped, persistErrors, batchCount)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncIngested(result string) { imagesIngested.WithLabelValues(result).Inc() }

func ObserveExport(mode, result string, dur time.Duration) {
    exportsTotal.WithLabelValues(mode, result).Inc()
    exportDuration.WithLabelValues(mode).Observe(dur.Seconds())
}

func ItemsSkipped(n int) { itemsSkipped.Add(float64(n)) }

func IncPersistError() { persistErrors.Inc() }

func SetBatchCount(n int) { batchCount.Set(float64(n)) }
