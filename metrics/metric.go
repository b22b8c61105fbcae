package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeBuilt       = "built"
	OutcomeSigned      = "signed"
	OutcomeBroadcasted = "broadcasted"
	OutcomePsbt        = "psbt"
	OutcomeFailed      = "failed"
)

func fqn(name string) string {
	return prometheus.BuildFQName("sat20", "sendmany", name)
}

var (
	Version = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fqn("version"),
			Help: "Service version number",
		},
		[]string{"version"},
	)

	BuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fqn("build_duration"),
			Help:    "Duration of a sendmany run from snapshot to output",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"outcome"},
	)

	BuildErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fqn("build_errors_total"),
			Help: "Failed runs by error kind and stage",
		},
		[]string{"kind", "stage"},
	)

	InscriptionsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: fqn("inscriptions_sent_total"),
		Help: "Inscriptions moved by successful runs",
	})

	FeePaid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: fqn("fee_sats_total"),
		Help: "Fees of successful runs in satoshis",
	})

	FetchRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fqn("fetch_retries_total"),
			Help: "Retried chain data requests",
		},
		[]string{"resource"},
	)

	HttpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fqn("http_duration"),
			Help:    "HTTP request duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 5, 15},
		},
		[]string{"method", "path", "status"},
	)
)

func ObserveBuild(outcome string, started time.Time) {
	BuildDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
}

func ObserveBuildError(kind, stage string) {
	BuildErrors.WithLabelValues(kind, stage).Inc()
}

func ObserveSent(inscriptions int, fee int64) {
	InscriptionsSent.Add(float64(inscriptions))
	FeePaid.Add(float64(fee))
}

func ObserveRetry(resource string) {
	FetchRetries.WithLabelValues(resource).Inc()
}

func HTTP(c *gin.Context) {
	started := time.Now()

	c.Next()

	HttpDuration.WithLabelValues(
		c.Request.Method,
		c.FullPath(),
		strconv.Itoa(c.Writer.Status()),
	).Observe(time.Since(started).Seconds())
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func init() {
	prometheus.MustRegister(
		Version,
		BuildDuration,
		BuildErrors,
		InscriptionsSent,
		FeePaid,
		FetchRetries,
		HttpDuration,
	)
}
