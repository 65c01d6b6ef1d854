package metrics

import (
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "webformular"

// Submission outcomes.
const (
	OutcomeAccepted      = "accepted"
	OutcomeInvalidToken  = "invalid_token"
	OutcomeSpam          = "spam"
	OutcomeInvalidFields = "invalid_fields"
	OutcomeFailed        = "failed"
)

var (
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Contact form submissions by outcome.",
	}, []string{"outcome"})

	MailFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_failures_total",
		Help:      "Notification emails that could not be sent, by recipient kind.",
	}, []string{"recipient"})

	UploadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upload_failures_total",
		Help:      "Attachments dropped from otherwise valid submissions, by reason.",
	}, []string{"reason"})

	Deleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_deleted_total",
		Help:      "Submissions removed through the admin bulk delete.",
	})

	goroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "go_routines",
		Help:      "Goroutines at the time of the last scrape.",
	})

	heapAlloc = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "heap_alloc_bytes",
		Help:      "Heap bytes allocated at the time of the last scrape.",
	})
)

// RegisterHandler mounts GET /metrics on the group.
func RegisterHandler(router gin.IRoutes) {
	router.GET("/metrics", systemMetricsMiddleware(), gin.WrapH(promhttp.Handler()))
}

func systemMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)

		goroutines.Set(float64(runtime.NumGoroutine()))
		heapAlloc.Set(float64(stats.HeapAlloc))

		c.Next()
	}
}
