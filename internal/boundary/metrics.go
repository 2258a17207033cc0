package boundary

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var CallCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ndb",
	Subsystem: "boundary",
	Name:      "calls_total",
	Help:      "Boundary calls by operation.",
}, []string{"op"})

var FaultCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ndb",
	Subsystem: "boundary",
	Name:      "faults_total",
	Help:      "Abnormal terminations intercepted at the boundary, by operation.",
}, []string{"op"})

var CallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "ndb",
	Subsystem: "boundary",
	Name:      "call_duration_seconds",
	Help:      "Boundary call latency by operation.",
	Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
}, []string{"op"})

// Collectors returns the package metrics.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{CallCount, FaultCount, CallDuration}
}

// Register adds the package metrics to reg. Registering twice is not an
// error.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
