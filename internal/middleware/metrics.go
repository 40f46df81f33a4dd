package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// RedisErrors counts failed Redis commands by command name.
var RedisErrors = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Number of Redis commands that returned an error",
	},
	[]string{"command"},
)

func init() {
	prometheus.MustRegister(RedisErrors)
}

var (
	promOnce sync.Once
	promMw   *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus middleware for the given service name.
// The underlying collectors register with the default registry exactly once,
// so repeated server construction in tests reuses the same instance.
func InitMetrics(service string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMw = fiberprometheus.New(service)
	})
	return promMw
}
