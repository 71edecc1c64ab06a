/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// storeMetrics holds Prometheus metrics for one store.
type storeMetrics struct {
	loads   *prometheus.CounterVec
	writes  prometheus.Counter
	removes prometheus.Counter
	size    prometheus.Gauge
}

// newStoreMetrics creates the metrics of the named store and registers them.
// Collectors already registered under the same labels are reused.
func newStoreMetrics(reg prometheus.Registerer, name string) (*storeMetrics, error) {
	labels := prometheus.Labels{"store": name}
	m := &storeMetrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "entitycache",
			Subsystem:   "store",
			Name:        "loads_total",
			ConstLabels: labels,
			Help:        "Loader calls by operation and result",
		}, []string{"op", "result"}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "entitycache",
			Subsystem:   "store",
			Name:        "writes_total",
			ConstLabels: labels,
			Help:        "Entities written into the canonical map",
		}),
		removes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "entitycache",
			Subsystem:   "store",
			Name:        "removes_total",
			ConstLabels: labels,
			Help:        "Entities removed and tombstoned",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "entitycache",
			Subsystem:   "store",
			Name:        "entities",
			ConstLabels: labels,
			Help:        "Current number of canonical entities",
		}),
	}

	var err error
	if m.loads, err = registerCollector(reg, m.loads); err != nil {
		return nil, err
	}
	if m.writes, err = registerCollector(reg, m.writes); err != nil {
		return nil, err
	}
	if m.removes, err = registerCollector(reg, m.removes); err != nil {
		return nil, err
	}
	if m.size, err = registerCollector(reg, m.size); err != nil {
		return nil, err
	}
	return m, nil
}

func registerCollector[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// The methods below accept a nil receiver so that stores without metrics
// need no checks at the call sites.

func (m *storeMetrics) load(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.loads.WithLabelValues(op, result).Inc()
}

func (m *storeMetrics) wrote(n, size int) {
	if m == nil {
		return
	}
	m.writes.Add(float64(n))
	m.size.Set(float64(size))
}

func (m *storeMetrics) removed(size int) {
	if m == nil {
		return
	}
	m.removes.Inc()
	m.size.Set(float64(size))
}

func (m *storeMetrics) resized(size int) {
	if m == nil {
		return
	}
	m.size.Set(float64(size))
}
