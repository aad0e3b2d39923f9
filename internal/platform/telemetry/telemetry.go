// Package telemetry records HTTP and domain-event metrics in memory and
// exposes them in the Prometheus text exposition format at /metrics.
package telemetry

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinic/appointments/internal/platform/events"
)

// defaultDurationBuckets are the request duration bucket boundaries in seconds.
var defaultDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// ---------------------------------------------------------------------------
// Histogram
// ---------------------------------------------------------------------------

// histogram stores non-cumulative bucket counts; cumulative counts are
// computed at export time.
type histogram struct {
	boundaries   []float64
	bucketCounts []int64
	count        int64
	sum          uint64 // math.Float64bits, updated with CAS
	mu           sync.Mutex
}

func newHistogram(boundaries []float64) *histogram {
	return &histogram{
		boundaries:   boundaries,
		bucketCounts: make([]int64, len(boundaries)),
	}
}

func (h *histogram) Observe(v float64) {
	atomic.AddInt64(&h.count, 1)
	atomicAddFloat64(&h.sum, v)

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range h.boundaries {
		if v <= b {
			h.bucketCounts[i]++
			return
		}
	}
}

func (h *histogram) Count() int64 { return atomic.LoadInt64(&h.count) }

func (h *histogram) Sum() float64 { return math.Float64frombits(atomic.LoadUint64(&h.sum)) }

func (h *histogram) cumulativeBuckets() []int64 {
	h.mu.Lock()
	raw := make([]int64, len(h.bucketCounts))
	copy(raw, h.bucketCounts)
	h.mu.Unlock()

	var running int64
	for i, c := range raw {
		running += c
		raw[i] = running
	}
	return raw
}

func atomicAddFloat64(addr *uint64, delta float64) {
	for {
		old := atomic.LoadUint64(addr)
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if atomic.CompareAndSwapUint64(addr, old, next) {
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Keyed stores
// ---------------------------------------------------------------------------

type histogramStore struct {
	mu    sync.RWMutex
	items map[string]*histogram
}

func (s *histogramStore) getOrCreate(key string) *histogram {
	s.mu.RLock()
	h, ok := s.items[key]
	s.mu.RUnlock()
	if ok {
		return h
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.items[key]; !ok {
		h = newHistogram(defaultDurationBuckets)
		s.items[key] = h
	}
	return h
}

func (s *histogramStore) get(key string) *histogram {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[key]
}

func (s *histogramStore) keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.items)
}

type counterStore struct {
	mu    sync.RWMutex
	items map[string]*int64
}

func (s *counterStore) add(key string, delta int64) {
	s.mu.RLock()
	p, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		s.mu.Lock()
		if p, ok = s.items[key]; !ok {
			p = new(int64)
			s.items[key] = p
		}
		s.mu.Unlock()
	}
	atomic.AddInt64(p, delta)
}

func (s *counterStore) get(key string) int64 {
	s.mu.RLock()
	p, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(p)
}

func (s *counterStore) snapshot() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]int64, len(s.items))
	for k, p := range s.items {
		cp[k] = atomic.LoadInt64(p)
	}
	return cp
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LabelsKey builds the key of a labeled series.
func LabelsKey(values ...string) string {
	return strings.Join(values, "|")
}

// ---------------------------------------------------------------------------
// Provider
// ---------------------------------------------------------------------------

// GaugeFunc reports point-in-time values, sampled on every scrape.
type GaugeFunc func() map[string]int64

// Provider holds all metric state for one server process.
type Provider struct {
	requests *histogramStore // method|route|status_code
	active   int64
	events   *counterStore // event|outcome

	mu     sync.RWMutex
	gauges []GaugeFunc
}

func NewProvider() *Provider {
	return &Provider{
		requests: &histogramStore{items: make(map[string]*histogram)},
		events:   &counterStore{items: make(map[string]*int64)},
	}
}

// AddGauges registers a sampler whose values are exported as gauges.
func (p *Provider) AddGauges(fn GaugeFunc) {
	p.mu.Lock()
	p.gauges = append(p.gauges, fn)
	p.mu.Unlock()
}

// RequestHistogram returns the duration histogram for one label set, or nil.
func (p *Provider) RequestHistogram(method, route, status string) *histogram {
	return p.requests.get(LabelsKey(method, route, status))
}

// ActiveRequests returns the number of in-flight requests.
func (p *Provider) ActiveRequests() int64 { return atomic.LoadInt64(&p.active) }

// EventCount returns how many events with key ended with outcome.
func (p *Provider) EventCount(key, outcome string) int64 {
	return p.events.get(LabelsKey(key, outcome))
}

// MetricsMiddleware records request duration by method, route pattern and
// status code.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddInt64(&p.active, 1)
			defer atomic.AddInt64(&p.active, -1)

			start := time.Now()
			err := next(c)
			duration := time.Since(start).Seconds()

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			p.requests.getOrCreate(LabelsKey(c.Request().Method, route, strconv.Itoa(status))).Observe(duration)
			return err
		}
	}
}

// CountingPublisher counts every event passed to next, split by outcome
// ("ok" or "error").
func (p *Provider) CountingPublisher(next events.Publisher) events.Publisher {
	return countingPublisher{next: next, counts: p.events}
}

type countingPublisher struct {
	next   events.Publisher
	counts *counterStore
}

func (c countingPublisher) Publish(ctx context.Context, key string, data any) error {
	err := c.next.Publish(ctx, key, data)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.counts.add(LabelsKey(key, outcome), 1)
	return err
}

// Handler serves all metrics in the Prometheus text format.
func (p *Provider) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder

		b.WriteString("# HELP http_server_request_duration_seconds Duration of HTTP requests in seconds.\n")
		b.WriteString("# TYPE http_server_request_duration_seconds histogram\n")
		for _, key := range p.requests.keys() {
			parts := strings.SplitN(key, "|", 3)
			if len(parts) != 3 {
				continue
			}
			labels := fmt.Sprintf("method=%q,route=%q,status_code=%q", parts[0], parts[1], parts[2])
			writeHistogram(&b, "http_server_request_duration_seconds", labels, p.requests.get(key))
		}
		b.WriteByte('\n')

		b.WriteString("# HELP http_server_active_requests Number of in-flight HTTP requests.\n")
		b.WriteString("# TYPE http_server_active_requests gauge\n")
		fmt.Fprintf(&b, "http_server_active_requests %d\n\n", p.ActiveRequests())

		counts := p.events.snapshot()
		b.WriteString("# HELP clinic_events_published_total Domain events handed to the broker.\n")
		b.WriteString("# TYPE clinic_events_published_total counter\n")
		for _, key := range sortedKeys(counts) {
			parts := strings.SplitN(key, "|", 2)
			if len(parts) != 2 {
				continue
			}
			fmt.Fprintf(&b, "clinic_events_published_total{event=%q,outcome=%q} %d\n", parts[0], parts[1], counts[key])
		}
		b.WriteByte('\n')

		p.mu.RLock()
		samplers := append([]GaugeFunc(nil), p.gauges...)
		p.mu.RUnlock()
		for _, fn := range samplers {
			values := fn()
			for _, name := range sortedKeys(values) {
				fmt.Fprintf(&b, "# TYPE %s gauge\n%s %d\n", name, name, values[name])
			}
		}

		return c.String(http.StatusOK, b.String())
	}
}

func writeHistogram(b *strings.Builder, name, labels string, h *histogram) {
	cum := h.cumulativeBuckets()
	total := h.Count()
	for i, boundary := range h.boundaries {
		fmt.Fprintf(b, "%s_bucket{%s,le=\"%g\"} %d\n", name, labels, boundary, cum[i])
	}
	fmt.Fprintf(b, "%s_bucket{%s,le=\"+Inf\"} %d\n", name, labels, total)
	fmt.Fprintf(b, "%s_sum{%s} %g\n", name, labels, h.Sum())
	fmt.Fprintf(b, "%s_count{%s} %d\n", name, labels, total)
}
