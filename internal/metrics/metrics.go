// Package metrics exposes the engine's operational counters and gauges on
// an HTTP endpoint. This is strictly an ops surface — order/execution/
// cancel counts and per-instrument resting depth for dashboards and
// alerting — never a market-data feed to clients.
package metrics

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kestrel-trading/matchengine/internal/book"
	"github.com/kestrel-trading/matchengine/internal/sink"
)

// Collector holds every Prometheus metric the engine updates directly.
// Depth gauges are refreshed on demand by the /metrics scrape handler
// rather than on every book mutation, since scraping is far less frequent
// than order flow.
type Collector struct {
	ordersAdded    *prometheus.CounterVec
	ordersExecuted prometheus.Counter
	cancelsHit     prometheus.Counter
	cancelsMiss    prometheus.Counter

	bestBidPrice *prometheus.GaugeVec
	bestBidDepth *prometheus.GaugeVec
	bestAskPrice *prometheus.GaugeVec
	bestAskDepth *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewCollector registers every metric against a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		ordersAdded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchengine_orders_added_total",
			Help: "Orders that began resting in a book, by instrument.",
		}, []string{"instrument"}),
		ordersExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "matchengine_orders_executed_total",
			Help: "Trade fills recorded across every instrument.",
		}),
		cancelsHit: factory.NewCounter(prometheus.CounterOpts{
			Name: "matchengine_cancels_hit_total",
			Help: "Cancel commands that removed a resting order.",
		}),
		cancelsMiss: factory.NewCounter(prometheus.CounterOpts{
			Name: "matchengine_cancels_miss_total",
			Help: "Cancel commands for an order id the engine had no resting record of.",
		}),
		bestBidPrice: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "matchengine_best_bid_price",
			Help: "Highest resting bid price, by instrument.",
		}, []string{"instrument"}),
		bestBidDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "matchengine_best_bid_depth",
			Help: "Quantity resting at the best bid, by instrument.",
		}, []string{"instrument"}),
		bestAskPrice: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "matchengine_best_ask_price",
			Help: "Lowest resting ask price, by instrument.",
		}, []string{"instrument"}),
		bestAskDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "matchengine_best_ask_depth",
			Help: "Quantity resting at the best ask, by instrument.",
		}, []string{"instrument"}),
	}
}

// OrderAdded records a resting order for instrument.
func (c *Collector) OrderAdded(instrument string) {
	c.ordersAdded.WithLabelValues(instrument).Inc()
}

// OrderExecuted records one fill. OrderExecuted events carry no instrument
// field on the wire, so this counter is engine-wide rather than
// per-instrument.
func (c *Collector) OrderExecuted() {
	c.ordersExecuted.Inc()
}

// CancelHit records a successful cancel. Like OrderExecuted, OrderDeleted
// carries no instrument field, so this is engine-wide.
func (c *Collector) CancelHit() {
	c.cancelsHit.Inc()
}

// CancelMiss records a cancel for an id with no resting order: never
// submitted, already fully filled, or already cancelled.
func (c *Collector) CancelMiss() {
	c.cancelsMiss.Inc()
}

// Sink wraps another sink.Sink, updating Collector from every event before
// forwarding it unchanged. Installed in front of the production sink so
// metrics stay in lockstep with the authoritative event log without the
// book or engine needing to know metrics exist.
type Sink struct {
	next      sink.Sink
	collector *Collector
}

var _ sink.Sink = (*Sink)(nil)

// NewSink wraps next with collector's bookkeeping.
func NewSink(next sink.Sink, collector *Collector) *Sink {
	return &Sink{next: next, collector: collector}
}

// Emit updates the relevant counter for ev.Kind, then forwards ev to next.
func (s *Sink) Emit(ev sink.Event) {
	switch ev.Kind {
	case sink.KindOrderAdded:
		s.collector.OrderAdded(ev.Instrument)
	case sink.KindOrderExecuted:
		s.collector.OrderExecuted()
	case sink.KindOrderDeleted:
		if ev.Accepted {
			s.collector.CancelHit()
		} else {
			s.collector.CancelMiss()
		}
	}
	s.next.Emit(ev)
}

// RefreshDepth updates the best-bid/best-ask gauges for instrument from b's
// current state. Called from the /metrics handler rather than on every
// book mutation.
func (c *Collector) RefreshDepth(instrument string, b *book.OrderBook) {
	if price, count, ok := b.BestBid(); ok {
		c.bestBidPrice.WithLabelValues(instrument).Set(float64(price))
		c.bestBidDepth.WithLabelValues(instrument).Set(float64(count))
	} else {
		c.bestBidPrice.DeleteLabelValues(instrument)
		c.bestBidDepth.DeleteLabelValues(instrument)
	}

	if price, count, ok := b.BestAsk(); ok {
		c.bestAskPrice.WithLabelValues(instrument).Set(float64(price))
		c.bestAskDepth.WithLabelValues(instrument).Set(float64(count))
	} else {
		c.bestAskPrice.DeleteLabelValues(instrument)
		c.bestAskDepth.DeleteLabelValues(instrument)
	}
}

// DepthSource supplies the set of instruments currently known and their
// books, so the /metrics handler can refresh depth gauges before serving a
// scrape. Implemented by *engine.Engine.
type DepthSource interface {
	Books() map[string]*book.OrderBook
}

// Server is the metrics/health HTTP surface.
type Server struct {
	collector *Collector
	source    DepthSource
	http      *http.Server
}

// NewServer builds a gorilla/mux router exposing /metrics and /healthz on
// addr.
func NewServer(addr string, collector *Collector, source DepthSource) *Server {
	router := mux.NewRouter()
	router.Handle("/metrics", refreshingHandler(collector, source))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &Server{
		collector: collector,
		source:    source,
		http:      &http.Server{Addr: addr, Handler: router},
	}
}

func refreshingHandler(collector *Collector, source DepthSource) http.Handler {
	inner := promhttp.HandlerFor(collector.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for instrument, b := range source.Books() {
			collector.RefreshDepth(instrument, b)
		}
		inner.ServeHTTP(w, r)
	})
}

// Start begins serving in the background. Errors other than a clean Close
// are sent on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
