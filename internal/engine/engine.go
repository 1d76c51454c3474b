// Package engine dispatches incoming commands across the engine's
// per-instrument order books, creating a book on first sight of a symbol
// and routing cancels to whichever book currently owns the order id.
//
// The two-map shape — an RWMutex-guarded symbol→book map plus a second map
// tracking which book owns a given order id — generalizes the matching
// core's own Engine (a mutex-guarded map[string]*OrderBook reached through
// PlaceOrder/CancelOrder/GetOrderBook), adding the order_id→instrument map
// that lets Cancel avoid an O(instruments) fan-out scan for an id it
// doesn't carry in the command itself.
package engine

import (
	"sync"

	"github.com/kestrel-trading/matchengine/internal/book"
	"github.com/kestrel-trading/matchengine/internal/clock"
	"github.com/kestrel-trading/matchengine/internal/order"
	"github.com/kestrel-trading/matchengine/internal/sink"
)

// Engine owns every instrument's book and is the single entry point
// connection workers submit commands through. Distinct instruments may be
// worked on concurrently; a single instrument is always serialized by its
// own book's lock.
type Engine struct {
	sink sink.Sink
	clk  *clock.Clock

	booksMu sync.RWMutex
	books   map[string]*book.OrderBook

	ownerMu sync.Mutex
	owner   map[uint32]string // order_id -> instrument, for resting orders only
}

// New returns an Engine with no instruments yet registered.
func New(s sink.Sink, clk *clock.Clock) *Engine {
	return &Engine{
		sink:  s,
		clk:   clk,
		books: make(map[string]*book.OrderBook),
		owner: make(map[uint32]string),
	}
}

// bookFor returns the order book for instrument, creating it on first use.
// The fast path takes only a read lock; book creation upgrades to a write
// lock and re-checks, since two connections can race to be first on a
// symbol.
func (e *Engine) bookFor(instrument string) *book.OrderBook {
	e.booksMu.RLock()
	b, ok := e.books[instrument]
	e.booksMu.RUnlock()
	if ok {
		return b
	}

	e.booksMu.Lock()
	defer e.booksMu.Unlock()
	if b, ok := e.books[instrument]; ok {
		return b
	}
	b = book.New(instrument, e.sink, e.clk)
	e.books[instrument] = b
	return b
}

// Submit places a new order. id, price and count are assumed already
// validated by the caller.
func (e *Engine) Submit(id, price, count uint32, side order.Side, instrument string) {
	o := order.New(id, price, count, side, instrument, e.clk)
	b := e.bookFor(instrument)

	rests, filled := b.Submit(o)

	e.ownerMu.Lock()
	for _, fid := range filled {
		delete(e.owner, fid)
	}
	if rests {
		e.owner[id] = instrument
	}
	e.ownerMu.Unlock()
}

// Cancel looks up which book owns id and asks it to cancel. An id the
// engine has never seen resting — never submitted, already fully filled,
// or already cancelled — is an explicit miss: no book is touched and no map
// entry is created.
func (e *Engine) Cancel(id uint32) {
	e.ownerMu.Lock()
	instrument, ok := e.owner[id]
	if ok {
		delete(e.owner, id)
	}
	e.ownerMu.Unlock()

	if !ok {
		e.sink.Emit(sink.OrderDeleted(id, false, e.clk.Tick()))
		return
	}

	e.booksMu.RLock()
	b := e.books[instrument]
	e.booksMu.RUnlock()

	b.Cancel(id)
}

// Books returns a snapshot of every instrument's book, keyed by symbol.
// Used by the metrics exporter to refresh depth gauges before a scrape;
// not part of the command/event wire protocol.
func (e *Engine) Books() map[string]*book.OrderBook {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()

	out := make(map[string]*book.OrderBook, len(e.books))
	for instrument, b := range e.books {
		out[instrument] = b
	}
	return out
}
