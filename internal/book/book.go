// Package book implements the per-instrument limit order book: a two-sided,
// price-time-priority store with O(log levels) price insertion and O(1)
// order cancellation.
//
// The storage shape is adapted from two independent reference designs: the
// per-price-level FIFO queue with an order-held list.Element for O(1)
// removal, and a red-black tree (github.com/emirpasic/gods/v2/trees/redblacktree)
// ordering price levels instead of a bucketed hash structure, since the
// book here has no fixed tick-size assumption to bucket on.
package book

import (
	"container/list"
	"sync"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"

	"github.com/kestrel-trading/matchengine/internal/clock"
	"github.com/kestrel-trading/matchengine/internal/order"
	"github.com/kestrel-trading/matchengine/internal/sink"
)

// priceLevel holds every resting order at one price, in arrival order.
type priceLevel struct {
	orders *list.List // *order.Order, front = oldest = highest time priority
}

func newPriceLevel() *priceLevel {
	return &priceLevel{orders: list.New()}
}

// restingRef locates a resting order for O(1) cancellation: which side's
// tree it lives in, which price level, and its node within that level's
// list.
type restingRef struct {
	side order.Side
	price uint32
	elem  *list.Element
}

// OrderBook is the two-sided book for a single instrument. All operations
// serialize through mu: the spec only requires serialization within an
// instrument, and one mutex per instrument is exactly that boundary.
type OrderBook struct {
	mu         sync.Mutex
	instrument string

	bids *rbt.Tree[uint32, *priceLevel] // descending: Left() is the highest bid
	asks *rbt.Tree[uint32, *priceLevel] // ascending: Left() is the lowest ask

	index map[uint32]*restingRef

	sink sink.Sink
	clk  *clock.Clock
}

func descending(a, b uint32) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

func ascending(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// New returns an empty order book for instrument, emitting events to s and
// stamping them from clk.
func New(instrument string, s sink.Sink, clk *clock.Clock) *OrderBook {
	return &OrderBook{
		instrument: instrument,
		bids:       rbt.NewWith[uint32, *priceLevel](descending),
		asks:       rbt.NewWith[uint32, *priceLevel](ascending),
		index:      make(map[uint32]*restingRef),
		sink:       s,
		clk:        clk,
	}
}

// Submit runs o against the opposite side of the book and, if any quantity
// remains, rests it on its own side. It emits OrderExecuted for every fill
// and, if o still has quantity left, exactly one OrderAdded for the
// remainder. An order fully matched on arrival emits no OrderAdded. The
// returned bool reports whether o now rests in the book, so a caller
// tracking order_id ownership knows whether a later cancel could ever hit.
// filled lists the ids of resting orders this submission fully consumed, so
// a caller tracking order_id ownership elsewhere can drop them too.
func (b *OrderBook) Submit(o *order.Order) (rests bool, filled []uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	filled = b.match(o)

	if o.Resting() {
		b.rest(o)
		b.sink.Emit(sink.OrderAdded(o.ID, o.Instrument, o.Price, o.Count, o.Side == order.Sell, b.clk.Tick()))
		return true, filled
	}
	return false, filled
}

// match walks the opposite side's best prices, filling o against resting
// orders in strict price-time priority until o is exhausted or the book no
// longer crosses o's limit price. It returns the ids of every resting order
// fully consumed along the way.
func (b *OrderBook) match(o *order.Order) []uint32 {
	opposite := b.asks
	if o.Side == order.Sell {
		opposite = b.bids
	}

	var filled []uint32
	for o.Resting() {
		node := opposite.Left()
		if node == nil || !crosses(o, node.Key) {
			return filled
		}

		level := node.Value
		front := level.orders.Front()
		top := front.Value.(*order.Order)

		qty := o.Count
		if top.Count < qty {
			qty = top.Count
		}

		o.Count -= qty
		top.Fill(qty)

		b.sink.Emit(sink.OrderExecuted(top.ID, o.ID, top.ExecutionCount, top.Price, qty, b.clk.Tick()))

		if !top.Resting() {
			level.orders.Remove(front)
			delete(b.index, top.ID)
			filled = append(filled, top.ID)
			if level.orders.Len() == 0 {
				opposite.Remove(node.Key)
			}
		}
	}
	return filled
}

// crosses reports whether incoming's limit price crosses a resting order
// at restingPrice on the opposite side.
func crosses(incoming *order.Order, restingPrice uint32) bool {
	if incoming.Side == order.Buy {
		return restingPrice <= incoming.Price
	}
	return restingPrice >= incoming.Price
}

// rest inserts o's remaining quantity onto its own side, creating the price
// level if this is the first order at that price.
func (b *OrderBook) rest(o *order.Order) {
	tree := b.bids
	if o.Side == order.Sell {
		tree = b.asks
	}

	level, found := tree.Get(o.Price)
	if !found {
		level = newPriceLevel()
		tree.Put(o.Price, level)
	}

	elem := insertByTimestamp(level, o)
	b.index[o.ID] = &restingRef{side: o.Side, price: o.Price, elem: elem}
}

// insertByTimestamp places o within level's list at the position its
// arrival Timestamp sorts to, keeping the list ordered front-to-back from
// oldest to newest regardless of the order lock acquisition happened to
// interleave in. Two concurrent arrivals can take timestamps (t1, t2) but
// reach this method in the order (t2, t1); walking from the back finds
// where t1 belongs even though it is inserted second.
func insertByTimestamp(level *priceLevel, o *order.Order) *list.Element {
	for e := level.orders.Back(); e != nil; e = e.Prev() {
		if e.Value.(*order.Order).Timestamp < o.Timestamp {
			return level.orders.InsertAfter(o, e)
		}
	}
	return level.orders.PushFront(o)
}

// Cancel removes a resting order by id, if one exists, and always emits
// exactly one OrderDeleted recording whether the cancel hit or missed.
func (b *OrderBook) Cancel(orderID uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref, found := b.index[orderID]
	if found {
		tree := b.bids
		if ref.side == order.Sell {
			tree = b.asks
		}

		if level, ok := tree.Get(ref.price); ok {
			level.orders.Remove(ref.elem)
			if level.orders.Len() == 0 {
				tree.Remove(ref.price)
			}
		}
		delete(b.index, orderID)
	}

	b.sink.Emit(sink.OrderDeleted(orderID, found, b.clk.Tick()))
}

// BestBid returns the highest resting bid price and the quantity resting at
// it. ok is false if the bid side is empty. Used only by the metrics
// exporter's depth gauges, not exposed as a client-facing command.
func (b *OrderBook) BestBid() (price, count uint32, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bestOf(b.bids)
}

// BestAsk returns the lowest resting ask price and the quantity resting at
// it. ok is false if the ask side is empty.
func (b *OrderBook) BestAsk() (price, count uint32, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bestOf(b.asks)
}

func bestOf(tree *rbt.Tree[uint32, *priceLevel]) (price, count uint32, ok bool) {
	node := tree.Left()
	if node == nil {
		return 0, 0, false
	}
	var qty uint32
	for e := node.Value.orders.Front(); e != nil; e = e.Next() {
		qty += e.Value.(*order.Order).Count
	}
	return node.Key, qty, true
}
