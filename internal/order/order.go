// Package order defines the engine's core value type: a resting or in-flight
// limit order, along with its side.
package order

import "github.com/kestrel-trading/matchengine/internal/clock"

// Side is the direction of an order, as a small integer rather than a string
// enum. It never crosses the wire itself: inbound commands carry it as the
// NEW_BUY/NEW_SELL verb (see internal/transport) and outbound events as the
// is_sell flag (see internal/sink).
type Side int8

const (
	// Buy is a bid: an order to purchase at or below Price.
	Buy Side = iota
	// Sell is an offer: an order to sell at or above Price.
	Sell
)

// String implements fmt.Stringer for logging.
func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Order is either a resting order (currently held in a book, count > 0) or
// the in-flight order a match call is chewing through. Count and
// ExecutionCount are the only fields that ever mutate after construction,
// and only under the owning book's lock.
type Order struct {
	ID             uint32
	Price          uint32
	Count          uint32
	ExecutionCount uint32
	Side           Side
	Instrument     string

	// Timestamp is drawn from the shared Clock exactly once, at
	// construction, before the order ever touches a book's lock. It is the
	// sort key for price-time priority only. The wire event announcing this
	// order draws its own fresh tick at emission time rather than reusing
	// this value.
	Timestamp uint64
}

// New constructs an order and stamps its arrival timestamp from clk. id,
// price and count are assumed already validated by the caller — New
// performs no validation itself.
func New(id, price, count uint32, side Side, instrument string, clk *clock.Clock) *Order {
	return &Order{
		ID:         id,
		Price:      price,
		Count:      count,
		Side:       side,
		Instrument: instrument,
		Timestamp:  clk.Tick(),
	}
}

// Resting reports whether the order still has quantity left to fill.
func (o *Order) Resting() bool {
	return o.Count > 0
}

// Fill decrements Count and increments ExecutionCount by one trade of qty.
// The caller (OrderBook.match, under its book's lock) is responsible for
// qty never exceeding Count.
func (o *Order) Fill(qty uint32) {
	o.Count -= qty
	o.ExecutionCount++
}
