// Package sink defines the engine's output event log: the single
// authoritative, globally-ordered record of every accepted, executed and
// cancelled order.
//
// The design generalizes the matching core's structured-logging idiom from
// "log for operators" to "the record clients are promised," and adapts a
// channel-fed trade-broadcast pattern into a single serializing writer
// rather than fan-out channels, since downstream consumers need one
// globally consistent record order rather than independent subscriber
// views.
package sink

import (
	"encoding/json"
	"io"
	"sync"
)

// Kind identifies which of the three wire events a record is.
type Kind string

const (
	KindOrderAdded    Kind = "OrderAdded"
	KindOrderExecuted Kind = "OrderExecuted"
	KindOrderDeleted  Kind = "OrderDeleted"
)

// Event is a single log record. Only the fields relevant to Kind carry
// meaning; the rest are left at their zero value. The numeric and bool
// fields do not use omitempty: an order_id of 0 or an Accepted/IsSell of
// false are valid values a consumer must be able to tell apart from the
// field being absent, so they are always encoded. Only Instrument uses
// omitempty, since event kinds that carry no instrument leave it empty.
type Event struct {
	Kind Kind   `json:"kind"`
	Seq  uint64 `json:"ts"`

	// OrderAdded
	OrderID    uint32 `json:"order_id"`
	Instrument string `json:"instrument,omitempty"`
	Price      uint32 `json:"price"`
	Count      uint32 `json:"count"`
	IsSell     bool   `json:"is_sell"`

	// OrderExecuted
	RestingOrderID  uint32 `json:"resting_order_id"`
	IncomingOrderID uint32 `json:"incoming_order_id"`
	ExecutionID     uint32 `json:"execution_id"`
	Qty             uint32 `json:"qty"`

	// OrderDeleted
	Accepted bool `json:"accepted"`
}

// OrderAdded builds an OrderAdded record. ts must come from a fresh
// Clock.Tick() drawn at emission time, not the order's arrival timestamp.
func OrderAdded(orderID uint32, instrument string, price, count uint32, isSell bool, ts uint64) Event {
	return Event{
		Kind:       KindOrderAdded,
		Seq:        ts,
		OrderID:    orderID,
		Instrument: instrument,
		Price:      price,
		Count:      count,
		IsSell:     isSell,
	}
}

// OrderExecuted builds an OrderExecuted record for a single fill.
func OrderExecuted(restingID, incomingID, executionID, price, qty uint32, ts uint64) Event {
	return Event{
		Kind:            KindOrderExecuted,
		Seq:             ts,
		RestingOrderID:  restingID,
		IncomingOrderID: incomingID,
		ExecutionID:     executionID,
		Price:           price,
		Qty:             qty,
	}
}

// OrderDeleted builds an OrderDeleted record for a cancel outcome.
func OrderDeleted(orderID uint32, accepted bool, ts uint64) Event {
	return Event{
		Kind:     KindOrderDeleted,
		Seq:      ts,
		OrderID:  orderID,
		Accepted: accepted,
	}
}

// Sink is the engine's single-writer output log. Implementations must make
// Emit safe for concurrent use by any number of book goroutines/callers —
// conceptually single-writer from the engine's perspective, so records
// appear in a globally consistent order.
type Sink interface {
	Emit(Event)
}

// Writer serializes each Event as one JSON line to an underlying io.Writer.
// A mutex guards the writer so concurrent Emit calls from different
// instrument books never interleave partial records.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriter wraps w (e.g. os.Stdout or an open file) as a Sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Emit writes ev as one JSON line. Encoding errors are not propagated: a
// broken destination writer is an operational concern for the process
// supervisor, not the matching core.
func (w *Writer) Emit(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.enc.Encode(ev)
}

// Recorder is an in-memory Sink used by tests to assert on the exact
// sequence of emitted events.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends ev to the recorded sequence.
func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a snapshot of everything recorded so far, in emission
// order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
