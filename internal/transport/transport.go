// Package transport is the command wire protocol the engine is driven
// over: a line-oriented TCP codec, one command per line. Connections are
// only read from; events go to the sink, not back over the connection.
// It implements the readInput/{Ok,Error,EndOfFile} connection contract as
// a concrete, buildable transport without committing the core engine to
// any particular wire format.
package transport

import (
	"strconv"
	"strings"

	"github.com/kestrel-trading/matchengine/internal/engerrors"
	"github.com/kestrel-trading/matchengine/internal/order"
)

// CommandType identifies which of the three inbound command shapes a line
// decodes to.
type CommandType int

const (
	NewBuy CommandType = iota
	NewSell
	Cancel
)

// Command is the parsed form of one inbound line.
//
//	NEW_BUY  <order_id> <instrument> <price> <count>
//	NEW_SELL <order_id> <instrument> <price> <count>
//	CANCEL   <order_id>
type Command struct {
	Type       CommandType
	OrderID    uint32
	Instrument string
	Price      uint32
	Count      uint32
}

// ParseCommand decodes one line into a Command. It returns an
// *engerrors.Error with engerrors.CodeMalformedCommand on any syntax
// problem; the caller is expected to close the connection on this, per the
// read-error-terminates-only-this-worker policy.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, engerrors.New(engerrors.CodeMalformedCommand, "empty line")
	}

	switch fields[0] {
	case "NEW_BUY", "NEW_SELL":
		if len(fields) != 5 {
			return Command{}, engerrors.Newf(engerrors.CodeMalformedCommand, "%s: expected 4 fields, got %d", fields[0], len(fields)-1)
		}
		id, err := parseUint32(fields[1])
		if err != nil {
			return Command{}, engerrors.Wrap(err, engerrors.CodeMalformedCommand, "order_id")
		}
		price, err := parseUint32(fields[3])
		if err != nil {
			return Command{}, engerrors.Wrap(err, engerrors.CodeMalformedCommand, "price")
		}
		count, err := parseUint32(fields[4])
		if err != nil {
			return Command{}, engerrors.Wrap(err, engerrors.CodeMalformedCommand, "count")
		}
		if price == 0 || count == 0 {
			return Command{}, engerrors.Newf(engerrors.CodeMalformedCommand, "price and count must be positive, got price=%d count=%d", price, count)
		}
		typ := NewBuy
		if fields[0] == "NEW_SELL" {
			typ = NewSell
		}
		return Command{Type: typ, OrderID: id, Instrument: fields[2], Price: price, Count: count}, nil

	case "CANCEL":
		if len(fields) != 2 {
			return Command{}, engerrors.Newf(engerrors.CodeMalformedCommand, "CANCEL: expected 1 field, got %d", len(fields)-1)
		}
		id, err := parseUint32(fields[1])
		if err != nil {
			return Command{}, engerrors.Wrap(err, engerrors.CodeMalformedCommand, "order_id")
		}
		return Command{Type: Cancel, OrderID: id}, nil

	default:
		return Command{}, engerrors.Newf(engerrors.CodeMalformedCommand, "unknown command %q", fields[0])
	}
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// Side reports the order.Side this command carries. Only meaningful for
// NewBuy/NewSell.
func (c Command) Side() order.Side {
	if c.Type == NewSell {
		return order.Sell
	}
	return order.Buy
}

