// Package command turns one line of the text protocol into a typed command.
// It knows the shape of each command and the type of each field; it does
// not know anything about the state of the book.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"matchbook/domain/orderbook"
)

type Kind uint8

const (
	Place Kind = iota + 1
	Cancel
	Modify
	Print
)

func (k Kind) String() string {
	switch k {
	case Place:
		return "PLACE"
	case Cancel:
		return "CANCEL"
	case Modify:
		return "MODIFY"
	case Print:
		return "PRINT"
	default:
		return "UNKNOWN"
	}
}

const (
	placeFields  = 5
	cancelFields = 2
	modifyFields = 5
	printFields  = 1
)

var (
	ErrEmpty          = errors.New("command: empty line")
	ErrUnknownCommand = errors.New("command: unknown keyword")
	ErrFieldCount     = errors.New("command: wrong number of fields")
	ErrInvalidNumber  = errors.New("command: invalid number")
)

// Command is a parsed line. Fields not used by Kind are zero.
type Command struct {
	Kind  Kind
	Side  orderbook.Side
	TIF   orderbook.TimeInForce
	Price int64
	Qty   int64
	ID    string
}

// Parse splits line on runs of whitespace and decodes the fields of the
// command named by the first token. Keywords are case-sensitive.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmpty
	}

	switch fields[0] {
	case "BUY", "SELL":
		return parsePlace(fields)
	case "CANCEL":
		if len(fields) != cancelFields {
			return Command{}, fmt.Errorf("cancel: %w", ErrFieldCount)
		}
		return Command{Kind: Cancel, ID: fields[1]}, nil
	case "MODIFY":
		return parseModify(fields)
	case "PRINT":
		if len(fields) != printFields {
			return Command{}, fmt.Errorf("print: %w", ErrFieldCount)
		}
		return Command{Kind: Print}, nil
	}
	return Command{}, fmt.Errorf("%q: %w", fields[0], ErrUnknownCommand)
}

// <BUY|SELL> <GFD|IOC> <price> <qty> <id>
func parsePlace(fields []string) (Command, error) {
	if len(fields) != placeFields {
		return Command{}, fmt.Errorf("place: %w", ErrFieldCount)
	}
	side, err := orderbook.ParseSide(fields[0])
	if err != nil {
		return Command{}, err
	}
	tif, err := orderbook.ParseTimeInForce(fields[1])
	if err != nil {
		return Command{}, err
	}
	price, err := parseUint(fields[2])
	if err != nil {
		return Command{}, fmt.Errorf("price: %w", err)
	}
	qty, err := parseUint(fields[3])
	if err != nil {
		return Command{}, fmt.Errorf("quantity: %w", err)
	}
	return Command{Kind: Place, Side: side, TIF: tif, Price: price, Qty: qty, ID: fields[4]}, nil
}

// MODIFY <id> <BUY|SELL> <price> <qty>
func parseModify(fields []string) (Command, error) {
	if len(fields) != modifyFields {
		return Command{}, fmt.Errorf("modify: %w", ErrFieldCount)
	}
	side, err := orderbook.ParseSide(fields[2])
	if err != nil {
		return Command{}, err
	}
	price, err := parseUint(fields[3])
	if err != nil {
		return Command{}, fmt.Errorf("price: %w", err)
	}
	qty, err := parseUint(fields[4])
	if err != nil {
		return Command{}, fmt.Errorf("quantity: %w", err)
	}
	return Command{Kind: Modify, ID: fields[1], Side: side, Price: price, Qty: qty}, nil
}

// parseUint decodes a base-10 unsigned field. Range checks (zero) belong to
// the order book.
func parseUint(s string) (int64, error) {
	v, err := strconv.ParseUint(s, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidNumber)
	}
	return int64(v), nil
}

// String renders the canonical protocol line for c.
func (c Command) String() string {
	switch c.Kind {
	case Place:
		return fmt.Sprintf("%s %s %d %d %s", c.Side, c.TIF, c.Price, c.Qty, c.ID)
	case Cancel:
		return "CANCEL " + c.ID
	case Modify:
		return fmt.Sprintf("MODIFY %s %s %d %d", c.ID, c.Side, c.Price, c.Qty)
	case Print:
		return "PRINT"
	}
	return ""
}
