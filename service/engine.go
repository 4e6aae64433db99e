package service

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"matchbook/command"
	"matchbook/domain/orderbook"
	"matchbook/events"
	"matchbook/infra/journal"
	"matchbook/infra/outbox"
	"matchbook/infra/sequence"
	"matchbook/report"
)

// ErrOutput wraps failures of the output stream. Unlike rejected commands
// these stop the engine.
var ErrOutput = errors.New("engine: output failed")

type Stats struct {
	Commands uint64
	Accepted uint64
	Rejected uint64
	Trades   uint64
}

type Options struct {
	Session string
	// Journal records every accepted command when set.
	Journal *journal.Journal
	// Outbox receives every trade when set.
	Outbox *outbox.Outbox
	Logger *log.Entry
	Now    func() time.Time
}

type Engine struct {
	book *orderbook.OrderBook
	out  report.Reporter

	cmdSeq   *sequence.Sequencer
	tradeSeq *sequence.Sequencer

	session string
	journal *journal.Journal
	outbox  *outbox.Outbox
	pending []outbox.Entry

	log   *log.Entry
	now   func() time.Time
	stats Stats
}

func New(out report.Reporter, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	if opts.Session != "" {
		logger = logger.WithField("session", opts.Session)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		book:     orderbook.New(),
		out:      out,
		cmdSeq:   sequence.New(0),
		tradeSeq: sequence.New(0),
		session:  opts.Session,
		journal:  opts.Journal,
		outbox:   opts.Outbox,
		log:      logger,
		now:      now,
	}
	e.resumeTradeSeq()
	return e
}

// resumeTradeSeq continues trade numbering after whatever an earlier run
// left in the outbox, so undelivered trades are never overwritten. An
// unreadable outbox is dropped like any other side-channel failure.
func (e *Engine) resumeTradeSeq() {
	if e.outbox == nil {
		return
	}
	last, err := e.outbox.LastSeq()
	if err != nil {
		e.log.WithError(err).Error("outbox disabled")
		e.outbox = nil
		return
	}
	if last > 0 {
		e.tradeSeq.Reset(last)
		e.log.WithField("trade_seq", last).Info("continuing trade sequence")
	}
}

func (e *Engine) Stats() Stats { return e.stats }

// Execute parses and applies one line and flushes its output. A rejected
// line produces no output and leaves the book untouched; the rejection is
// returned for the caller's information only. Blank lines are ignored.
func (e *Engine) Execute(line string) error {
	cmd, err := command.Parse(line)
	if errors.Is(err, command.ErrEmpty) {
		return nil
	}
	if err != nil {
		e.stats.Commands++
		e.stats.Rejected++
		e.log.WithError(err).WithField("line", line).Debug("rejected")
		return err
	}

	if err := e.Dispatch(cmd); err != nil {
		return err
	}
	if err := e.out.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	return nil
}

// Dispatch applies an already parsed command. Output is buffered in the
// reporter until the caller flushes.
func (e *Engine) Dispatch(cmd command.Command) error {
	e.stats.Commands++

	var (
		trades []orderbook.Trade
		err    error
	)
	switch cmd.Kind {
	case command.Place:
		trades, err = e.place(cmd)
	case command.Cancel:
		if !e.book.Cancel(cmd.ID) {
			err = orderbook.ErrUnknownOrder
		}
	case command.Modify:
		trades, err = e.book.Modify(cmd.ID, cmd.Side, cmd.Price, cmd.Qty)
	case command.Print:
		e.out.Book(e.book.Snapshot())
	default:
		err = fmt.Errorf("%w: kind %d", command.ErrUnknownCommand, cmd.Kind)
	}
	if err != nil {
		e.stats.Rejected++
		e.log.WithError(err).WithField("command", cmd.String()).Debug("rejected")
		return err
	}

	e.stats.Accepted++
	seq := e.cmdSeq.Next()
	if o, ok := e.book.Order(cmd.ID); ok && cmd.Kind != command.Print {
		o.Seq = seq
	}
	e.record(seq, cmd)
	e.emit(trades)
	return nil
}

func (e *Engine) place(cmd command.Command) ([]orderbook.Trade, error) {
	o, err := orderbook.NewOrder(cmd.Side, cmd.TIF, cmd.Price, cmd.Qty, cmd.ID)
	if err != nil {
		return nil, err
	}
	return e.book.Place(o)
}

func (e *Engine) emit(trades []orderbook.Trade) {
	if len(trades) == 0 {
		return
	}
	at := e.now().UnixNano()
	e.pending = e.pending[:0]
	for _, tr := range trades {
		e.out.Trade(tr)
		e.stats.Trades++
		seq := e.tradeSeq.Next()

		if e.outbox == nil {
			continue
		}
		ev := events.TradeEvent{Session: e.session, Seq: seq, Trade: tr, Time: at}
		e.pending = append(e.pending, outbox.Entry{Seq: seq, Key: ev.Key(), Payload: ev.Marshal()})
	}

	if e.outbox == nil {
		return
	}
	if err := e.outbox.Put(e.pending...); err != nil {
		e.log.WithError(err).WithField("trades", len(e.pending)).Error("outbox write failed")
	}
}

var recordTypes = map[command.Kind]journal.RecordType{
	command.Place:  journal.RecordPlace,
	command.Cancel: journal.RecordCancel,
	command.Modify: journal.RecordModify,
	command.Print:  journal.RecordPrint,
}

// record journals an accepted command. A failing journal is logged and
// dropped; the engine keeps serving.
func (e *Engine) record(seq uint64, cmd command.Command) {
	if e.journal == nil {
		return
	}
	err := e.journal.Append(&journal.Record{
		Type: recordTypes[cmd.Kind],
		Seq:  seq,
		Time: e.now().UnixNano(),
		Data: []byte(cmd.String()),
	})
	if err != nil {
		e.log.WithError(err).WithField("seq", seq).Error("journal disabled")
		e.journal = nil
	}
}
