package service

import (
	"errors"
	"fmt"

	"matchbook/command"
	"matchbook/infra/journal"
)

// ErrDiverged means a journaled command did not apply the way it did when
// it was recorded.
var ErrDiverged = errors.New("engine: replay diverged")

// Replay re-executes a journaled session against e, which must be fresh.
// Every journaled command was accepted when recorded, so with a fresh book
// it must be accepted again and get the same sequence number; anything else
// is reported as divergence. Output goes to e's reporter as it did live.
func (e *Engine) Replay(dir string) (uint64, error) {
	last, err := journal.Replay(dir, func(rec *journal.Record) error {
		cmd, err := command.Parse(string(rec.Data))
		if err != nil {
			return fmt.Errorf("seq %d: %w", rec.Seq, err)
		}
		if want := recordTypes[cmd.Kind]; want != rec.Type {
			return fmt.Errorf("%w: seq %d: record type %d for %s", ErrDiverged, rec.Seq, rec.Type, cmd.Kind)
		}
		if err := e.Dispatch(cmd); err != nil {
			return fmt.Errorf("%w: seq %d %q: %w", ErrDiverged, rec.Seq, rec.Data, err)
		}
		if got := e.cmdSeq.Current(); got != rec.Seq {
			return fmt.Errorf("%w: seq %d applied as %d", ErrDiverged, rec.Seq, got)
		}
		if err := e.out.Flush(); err != nil {
			return fmt.Errorf("%w: %w", ErrOutput, err)
		}
		return nil
	})
	if err != nil {
		return last, err
	}

	e.log.WithField("last_seq", last).Info("replay complete")
	return last, nil
}
