package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

const maxLineSize = 1 << 20

// Run feeds r to the engine line by line until EOF, an output failure or
// ctx is done. Reading happens on a separate goroutine so a blocked read
// does not delay shutdown; commands are still applied one at a time on the
// calling goroutine. When ctx ends first, a reader blocked on r outlives Run
// until r returns; close r to release it.
func (e *Engine) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		readErr <- sc.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("engine: read input: %w", err)
				}
				return nil
			}
			if err := e.Execute(line); errors.Is(err, ErrOutput) {
				return err
			}
		}
	}
}
