package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const readBufferSize = 4096

// Process reads body until the terminator, EOF, a read error or context
// cancellation, delivering events in arrival order. The events channel is
// closed when Process returns. A read error is sent once as an event with
// Error set, after every event decoded before it.
func (p *Parser) Process(body io.ReadCloser) {
	defer close(p.events)

	// Unblock a pending Read as soon as the caller gives up.
	stop := context.AfterFunc(p.ctx, func() {
		_ = body.Close()
	})
	defer stop()
	defer func() {
		if err := body.Close(); err != nil {
			p.logger.Debug("failed to close response body", "error", err)
		}
	}()

	dec := NewDecoder()
	defer func() {
		if n := dec.Discarded(); n > 0 {
			p.logger.Debug("discarded non-record lines", "count", n)
		}
	}()

	buf := make([]byte, readBufferSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(buf[:n]) {
				if !p.send(ev) {
					return
				}
			}
			if dec.Done() {
				return
			}
		}
		if err == nil {
			continue
		}

		if p.ctx.Err() != nil {
			return
		}
		for _, ev := range dec.Close() {
			if !p.send(ev) {
				return
			}
		}
		if !errors.Is(err, io.EOF) {
			p.send(Event{Error: fmt.Errorf("error reading response stream: %w", err)})
		}
		return
	}
}

// send delivers ev unless the context is already cancelled.
func (p *Parser) send(ev Event) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.events <- ev:
		return true
	}
}
