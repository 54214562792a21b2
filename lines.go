//go:build linux

package serial

import (
	"context"
	"errors"
	"strings"
)

// WriteLine writes line followed by the configured delimiter, issuing as many
// writes as it takes to get every byte out.
func (p *Port) WriteLine(line string) error {
	data := []byte(line + p.delimiter)
	for written := 0; written < len(data); {
		n, err := p.Write(data[written:])
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("write line: device accepted no bytes")
		}
		written += n
	}
	return nil
}

// ReadLoop reads in ReadChunkSize pieces and passes every non-empty chunk to
// onData until ctx is done or the port is closed. Transient results are
// skipped. Any other error is passed to onError and ends the loop.
// Cancellation is noticed within one read timeout.
func (p *Port) ReadLoop(ctx context.Context, onData func([]byte), onError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		data, err := p.Read(ReadChunkSize)
		switch {
		case err == nil:
			onData(data)
		case IsTransient(err):
		case errors.Is(err, ErrClosed):
			return
		default:
			if onError != nil {
				onError(err)
			}
			return
		}
	}
}

// ReadLinesLoop is ReadLoop with delimiter framing: onLine receives each
// complete line without its delimiter. Lines longer than MaxLineSize are dropped.
func (p *Port) ReadLinesLoop(ctx context.Context, onLine func(string), onError func(error)) {
	var line strings.Builder
	p.ReadLoop(ctx, func(chunk []byte) {
		line.Write(chunk)
		buffered := line.String()
		for {
			idx := strings.Index(buffered, p.delimiter)
			if idx < 0 {
				break
			}
			onLine(buffered[:idx])
			buffered = buffered[idx+len(p.delimiter):]
		}
		if len(buffered) > MaxLineSize {
			p.log.Warn("dropping oversized line", "size", len(buffered))
			buffered = ""
		}
		line.Reset()
		line.WriteString(buffered)
	}, onError)
}
