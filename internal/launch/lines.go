package launch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const maxLineSize = 1024 * 1024

// LineFunc receives one non-empty line of process output, without the line
// terminator.
type LineFunc func(ctx context.Context, line string)

// scanLines delivers lines from r to fn until r is exhausted or the process
// is released. The pipe is drained even when fn is nil, a child blocked on a
// full pipe would never exit. A line over maxLineSize ends delivery for the
// stream; the rest of it is discarded and ErrLineTooLong returned.
func scanLines(ctx context.Context, p *Process, stream string, r io.Reader, fn LineFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if p.isReleased() {
			return nil
		}
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || fn == nil {
			continue
		}
		fn(ctx, line)
	}

	err := scanner.Err()
	switch {
	case err == nil, p.isReleased():
		return nil
	case errors.Is(err, bufio.ErrTooLong):
		_, _ = io.Copy(io.Discard, r)
		return fmt.Errorf("%s: %w: limit %d bytes", stream, ErrLineTooLong, maxLineSize)
	default:
		return fmt.Errorf("reading %s: %w", stream, err)
	}
}
