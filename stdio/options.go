package stdio

import (
	"io"
	"log/slog"
)

// Option customizes a Handler.
type Option func(*Handler)

// WithIO sets the reader and writer for the handler.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
		if w != nil {
			h.w = w
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.l = l
		}
	}
}

// WithMaxMessageSize bounds the length of a single inbound line. Lines longer
// than this end Serve with an error. The default is 4 MiB.
func WithMaxMessageSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxMessageSize = n
		}
	}
}
