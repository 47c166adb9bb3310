// The code in this package is derivative of https://gitlab.com/greyxor/slogor.
// Mount of this source code is governed by a MIT license that can be found
// at https://gitlab.com/greyxor/slogor/-/blob/main/LICENSE?ref_type=heads.

package slogpretty

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/tigerwill90/segtrie/internal/ansi"
)

const (
	maxBufferSize     = 16 << 10 // 16384
	initialBufferSize = 1024
)

var _ slog.Handler = (*Handler)(nil)

var logBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, initialBufferSize)
		return &b
	},
}

var timeFormat = fmt.Sprintf("%s %s", time.DateOnly, time.TimeOnly)

func freeBuf(b *[]byte) {
	if cap(*b) <= maxBufferSize {
		*b = (*b)[:0]
		logBufPool.Put(b)
	}
}

type GroupOrAttrs struct {
	attr  slog.Attr
	group string
}

// Handler writes colored, human-readable records. Records at error level go to We, everything else to Wo.
type Handler struct {
	We  io.Writer
	Wo  io.Writer
	Lvl slog.Leveler
	Goa []GroupOrAttrs

	// NoColor disables ANSI escape codes.
	NoColor bool
}

// New returns a Handler writing to wo and we, enabled from lvl. Colors are disabled unless both writers are terminals.
func New(wo, we io.Writer, lvl slog.Leveler) *Handler {
	return &Handler{
		We:      &lockedWriter{w: we},
		Wo:      &lockedWriter{w: wo},
		Lvl:     lvl,
		Goa:     make([]GroupOrAttrs, 0),
		NoColor: !isTerminal(wo) || !isTerminal(we),
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.Lvl.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	bufp := logBufPool.Get().(*[]byte)
	buf := *bufp

	defer func() {
		*bufp = buf
		freeBuf(bufp)
	}()

	buf = append(buf, "[SEGTRIE] "...)

	if !record.Time.IsZero() {
		buf = style(buf, h.NoColor, ansi.Faint)
		buf = append(buf, record.Time.Format(timeFormat)...)
		buf = style(buf, h.NoColor, ansi.NormalIntensity)
		buf = append(buf, " "...)
	}

	// Write level with appropriate formatting and color.
	// Also append right padding depending on the log level.
	buf = append(buf, "| "...)
	switch record.Level {
	case slog.LevelInfo:
		buf = style(buf, h.NoColor, ansi.FgGreen)
		buf = append(buf, record.Level.String()...)
		buf = append(buf, " "...)
	case slog.LevelError:
		buf = style(buf, h.NoColor, ansi.FgRed)
		buf = append(buf, record.Level.String()...)
	case slog.LevelWarn:
		buf = style(buf, h.NoColor, ansi.FgYellow)
		buf = append(buf, record.Level.String()...)
		buf = append(buf, " "...)
	default:
		buf = style(buf, h.NoColor, ansi.FgMagenta)
		buf = append(buf, record.Level.String()...)
	}

	buf = style(buf, h.NoColor, ansi.Reset)
	buf = append(buf, " | "...)
	buf = append(buf, record.Message...)
	buf = append(buf, " | "...)

	lastGroup := ""
	for _, goa := range h.Goa {
		switch {
		case goa.group != "":
			lastGroup += goa.group + "."
		default:
			attr := goa.attr
			if lastGroup != "" {
				attr.Key = lastGroup + attr.Key
			}

			buf = appendAttr(buf, attr, h.NoColor)
		}
	}

	if record.NumAttrs() > 0 {
		record.Attrs(func(attr slog.Attr) bool {
			if lastGroup != "" {
				attr.Key = lastGroup + attr.Key
			}
			buf = appendAttr(buf, attr, h.NoColor)

			return true
		})
	}

	// Replace the latest space by an EOL.
	buf[len(buf)-1] = '\n'

	if record.Level >= slog.LevelError {
		if _, err := h.We.Write(buf); err != nil {
			return fmt.Errorf("failed to write buffer: %w", err)
		}
	} else {
		if _, err := h.Wo.Write(buf); err != nil {
			return fmt.Errorf("failed to write buffer: %w", err)
		}
	}

	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]GroupOrAttrs, len(attrs))
	for i, attr := range attrs {
		newAttrs[i] = GroupOrAttrs{attr: attr}
	}

	return &Handler{
		We:      h.We,
		Wo:      h.Wo,
		Lvl:     h.Lvl,
		Goa:     append(h.Goa[:len(h.Goa):len(h.Goa)], newAttrs...),
		NoColor: h.NoColor,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{
		We:      h.We,
		Wo:      h.Wo,
		Lvl:     h.Lvl,
		Goa:     append(h.Goa[:len(h.Goa):len(h.Goa)], GroupOrAttrs{group: name}),
		NoColor: h.NoColor,
	}
}

// appendAttr appends the attribute to the buffer.
func appendAttr(buf []byte, attr slog.Attr, noColor bool) []byte {
	// Resolve the Attr's value before doing anything else.
	attr.Value = attr.Value.Resolve()

	// Ignore empty Attrs.
	if attr.Equal(slog.Attr{}) {
		return buf
	}

	buf = style(buf, noColor, ansi.Faint)
	buf = style(buf, noColor, ansi.Bold)

	buf = append(buf, attr.Key...)
	buf = append(buf, "="...)
	buf = style(buf, noColor, ansi.NormalIntensity)

	var addWhitespace bool
	switch attr.Key {
	case "id":
		buf = style(buf, noColor, ansi.BgBlue)
		addWhitespace = true
	case "template":
		buf = style(buf, noColor, ansi.FgYellow)
	case "error":
		buf = style(buf, noColor, ansi.FgRed)
	default:
		buf = style(buf, noColor, ansi.FgCyan)
	}

	if addWhitespace {
		buf = append(buf, " "+attr.Value.String()+" "...)
	} else {
		buf = append(buf, attr.Value.String()...)
	}
	buf = style(buf, noColor, ansi.Reset)
	buf = append(buf, " "...)

	return buf
}

func style(buf []byte, noColor bool, code string) []byte {
	if noColor {
		return buf
	}
	return append(buf, code...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type lockedWriter struct {
	w io.Writer
	sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (n int, err error) {
	w.Lock()
	n, err = w.w.Write(p)
	w.Unlock()
	return
}
