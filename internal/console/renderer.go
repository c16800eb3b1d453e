package console

import (
	"barcodedrop/internal/services"
	"barcodedrop/internal/structures"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	defaultRows  = 20
	defaultWidth = 100
	clearScreen  = "\033[H\033[2J"
	timeLayout   = "2006-01-02 15:04:05"
)

// Renderer draws the live scan table on a terminal.
type Renderer struct {
	out     io.Writer
	rows    int
	width   func() int
	enabled bool

	header    *color.Color
	highlight *color.Color
	dim       *color.Color

	mu          sync.Mutex
	last        services.Snapshot
	highlighted string
	status      string
	statusAt    time.Time
}

func NewRenderer(conf *structures.Config) *Renderer {
	fd := int(os.Stdout.Fd())
	r := newRenderer(os.Stdout, conf.Console.Rows, conf.Console.Enabled && term.IsTerminal(fd))
	r.width = func() int {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
		return defaultWidth
	}
	return r
}

func newRenderer(out io.Writer, rows int, enabled bool) *Renderer {
	if rows <= 0 {
		rows = defaultRows
	}
	r := &Renderer{
		out:       out,
		rows:      rows,
		width:     func() int { return defaultWidth },
		enabled:   enabled,
		header:    color.New(color.Bold, color.FgCyan),
		highlight: color.New(color.FgBlack, color.BgYellow),
		dim:       color.New(color.Faint),
	}
	if enabled {
		for _, c := range []*color.Color{r.header, r.highlight, r.dim} {
			c.EnableColor()
		}
	}
	return r
}

func (r *Renderer) Enabled() bool {
	return r.enabled
}

func (r *Renderer) OnCollectionChanged(snap services.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = snap
	r.drawLocked()
}

func (r *Renderer) OnHighlight(id string, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if on {
		r.highlighted = id
	} else if r.highlighted == id {
		r.highlighted = ""
	}
	r.drawLocked()
}

// Notify shows message in the status line until the next one replaces it.
func (r *Renderer) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = message
	r.statusAt = time.Now()
	r.drawLocked()
}

func (r *Renderer) drawLocked() {
	if !r.enabled {
		return
	}
	_, _ = io.WriteString(r.out, clearScreen+r.formatLocked())
}

func (r *Renderer) formatLocked() string {
	var b strings.Builder
	width := r.width()

	b.WriteString(r.header.Sprintf("BarcodeDrop  %s  %d scans", r.last.User, len(r.last.Scans)))
	b.WriteString("\n\n")

	barcodeWidth := max(width-len(timeLayout)-4, 10)
	for i, s := range r.last.Scans {
		if i == r.rows {
			b.WriteString(r.dim.Sprintf("... %d more\n", len(r.last.Scans)-r.rows))
			break
		}
		line := fmt.Sprintf("%s  %s", s.ScannedAt.Local().Format(timeLayout), clip(s.Barcode, barcodeWidth))
		if s.ID == r.highlighted {
			line = r.highlight.Sprint(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if len(r.last.Scans) == 0 {
		b.WriteString(r.dim.Sprint("no scans yet\n"))
	}

	if r.status != "" {
		b.WriteString("\n")
		b.WriteString(r.dim.Sprintf("[%s] %s", r.statusAt.Format("15:04:05"), r.status))
		b.WriteString("\n")
	}
	return b.String()
}

// clip flattens newlines and shortens text to width runes.
func clip(text string, width int) string {
	text = strings.ReplaceAll(text, "\n", " ⏎ ")
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}
