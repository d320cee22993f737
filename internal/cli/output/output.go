// Package output provides mode-aware rendering for CLI commands.
//
// Terminal sessions get styled text, piped output gets markdown
// (agent-friendly), and --output json gets machine-readable output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Mode selects the rendering format.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle     = lipgloss.NewStyle().Bold(true)
)

// Renderer writes command output in the active mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
}

// NewRenderer creates a renderer. ModeAuto resolves to text on a terminal
// and markdown otherwise.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	switch mode {
	case ModeText, ModeMarkdown, ModeJSON:
	default:
		mode = ModeAuto
	}
	return &Renderer{out: out, errOut: errOut, mode: mode}
}

// EffectiveMode resolves ModeAuto against the output destination.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if isTerminal(r.out) {
		return ModeText
	}
	return ModeMarkdown
}

// Println writes a plain line.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Printf writes formatted plain text.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Header writes a styled (text mode) or markdown heading.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeText {
		_, _ = fmt.Fprintln(r.out, headerStyle.Render(text))
		return
	}
	_, _ = fmt.Fprintln(r.out, FormatHeader(level, text))
}

// Success writes a success line.
func (r *Renderer) Success(text string) {
	if r.EffectiveMode() == ModeText {
		_, _ = fmt.Fprintln(r.out, successStyle.Render("✓ ")+text)
		return
	}
	_, _ = fmt.Fprintln(r.out, text)
}

// Muted writes a de-emphasized line.
func (r *Renderer) Muted(text string) {
	if r.EffectiveMode() == ModeText {
		_, _ = fmt.Fprintln(r.out, mutedStyle.Render(text))
		return
	}
	_, _ = fmt.Fprintln(r.out, text)
}

// ErrorLine writes an error line to the error stream.
func (r *Renderer) ErrorLine(text string) {
	if r.EffectiveMode() == ModeText {
		_, _ = fmt.Fprintln(r.errOut, errorStyle.Render("✗ ")+text)
		return
	}
	_, _ = fmt.Fprintln(r.errOut, "Error: "+text)
}

// KeyValue writes a "key: value" line styled for the active mode.
func (r *Renderer) KeyValue(key string, value any) {
	if r.EffectiveMode() == ModeText {
		_, _ = fmt.Fprintf(r.out, "  %s %v\n", keyStyle.Render(key+":"), value)
		return
	}
	_, _ = fmt.Fprintln(r.out, FormatKeyValue(key, fmt.Sprintf("%v", value)))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatHeader returns a markdown heading of the given level.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown bold key/value line.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("**%s:** %s", key, value)
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func init() {
	// Honor NO_COLOR / TERM when styling; EnvColorProfile degrades to
	// Ascii on dumb terminals.
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}
