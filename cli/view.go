package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"docchat/ui"
	"docchat/web/types"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
	"go.uber.org/zap"
)

const defaultWidth = 80

// TerminalView renders controller output as plain terminal text. Answers are
// rendered with glamour, or printed as formatter HTML in html mode.
type TerminalView struct {
	out    io.Writer
	in     *bufio.Reader
	html   bool
	logger *zap.Logger

	mu       sync.Mutex
	markdown *glamour.TermRenderer
}

func NewTerminalView(out io.Writer, in *bufio.Reader, html bool, logger *zap.Logger) *TerminalView {
	v := &TerminalView{out: out, in: in, html: html, logger: logger}
	if !html {
		v.markdown = newMarkdownRenderer(out, logger)
	}
	return v
}

func newMarkdownRenderer(out io.Writer, logger *zap.Logger) *glamour.TermRenderer {
	style, width := "notty", defaultWidth
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		style = "dracula"
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			width = w - 4
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logger.Warn("Falling back to plain answers", zap.Error(err))
		return nil
	}
	return r
}

func (v *TerminalView) printf(format string, args ...interface{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

func (v *TerminalView) ShowModels(models []types.Model) {
	var b strings.Builder
	for _, m := range models {
		fmt.Fprintf(&b, "  %-40s %s\n", m.Name, m.ID)
	}
	v.printf("%s", b.String())
}

func (v *TerminalView) ShowNotice(n ui.DropdownNotice) {
	v.printf("  %s\n", n)
}

func (v *TerminalView) SetDropdownVisible(bool) {}

func (v *TerminalView) SetSearchText(text string) {
	v.printf("Model: %s\n", text)
}

func (v *TerminalView) SetRefreshEnabled(bool) {}

func (v *TerminalView) Alert(message string) {
	v.printf("! %s\n", message)
}

// Confirm asks a yes/no question on the input stream. Anything but y or yes
// declines.
func (v *TerminalView) Confirm(message string) bool {
	v.printf("%s [y/N] ", message)
	line, err := v.in.ReadString('\n')
	if err != nil && line == "" {
		v.printf("\n")
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (v *TerminalView) ShowLoading(text string) {
	v.printf("%s\n", text)
}

func (v *TerminalView) HideLoading() {}

func (v *TerminalView) ShowChat(fileName string) {
	v.printf("Document: %s\nAsk a question, or type /help.\n", fileName)
}

func (v *TerminalView) ShowUpload() {
	v.printf("Document closed.\n")
}

// AppendMessage prints assistant messages. User messages were typed by the
// user and are not echoed.
func (v *TerminalView) AppendMessage(msg ui.Message) {
	if msg.Role != types.RoleAssistant {
		return
	}
	if v.html {
		v.printf("%s\n", msg.HTML)
		return
	}
	v.printf("%s\n", v.renderMarkdown(msg.Text))
}

func (v *TerminalView) renderMarkdown(text string) string {
	if v.markdown == nil {
		return text
	}
	out, err := v.markdown.Render(text)
	if err != nil {
		v.logger.Warn("Failed to render answer", zap.Error(err))
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (v *TerminalView) ClearMessages() {}

func (v *TerminalView) SetInputEnabled(bool) {}
