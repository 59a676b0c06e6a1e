// Package printer formats marketctl output.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// SetOutput redirects both streams, mostly for tests.
func SetOutput(stdout, stderr io.Writer) {
	out, errOut = stdout, stderr
}

func Success(format string, a ...any) {
	green.Fprintf(out, "✓ %s\n", fmt.Sprintf(format, a...))
}

func Info(format string, a ...any) {
	fmt.Fprintf(out, format+"\n", a...)
}

func Warning(format string, a ...any) {
	yellow.Fprintf(out, "! %s\n", fmt.Sprintf(format, a...))
}

// Toast prints a new-message notification line.
func Toast(from, product, content string) {
	cyan.Fprintf(out, "✉ %s", from)
	if product != "" {
		faint.Fprintf(out, " (%s)", product)
	}
	fmt.Fprintf(out, ": %s\n", truncate(content, 80))
}

// Error prints title, explanation and hints to stderr and returns a short
// error for cobra, which has SilenceErrors set.
func Error(title, explanation string, hints ...string) error {
	red.Fprintf(errOut, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(errOut, "\n%s\n", explanation)
	}
	if len(hints) > 0 {
		fmt.Fprintln(errOut)
		for _, h := range hints {
			fmt.Fprintf(errOut, "  - %s\n", h)
		}
	}
	return fmt.Errorf("%s", title)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
