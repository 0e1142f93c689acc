package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorBold     = "\033[1m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
)

// ------------------------------------------------------------
// Utility
// ------------------------------------------------------------

// TermWidth is the width of the terminal on stdout, 80 when unknown.
func TermWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// IsTerminal reports whether stdout is attached to a terminal. Colors are
// only emitted when it is.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ------------------------------------------------------------
// Banner
// ------------------------------------------------------------

const banner = `
 ___ _____ _   ___ _  __ ___ __  __ ___ _____ _  _
/ __|_   _/_\ / __| |/ // __|  \/  |_ _|_   _| || |
\__ \ | |/ _ \ (__| ' < \__ \ |\/| || |  | | | __ |
|___/ |_/_/ \_\___|_|\_\|___/_|  |_|___| |_| |_||_|

      >> TECH STACK SELECTION ASSISTANT <<
`

// PrintBanner writes the centered banner to w.
func PrintBanner(w io.Writer, color bool) {
	width := TermWidth()
	for _, l := range strings.Split(banner, "\n") {
		padding := clamp((width-utf8.RuneCountInString(l))/2, 0, width)
		line := strings.Repeat(" ", padding) + l
		if color {
			line = colorNeonCyan + line + colorReset
		}
		fmt.Fprintln(w, line)
	}
}

// PrintSummary writes a boxed block with a title and key/value lines.
func PrintSummary(w io.Writer, color bool, title string, lines []string) {
	inner := utf8.RuneCountInString(title)
	for _, l := range lines {
		inner = max(inner, utf8.RuneCountInString(l))
	}
	inner = clamp(inner, 20, TermWidth()-4)

	border := "+" + strings.Repeat("-", inner+2) + "+"
	head := title
	if color {
		head = colorBold + colorNeonMag + title + colorReset
	}

	fmt.Fprintln(w, border)
	fmt.Fprintf(w, "| %s%s |\n", head, strings.Repeat(" ", max(0, inner-utf8.RuneCountInString(title))))
	fmt.Fprintln(w, border)
	for _, l := range lines {
		fmt.Fprintf(w, "| %s%s |\n", l, strings.Repeat(" ", max(0, inner-utf8.RuneCountInString(l))))
	}
	fmt.Fprintln(w, border)
}
