package observability

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// IsInteractive reports whether stdin is attached to a terminal. The console
// gateway uses it to decide whether to print input prompts.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PrintBanner prints the startup header. It is suppressed when stdout is not
// a terminal so piped output stays clean.
func PrintBanner(appName string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	width := termWidth()
	if width > 60 {
		width = 60
	}
	rule := strings.Repeat("─", width)
	fmt.Printf("%s%s%s%s\n", colorCyan, colorBold, rule, colorReset)
	fmt.Printf("%s%s  %s — online graph exploration professor%s\n", colorCyan, colorBold, appName, colorReset)
	fmt.Printf("%s%s%s%s\n", colorCyan, colorBold, rule, colorReset)
}
