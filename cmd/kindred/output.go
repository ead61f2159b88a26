package main

import (
	"fmt"
	"io"
	"os"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// notices go to stderr so command output stays pipeable.
var notices io.Writer = os.Stderr

type mark struct {
	color, symbol string
}

var (
	markOK   = mark{colorGreen, "✓"}
	markFail = mark{colorRed, "✗"}
	markWarn = mark{colorYellow, "⚠"}
	markStep = mark{colorCyan, "→"}
)

func (m mark) print(format string, args ...any) {
	fmt.Fprintln(notices, colorize(m.color, m.symbol+" "+fmt.Sprintf(format, args...)))
}

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) { markOK.print(format, args...) }
func printError(format string, args ...any)   { markFail.print(format, args...) }
func printWarning(format string, args ...any) { markWarn.print(format, args...) }
func printStep(format string, args ...any)    { markStep.print(format, args...) }

// printStatus prints one "label: value" line of kindred status.
func printStatus(label, format string, args ...any) {
	fmt.Fprintf(notices, "  %s %s\n", colorize(colorBold, label+":"), fmt.Sprintf(format, args...))
}
