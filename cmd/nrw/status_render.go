package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
	statusSkip
)

const (
	statusLabelWidth = 14
	statusIndent     = "  "
)

var (
	statusLabels = map[statusKind]string{
		statusOK:    "OK",
		statusWarn:  "WARN",
		statusError: "ERROR",
		statusSkip:  "SKIP",
	}
	statusColors = map[statusKind]text.Colors{
		statusInfo:  {text.FgBlue},
		statusOK:    {text.FgGreen},
		statusWarn:  {text.FgYellow},
		statusError: {text.FgRed, text.Bold},
		statusSkip:  {text.FgHiBlack},
	}
	headerColor = text.Colors{text.FgCyan, text.Bold}
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	tag, ok := statusLabels[kind]
	if !ok {
		tag = "INFO"
	}
	status := "[" + tag + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", status)
	if colorize {
		return paint(statusColors[kind], line)
	}
	return line
}

// paint wraps s in escape codes unconditionally; callers decide via
// shouldColorize.
func paint(c text.Colors, s string) string {
	if len(c) == 0 {
		return s
	}
	return c.EscapeSeq() + s + text.EscapeReset
}

func renderSectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(line))
	if colorize {
		return []string{paint(headerColor, line), paint(headerColor, rule)}
	}
	return []string{line, rule}
}

// shouldColorize honours NO_COLOR and only colours real terminals.
func shouldColorize(writer io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatScore(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func dashIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
