package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"datapacks/internal/report"
	"datapacks/internal/status"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

// kindStyles holds the bracketed label and ANSI colour of each kind.
var kindStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const (
	statusLabelWidth = 28
	statusIndent     = "  "
)

// renderStatusLine prints "  label: [KIND] message", padding the label so
// messages line up. Labels longer than the column push the message right.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := kindStyles[kind]
	if !ok {
		style = kindStyles[statusInfo]
	}
	text := "[" + style.label + "]"
	if message != "" {
		text += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", text)
	if colorize {
		return style.color + line + ansiReset
	}
	return line
}

// groupKind maps a summary group to the kind its keys are printed with.
func groupKind(group string) statusKind {
	switch group {
	case string(status.Success):
		return statusOK
	case string(status.Error):
		return statusError
	case string(status.Ignored), report.RemainingGroup:
		return statusWarn
	default:
		return statusInfo
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		blue := kindStyles[statusInfo].color
		line = blue + line + ansiReset
		rule = blue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
