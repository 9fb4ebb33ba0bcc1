package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"audiosurv/internal/alerts"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 16
	statusIndent     = "  "
	timestampLayout  = "2006-01-02 15:04:05"
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

// ratingKind maps a threat rating to a status colour.
func ratingKind(r alerts.ThreatRating) statusKind {
	switch r {
	case alerts.ThreatHigh:
		return statusError
	case alerts.ThreatMedium:
		return statusWarn
	case alerts.ThreatLow:
		return statusOK
	default:
		return statusInfo
	}
}

func renderRating(r alerts.ThreatRating, colorize bool) string {
	label := string(r)
	if label == "" {
		label = "?"
	}
	if !colorize {
		return label
	}
	return statusKindColor(ratingKind(r)) + label + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(timestampLayout)
}

func truncate(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// printAlert renders one alert as a detail block.
func printAlert(out io.Writer, a alerts.Alert, colorize bool) {
	if a.ID != "" {
		fmt.Fprintf(out, "ID:          %s\n", a.ID)
		fmt.Fprintf(out, "Time:        %s\n", formatTimestamp(a.Timestamp))
	}
	fmt.Fprintf(out, "Keyword:     %s\n", a.KeywordDetected)
	fmt.Fprintf(out, "Threat:      %s\n", renderRating(a.ThreatRating, colorize))
	fmt.Fprintf(out, "State:       %s\n", a.AnalysisState)
	fmt.Fprintf(out, "Summary:     %s\n", a.SemanticSummary)
	fmt.Fprintf(out, "Transcript:  %s\n", a.FullTranscript)
	if a.EnglishTranslation != "" {
		fmt.Fprintf(out, "Translation: %s\n", a.EnglishTranslation)
	}
	for i, s := range a.SlangDetected {
		label := "Slang:"
		if i > 0 {
			label = ""
		}
		fmt.Fprintf(out, "%-12s %s: %s\n", label, s.Term, s.Meaning)
	}
}
