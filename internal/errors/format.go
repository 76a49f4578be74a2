package errors

import (
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"

	textWidth = 72
)

var useColor = true

// SetColor turns ANSI styling of Format output on or off and returns the
// previous setting.
func SetColor(on bool) bool {
	prev := useColor
	useColor = on
	return prev
}

func paint(style, text string) string {
	if !useColor || text == "" {
		return text
	}
	return style + text + ansiReset
}

// Format renders the error for a terminal: a header line with code and
// category, the occurrence detail, every cause in the chain, the registered
// explanation and the suggestion, in that order.
func (e *Error) Format() string {
	var b strings.Builder

	head := "error"
	if e.Code != "" {
		head += " " + e.Code
	}
	if e.Category != "" {
		head += " [" + string(e.Category) + "]"
	}
	b.WriteString(paint(ansiRed+ansiBold, head))
	b.WriteString(": ")
	b.WriteString(paint(ansiBold, e.Message))
	b.WriteString("\n")

	indent(&b, e.Detail, "")

	for cause := e.Wrapped; cause != nil; cause = unwrapOnce(cause) {
		b.WriteString("  ")
		b.WriteString(paint(ansiGray, "caused by: "))
		if ce, ok := cause.(*Error); ok {
			b.WriteString(ce.FormatCompact())
		} else {
			b.WriteString(cause.Error())
		}
		b.WriteString("\n")
		if _, ok := cause.(*Error); !ok {
			// Plain errors usually embed their own causes in Error().
			break
		}
	}

	if t, ok := registry[e.Code]; ok {
		indent(&b, t.Detail, ansiGray)
	}
	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(paint(ansiCyan, "hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCompact renders the error on one line without its causes.
func (e *Error) FormatCompact() string {
	s := e.Message
	if e.Code != "" {
		s = e.Code + ": " + s
	}
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	return s
}

func indent(b *strings.Builder, text, style string) {
	for _, line := range wrapText(text, textWidth) {
		b.WriteString("  ")
		b.WriteString(paint(style, line))
		b.WriteString("\n")
	}
}

func unwrapOnce(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}

// wrapText breaks text into lines of at most width bytes. A single word
// longer than width gets a line of its own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}

// Fprint writes err to w, using Format for coded errors.
func Fprint(w io.Writer, err error) {
	var re *Error
	for cur := err; cur != nil; cur = unwrapOnce(cur) {
		if e, ok := cur.(*Error); ok {
			re = e
			break
		}
	}
	if re == nil || re != err {
		fmt.Fprintf(w, "%s: %s\n", paint(ansiRed+ansiBold, "error"), err)
		if re == nil {
			return
		}
	}
	fmt.Fprint(w, re.Format())
}
