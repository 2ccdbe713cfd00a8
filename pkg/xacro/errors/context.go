package errors

import (
	"fmt"
	"os"
	"strings"

	"mercator-hq/xacro/pkg/xacro/dom"
)

// ExtractContext reads the file named by location and returns the lines
// around it, with the failing line marked. It returns "" if the file cannot
// be read.
func ExtractContext(location dom.Location, contextLines int) string {
	if !location.IsValid() {
		return ""
	}

	data, err := os.ReadFile(location.File)
	if err != nil {
		return ""
	}
	return ExtractContextFromSource(data, location, contextLines)
}

// ExtractContextFromSource is ExtractContext for in-memory source.
func ExtractContextFromSource(src []byte, location dom.Location, contextLines int) string {
	if location.Line <= 0 {
		return ""
	}

	lines := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")

	errorLine := location.Line - 1
	if errorLine >= len(lines) {
		return ""
	}
	startLine := errorLine - contextLines
	endLine := errorLine + contextLines

	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}

	var sb strings.Builder
	maxLineNumWidth := len(fmt.Sprintf("%d", endLine+1))

	for i := startLine; i <= endLine; i++ {
		lineNumStr := fmt.Sprintf("%*d", maxLineNumWidth, i+1)
		prefix := "  "
		if i == errorLine {
			prefix = "->"
		}

		sb.WriteString(fmt.Sprintf("%s %s | %s\n", prefix, lineNumStr, lines[i]))

		if i == errorLine && location.Column > 0 {
			padding := strings.Repeat(" ", location.Column-1)
			sb.WriteString(fmt.Sprintf("   %s | %s^\n", strings.Repeat(" ", maxLineNumWidth), padding))
		}
	}

	return sb.String()
}

// AddContext fills err.Context from src (or from the file on disk when src is
// nil). It is a no-op when the context is already set.
func AddContext(err *Error, src []byte) *Error {
	if err.Context != "" {
		return err
	}
	if src != nil {
		err.Context = ExtractContextFromSource(src, err.Location, 2)
	} else {
		err.Context = ExtractContext(err.Location, 2)
	}
	return err
}
