package managers

import (
	"bufio"
	"strings"
)

// parseTable reads a fixed-width table such as
//
//	Name            Id                  Version   Available  Source
//	---------------------------------------------------------------
//	Mozilla Firefox Mozilla.Firefox     128.0     129.0      winget
//
// Column starts come from the header line, the first line holding every
// header in order. Rows start after the dashed separator. Positions are
// counted in runes because names may contain non-ASCII characters. The
// returned rows have one trimmed cell per header.
func parseTable(output string, headers ...string) [][]string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	var (
		starts        []int
		pastSeparator bool
		rows          [][]string
	)

	for scanner.Scan() {
		text := strings.TrimRight(scanner.Text(), "\r")
		// Progress spinners are redrawn with carriage returns; keep what was
		// drawn last.
		if i := strings.LastIndex(text, "\r"); i >= 0 {
			text = text[i+1:]
		}
		line := []rune(text)

		if starts == nil {
			starts = findColumns(string(line), headers)
			continue
		}
		if !pastSeparator {
			pastSeparator = isSeparatorLine(string(line))
			continue
		}
		if strings.TrimSpace(string(line)) == "" {
			continue
		}

		cells := make([]string, len(starts))
		for i, start := range starts {
			end := len(line)
			if i+1 < len(starts) {
				end = starts[i+1]
			}
			cells[i] = safeSubstring(line, start, end)
		}
		rows = append(rows, cells)
	}
	return rows
}

// findColumns returns the rune offset of each header in line, or nil when
// any header is missing or out of order.
func findColumns(line string, headers []string) []int {
	runes := []rune(line)
	starts := make([]int, 0, len(headers))
	pos := 0
	for _, h := range headers {
		idx := strings.Index(string(runes[pos:]), h)
		if idx < 0 {
			return nil
		}
		// strings.Index is a byte offset into the remaining text.
		start := pos + len([]rune(string(runes[pos:])[:idx]))
		starts = append(starts, start)
		pos = start + len([]rune(h))
	}
	return starts
}

// isSeparatorLine checks for a table separator (dashes and spaces only).
func isSeparatorLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 4 {
		return false
	}
	for _, ch := range trimmed {
		if ch != '-' && ch != ' ' {
			return false
		}
	}
	return true
}

// safeSubstring extracts runes [start, end) with bounds checking and trims
// whitespace.
func safeSubstring(s []rune, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return ""
	}
	return strings.TrimSpace(string(s[start:end]))
}
