package linestore

import "strings"

// Split breaks raw into lines, keeping each terminator with the text before
// it. Terminators are "\n", "\r", "\r\n" and the ideographic full stop.
// Zero-length fragments are dropped, so the lines concatenate back to raw.
func Split(raw string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(raw); {
		switch {
		case raw[i] == '\r' && i+1 < len(raw) && raw[i+1] == '\n':
			i += 2
		case raw[i] == '\n' || raw[i] == '\r':
			i++
		case strings.HasPrefix(raw[i:], "。"):
			i += len("。")
		default:
			i++
			continue
		}
		lines = append(lines, raw[start:i])
		start = i
	}
	if start < len(raw) {
		lines = append(lines, raw[start:])
	}
	return lines
}
