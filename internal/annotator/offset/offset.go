// Package offset maps document-global character offsets to line-local ones.
package offset

import (
	"errors"
	"fmt"
)

// ErrInvalidSpan marks a span that cannot be placed on a single line.
var ErrInvalidSpan = errors.New("invalid span")

// Span is a resolved, line-local character range. End is inclusive.
type Span struct {
	Line  int
	Start int
	End   int
}

// SpanError describes why a global offset pair failed to resolve.
type SpanError struct {
	GlobalStart int
	GlobalEnd   int
	// LocalStart and LocalEnd are the residual offsets after resolution.
	LocalStart int
	LocalEnd   int
	// StartLine and EndLine are zero-based; -1 means out of range.
	StartLine int
	EndLine   int
	Reason    string
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("invalid span [%d,%d] (local %d..%d, line %d..%d): %s",
		e.GlobalStart, e.GlobalEnd, e.LocalStart, e.LocalEnd, e.StartLine, e.EndLine, e.Reason)
}

// Is reports whether target is ErrInvalidSpan.
func (e *SpanError) Is(target error) bool {
	return target == ErrInvalidSpan
}

// Resolve locates globalStart and globalEnd within lines of the given
// lengths. Each offset is located by its own walk: it belongs to the first
// line whose cumulative length exceeds it.
func Resolve(globalStart, globalEnd int, lengths []int) (Span, error) {
	startLine, localStart := locate(globalStart, lengths)
	endLine, localEnd := locate(globalEnd, lengths)

	fail := func(reason string) (Span, error) {
		return Span{}, &SpanError{
			GlobalStart: globalStart,
			GlobalEnd:   globalEnd,
			LocalStart:  localStart,
			LocalEnd:    localEnd,
			StartLine:   startLine,
			EndLine:     endLine,
			Reason:      reason,
		}
	}

	switch {
	case startLine < 0 || endLine < 0:
		return fail("offset outside document")
	case startLine != endLine:
		return fail("span crosses a line boundary")
	case localStart > localEnd:
		return fail("start after end")
	}
	return Span{Line: startLine, Start: localStart, End: localEnd}, nil
}

// Global is the inverse of Resolve for a single offset.
func Global(line, local int, lengths []int) int {
	total := local
	for i := 0; i < line && i < len(lengths); i++ {
		total += lengths[i]
	}
	return total
}

// locate returns the line containing pos and pos relative to that line.
// The line is -1 when pos is negative or past the last line.
func locate(pos int, lengths []int) (line, local int) {
	if pos < 0 {
		return -1, pos
	}
	local = pos
	for i, n := range lengths {
		if local < n {
			return i, local
		}
		local -= n
	}
	return -1, local
}
