package chunk

import (
	"strings"
)

// logicalLine is the first physical line of a Python statement.
type logicalLine struct {
	index  int
	indent int
	text   string
}

// pythonUnits returns the source span of every def, async def and class
// block in source order, nested blocks and decorators included. Unterminated
// strings or unbalanced brackets yield nil.
func pythonUnits(src string) []string {
	lines := strings.Split(src, "\n")
	logical, ok := scanLogicalLines(lines)
	if !ok {
		return nil
	}

	var out []string
	for i, ll := range logical {
		if !isDefinition(ll.text) {
			continue
		}
		start := ll.index
		for j := i - 1; j >= 0; j-- {
			prev := logical[j]
			if prev.indent != ll.indent || !strings.HasPrefix(prev.text, "@") {
				break
			}
			start = prev.index
		}

		end := len(lines)
		for _, next := range logical[i+1:] {
			if next.indent <= ll.indent {
				end = next.index
				break
			}
		}
		for end > start+1 && isTrailing(lines[end-1]) {
			end--
		}
		out = append(out, strings.Join(lines[start:end], "\n"))
	}
	return out
}

func isDefinition(stmt string) bool {
	for _, kw := range []string{"def ", "async def ", "class "} {
		if strings.HasPrefix(stmt, kw) {
			return true
		}
	}
	return false
}

// isTrailing reports lines that do not belong to the block above them.
func isTrailing(line string) bool {
	t := strings.TrimSpace(line)
	return t == "" || strings.HasPrefix(t, "#")
}

// scanLogicalLines tracks string literals, brackets and backslash
// continuations to find where statements start. Blank and comment-only
// lines are skipped. It reports false on input Python would reject.
func scanLogicalLines(lines []string) ([]logicalLine, bool) {
	var (
		out       []logicalLine
		depth     int
		open      string // delimiter of a string literal still open at line end
		continued bool
	)

	for idx, line := range lines {
		startsStatement := depth == 0 && open == "" && !continued
		continued = false

		if startsStatement {
			t := strings.TrimSpace(line)
			if t == "" || strings.HasPrefix(t, "#") {
				continue
			}
			out = append(out, logicalLine{index: idx, indent: indentWidth(line), text: t})
		}

		last := len(strings.TrimRight(line, "\r")) - 1
		escapedEOL := false
		for i := 0; i < len(line); i++ {
			ch := line[i]
			if open != "" {
				if ch == '\\' {
					escapedEOL = i == last
					i++
					continue
				}
				if strings.HasPrefix(line[i:], open) {
					i += len(open) - 1
					open = ""
				}
				continue
			}
			switch ch {
			case '#':
				i = len(line)
			case '\\':
				if i == len(strings.TrimRight(line, " \t\r"))-1 {
					continued = true
				}
				i++
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
				if depth < 0 {
					return nil, false
				}
			case '"', '\'':
				q := string(ch)
				if strings.HasPrefix(line[i:], q+q+q) {
					open = q + q + q
					i += 2
					continue
				}
				open = q
			}
		}
		// A single-quoted string may only span lines through a trailing
		// backslash.
		if len(open) == 1 && !escapedEOL {
			return nil, false
		}
	}
	if depth != 0 || open != "" {
		return nil, false
	}
	return out, true
}

func indentWidth(line string) int {
	w := 0
	for _, r := range line {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 8 - w%8
		default:
			return w
		}
	}
	return w
}
