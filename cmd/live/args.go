package live

import (
	"strings"
	"unicode"
)

// splitArgs splits an input line into fields, honoring single and double
// quotes so paths with spaces survive. An unterminated quote consumes the
// rest of the line.
func splitArgs(line string) []string {
	var (
		args    []string
		current strings.Builder
		quote   rune
	)

	flush := func() {
		if current.Len() > 0 {
			args = append(args, current.String())
			current.Reset()
		}
	}

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return args
}
