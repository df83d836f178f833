package store

import (
	"strings"

	"github.com/GeoNet/postmajor/internal/valid"
)

// toPattern converts codes with the '*' and '?' wildcards to a Postgres POSIX
// regexp matching any of them.  No codes match everything.
func toPattern(codes []string) (string, error) {
	var p []string

	for _, s := range codes {
		for _, c := range strings.Split(s, ",") {
			if c == "" {
				continue
			}

			if err := valid.Code(c); err != nil {
				return "", err
			}

			c = strings.Replace(c, "*", ".*", -1)
			c = strings.Replace(c, "?", ".", -1)

			p = append(p, "^"+c+"$")
		}
	}

	if len(p) == 0 {
		return ".*", nil
	}

	return strings.Join(p, "|"), nil
}
