package database

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBadExpression = errors.New("database: bad expression")

// Step is one hop of a path expression. Forward steps read a property of the
// current values; backward steps find the items whose property holds them.
type Step struct {
	Property string
	Forward  bool
}

// Expression is a parsed path such as ".author.label" or "!cites".
type Expression struct {
	Steps []Step
}

func (e Expression) String() string {
	var b strings.Builder
	for _, s := range e.Steps {
		if s.Forward {
			b.WriteByte('.')
		} else {
			b.WriteByte('!')
		}
		b.WriteString(s.Property)
	}
	return b.String()
}

// ParseExpression parses a path. A bare name is read as a single forward
// step, so "latlng" and ".latlng" are equivalent.
func ParseExpression(s string) (Expression, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Expression{}, fmt.Errorf("%w: empty", ErrBadExpression)
	}
	if s[0] != '.' && s[0] != '!' {
		s = "." + s
	}
	var e Expression
	i := 0
	for i < len(s) {
		forward := s[i] == '.'
		if !forward && s[i] != '!' {
			return Expression{}, fmt.Errorf("%w: unexpected %q in %q", ErrBadExpression, s[i], s)
		}
		j := i + 1
		for j < len(s) && s[j] != '.' && s[j] != '!' {
			j++
		}
		name := s[i+1 : j]
		if name == "" || strings.ContainsAny(name, " \t\n") {
			return Expression{}, fmt.Errorf("%w: bad property name in %q", ErrBadExpression, s)
		}
		e.Steps = append(e.Steps, Step{Property: name, Forward: forward})
		i = j
	}
	return e, nil
}
