// Package query reads documents with JSONPath selectors and evaluates
// expressions against them. Both work on plain copies and never modify the
// document.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theory/jsonpath"

	"github.com/tailored-agentic-units/dotstore/value"
)

var (
	ErrInvalidQuery      = errors.New("invalid query")
	ErrInvalidExpression = errors.New("invalid expression")
)

// Select returns copies of every node matched by the RFC 9535 JSONPath
// expression. List-like mappings are addressed as arrays and their members
// match in order; the order of matches across object members is unspecified.
// No match yields an empty slice.
func Select(root value.Value, expr string) ([]value.Value, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: expression is empty", ErrInvalidQuery)
	}

	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidQuery, expr, err)
	}

	nodes := path.Select(root.Any())
	out := make([]value.Value, 0, len(nodes))
	for _, node := range nodes {
		v, err := value.FromAny(node)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidQuery, expr, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// First returns the first node matched by expr, or def when nothing matches.
func First(root value.Value, expr string, def value.Value) (value.Value, error) {
	nodes, err := Select(root, expr)
	if err != nil {
		return value.Null(), err
	}
	if len(nodes) == 0 {
		return def, nil
	}
	return nodes[0], nil
}
