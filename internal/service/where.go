package service

import (
	"encoding/json"
	"strings"

	"github.com/lostpaws/pawserver/internal/errs"
	"github.com/lostpaws/pawserver/internal/model"
)

// A where expression is a flat list of conditions joined by a single
// connective: either all "and" or all "or". Each condition is
//
//	field OP value
//
// where OP is one of <=, >=, <, >, =, like, in and value is a JSON literal,
// e.g. where=val>2 and name like "john". The in operator takes a
// parenthesized list: age in (3,4).
type whereClause struct {
	conds []condition
	any   bool // joined with "or" instead of "and"
}

type condition struct {
	field string
	op    string
	value any
}

// Longest operators first so "<=" is not read as "<". The word operators keep
// their surrounding spaces to avoid matching inside field names.
var whereOps = []string{"<=", ">=", "<", ">", "=", " like ", " in "}

func parseWhere(expr string) (*whereClause, error) {
	clause := &whereClause{}

	parts := splitFold(expr, " or ")
	if len(parts) > 1 {
		clause.any = true
	} else {
		parts = splitFold(expr, " and ")
	}

	for _, part := range parts {
		cond, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		clause.conds = append(clause.conds, cond)
	}
	return clause, nil
}

func parseCondition(part string) (condition, error) {
	for _, op := range whereOps {
		idx := indexFold(part, op)
		if idx <= 0 {
			continue
		}
		field := strings.TrimSpace(part[:idx])
		raw := strings.TrimSpace(part[idx+len(op):])
		opName := strings.TrimSpace(op)

		// The in list arrives parenthesized, not as a JSON array.
		if opName == "in" {
			open := strings.Index(raw, "(")
			closing := strings.Index(raw, ")")
			if open < 0 || closing < open {
				return condition{}, errs.Request("Failed to parse where expression")
			}
			raw = "[" + raw[open+1:closing] + "]"
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return condition{}, errs.Request("Failed to parse where expression")
		}
		return condition{field: field, op: opName, value: value}, nil
	}
	return condition{}, errs.Request("Failed to parse where expression")
}

// match reports whether a record satisfies the clause. A record that lacks a
// condition's field never satisfies that condition.
func (w *whereClause) match(r model.Record) bool {
	for _, cond := range w.conds {
		ok := cond.match(r)
		if w.any && ok {
			return true
		}
		if !w.any && !ok {
			return false
		}
	}
	return !w.any || len(w.conds) == 0
}

func (c condition) match(r model.Record) bool {
	got, ok := r[c.field]
	if !ok {
		return false
	}
	switch c.op {
	case "=":
		return looseEqual(got, c.value)
	case "<", ">", "<=", ">=":
		cmp, ok := compareValues(got, c.value)
		if !ok {
			return false
		}
		switch c.op {
		case "<":
			return cmp < 0
		case ">":
			return cmp > 0
		case "<=":
			return cmp <= 0
		default:
			return cmp >= 0
		}
	case "like":
		gs, ok1 := got.(string)
		ws, ok2 := c.value.(string)
		return ok1 && ok2 && strings.Contains(strings.ToLower(gs), strings.ToLower(ws))
	case "in":
		list, ok := c.value.([]any)
		if !ok {
			return false
		}
		for _, want := range list {
			if looseEqual(got, want) {
				return true
			}
		}
		return false
	}
	return false
}

// looseEqual matches the store's query semantics: case-folded strings,
// value-compared numbers.
func looseEqual(a, b any) bool {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.EqualFold(as, bs)
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	return a == b
}

// compareValues orders two values: numerically when both are numbers,
// lexically when both are strings.
func compareValues(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

// splitFold splits on a separator case-insensitively, keeping the pieces.
func splitFold(s, sep string) []string {
	var parts []string
	for {
		idx := indexFold(s, sep)
		if idx < 0 {
			return append(parts, s)
		}
		parts = append(parts, s[:idx])
		s = s[idx+len(sep):]
	}
}

func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}
