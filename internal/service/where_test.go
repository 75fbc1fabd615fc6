package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostpaws/pawserver/internal/model"
)

func TestParseWhereConditions(t *testing.T) {
	record := model.Record{
		"name":  "Charley",
		"breed": "cavapoo",
		"age":   float64(3),
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"string equality", `name="Charley"`, true},
		{"string equality folds case", `name="charley"`, true},
		{"string inequality", `name="Max"`, false},
		{"numeric equality", `age=3`, true},
		{"less than", `age<5`, true},
		{"less than fails", `age<3`, false},
		{"less or equal", `age<=3`, true},
		{"greater than", `age>2`, true},
		{"greater or equal", `age>=4`, false},
		{"like substring", `name like "har"`, true},
		{"like folds case", `name like "CHAR"`, true},
		{"like misses", `name like "xyz"`, false},
		{"in list", `age in (1,2,3)`, true},
		{"in list misses", `age in (4,5)`, false},
		{"in string list", `breed in ("pug","cavapoo")`, true},
		{"and connective", `age>2 and breed="cavapoo"`, true},
		{"and short-circuits", `age>2 and breed="pug"`, false},
		{"or connective", `age>10 or breed="cavapoo"`, true},
		{"or misses", `age>10 or breed="pug"`, false},
		{"missing field never matches", `color="brown"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := parseWhere(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, clause.match(record))
		})
	}
}

func TestParseWhereErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"no operator", "name"},
		{"unquoted string value", "name=Charley"},
		{"empty field", `="Charley"`},
		{"in without parentheses", `age in [1,2,3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseWhere(tt.expr)
			assert.Error(t, err)
		})
	}
}
