package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazysheet/internal/models"
)

func TestDescribe(t *testing.T) {
	assert.Equal(t, "no filters", Describe(nil, models.CombineAnd))

	rules := []models.FilterRule{
		{Column: "City", Operator: models.OpContains, Value: "hyd"},
		{Column: "Age", Operator: models.OpGreaterThan, Value: "25"},
		{Column: "Score", Operator: models.OpBetween, Value: "1, 5"},
	}
	assert.Equal(t, `City contains "hyd" OR Age > 25 OR Score between 1 and 5`, Describe(rules, models.CombineOr))
	assert.Equal(t, `City contains "hyd" AND Age > 25 AND Score between 1 and 5`, Describe(rules, ""))
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		in   string
		want models.FilterRule
	}{
		{`City equals Kurnool`, models.FilterRule{Column: "City", Operator: models.OpEquals, Value: "Kurnool"}},
		{`Age >= 30`, models.FilterRule{Column: "Age", Operator: models.OpGreaterOrEqual, Value: "30"}},
		{`First Name starts-with "Ma ri"`, models.FilterRule{Column: "First Name", Operator: models.OpStartsWith, Value: "Ma ri"}},
		{`Age between 25,40`, models.FilterRule{Column: "Age", Operator: models.OpBetween, Value: "25,40"}},
		{`City !=`, models.FilterRule{Column: "City", Operator: models.OpNotEquals, Value: ""}},
		{`City equals "New  York"`, models.FilterRule{Column: "City", Operator: models.OpEquals, Value: "New  York"}},
		{`Note contains a  b `, models.FilterRule{Column: "Note", Operator: models.OpContains, Value: "a  b"}},
		{"  Full Name\tcontains  van der", models.FilterRule{Column: "Full Name", Operator: models.OpContains, Value: "van der"}},
	}
	for _, tt := range tests {
		got, err := ParseRule(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseRule("City Kurnool")
	assert.ErrorIs(t, err, ErrUnknownOperator)
	_, err = ParseRule("equals x")
	assert.Error(t, err)
}

func TestClassifier(t *testing.T) {
	mixed := func(numeric, total int) []string {
		out := make([]string, total)
		for i := range out {
			if i < numeric {
				out[i] = "12.5"
			} else {
				out[i] = "n/a"
			}
		}
		return out
	}

	tests := []struct {
		name  string
		cells []string
		want  ColumnClass
	}{
		{"85 of 100 numeric", mixed(85, 100), ClassNumeric},
		{"80 of 100 numeric", mixed(80, 100), ClassNumeric},
		{"75 of 100 numeric", mixed(75, 100), ClassTextual},
		{"all text", []string{"a", "b"}, ClassTextual},
		{"thousands separators", []string{"1,000", "2,500"}, ClassTextual},
		{"all empty", []string{"", ""}, ClassTextual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]string, len(tt.cells))
			for i, c := range tt.cells {
				rows[i] = []string{c}
			}
			tbl := newTable(t, []string{"v"}, rows...)
			col, _ := tbl.Column("v")
			assert.Equal(t, tt.want, DefaultClassifier.Classify(col))
		})
	}
}

func TestClassifier_SamplesOnlyTheHead(t *testing.T) {
	rows := make([][]string, 0, 300)
	for i := 0; i < 200; i++ {
		rows = append(rows, []string{"7"})
	}
	for i := 0; i < 100; i++ {
		rows = append(rows, []string{"text"})
	}
	tbl := newTable(t, []string{"v"}, rows...)
	col, _ := tbl.Column("v")

	assert.Equal(t, ClassNumeric, DefaultClassifier.Classify(col))
	assert.Equal(t, ClassTextual, Classifier{SampleSize: 300, Threshold: 0.8}.Classify(col))
}

func TestEngine_OperatorsFor(t *testing.T) {
	e := NewEngine(citizens(t))

	class, err := e.ClassifyColumn("Age")
	require.NoError(t, err)
	assert.Equal(t, ClassNumeric, class)
	assert.Contains(t, OperatorsFor(class), models.OpBetween)

	class, err = e.ClassifyColumn("City")
	require.NoError(t, err)
	assert.Equal(t, models.TextOperators, OperatorsFor(class))

	_, err = e.ClassifyColumn("nope")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestParseRule_ValueMatchesCellWithRepeatedSpaces(t *testing.T) {
	tbl := newTable(t, []string{"City"}, []string{"New  York"}, []string{"New York"})
	rule, err := ParseRule(`City equals "New  York"`)
	require.NoError(t, err)

	e := NewEngine(tbl)
	require.NoError(t, e.AddRule(rule))
	res := apply(t, e)
	assert.Equal(t, []string{"New  York"}, column(t, res.Dataset, "City"))
}
