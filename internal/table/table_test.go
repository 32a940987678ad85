package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellFormatting(t *testing.T) {
	assert.Equal(t, Cell{Text: "1,234,568"}, Int(1234568))
	assert.Equal(t, Cell{Text: "0"}, Int(0))
	assert.Equal(t, Cell{Text: "1234.5"}, F(1234.46, 1))
	assert.Equal(t, Cell{Text: "0.2500"}, F(0.25, 4))
	assert.Equal(t, Cell{Text: "1,234,567.9"}, Comma(1234567.89, 1))
	assert.Equal(t, Cell{Text: "hello"}, S("hello"))
}

func TestMissingCells(t *testing.T) {
	assert.True(t, F(math.NaN(), 1).Missing)
	assert.True(t, Comma(math.NaN(), 2).Missing)
	assert.True(t, Missing().Missing)
	assert.False(t, S("").Missing, "empty string is present but blank")
}

func TestAppendPadsShortRows(t *testing.T) {
	tb := New("A", "B", "C")
	tb.Append(S("x"))

	assert.Equal(t, 1, tb.NumRows())
	assert.Len(t, tb.Rows[0], 3)
	assert.True(t, tb.Rows[0][1].Missing)
	assert.True(t, tb.Rows[0][2].Missing)
}
