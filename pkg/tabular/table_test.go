package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := "Patient_ID,Velocity,Cadence\nP001,1.2,110\nP002,,95\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Patient_ID", "Velocity", "Cadence"}, table.Columns())
	assert.Equal(t, 2, table.NumRows())

	cell, ok := table.Cell(0, "Velocity")
	require.True(t, ok)
	assert.Equal(t, "1.2", cell)

	// Missing cell stays empty
	cell, ok = table.Cell(1, "Velocity")
	require.True(t, ok)
	assert.Equal(t, "", cell)
}

func TestReadCSV_RaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n1,2,3,4\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, table.NumRows())

	// Short row padded, long row truncated
	cell, _ := table.Cell(0, "c")
	assert.Equal(t, "", cell)
	cell, _ = table.Cell(1, "c")
	assert.Equal(t, "3", cell)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	table := New("a", "b")
	require.NoError(t, table.AppendRow("1", "x"))
	require.NoError(t, table.AppendRow("2", ""))

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.True(t, table.Equal(back))
}

func TestSelectAndDrop(t *testing.T) {
	table := New("id", "x", "y")
	require.NoError(t, table.AppendRow("P1", "1", "2"))

	sel := table.Select("y", "id")
	assert.Equal(t, []string{"y", "id"}, sel.Columns())
	cell, _ := sel.Cell(0, "y")
	assert.Equal(t, "2", cell)

	dropped := table.DropColumns("id")
	assert.Equal(t, []string{"x", "y"}, dropped.Columns())
	assert.False(t, dropped.HasColumn("id"))
	assert.Equal(t, 1, dropped.NumRows())
}

func TestAppendRow_ArityMismatch(t *testing.T) {
	table := New("a", "b")
	err := table.AppendRow("only-one")
	assert.Error(t, err)
	assert.Equal(t, 0, table.NumRows())
}

func TestRow(t *testing.T) {
	table := New("a", "b")
	require.NoError(t, table.AppendRow("1", "2"))

	row := table.Row(0)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, row)
	assert.Nil(t, table.Row(5))
}
