package export

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoordinatorStartsAtHeaderLine(t *testing.T) {
	c := NewCoordinator()
	require.Equal(t, 1, c.CurrentLine(), "the metadata header is line 1")
}

func TestCoordinatorNextLineMonotonic(t *testing.T) {
	c := NewCoordinator()
	require.Equal(t, 2, c.NextLine())
	require.Equal(t, 3, c.NextLine())
	require.Equal(t, 3, c.CurrentLine())
}

func TestCoordinatorMarkTypeStartFirstWins(t *testing.T) {
	c := NewCoordinator()
	c.NextLine() // line 2
	c.MarkTypeStart("node")
	c.NextLine() // line 3
	c.MarkTypeStart("node")

	starts := c.RecordTypeStartLines()
	require.Equal(t, 2, starts["node"], "only the first record of a type sets its start line")
}

func TestCoordinatorStartLinesMapIsACopy(t *testing.T) {
	c := NewCoordinator()
	c.NextLine()
	c.MarkTypeStart("node")

	starts := c.RecordTypeStartLines()
	starts["node"] = 99

	require.Equal(t, 2, c.RecordTypeStartLines()["node"])
}
