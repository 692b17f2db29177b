package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/assetgrid/internal/pipeline"
)

// AssertSequential checks that every result started no earlier than the
// previous one ended.
func AssertSequential(t *testing.T, results []*pipeline.Result) {
	t.Helper()
	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		require.False(t, cur.Start.Before(prev.End),
			"step %q started at %s before step %q ended at %s", cur.Task, cur.Start, prev.Task, prev.End)
	}
}

// AssertRecordsSequential is AssertSequential for stage recordings.
func AssertRecordsSequential(t *testing.T, records []ExecutionRecord) {
	t.Helper()
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1], records[i]
		require.False(t, cur.Start.Before(prev.End),
			"%q started before %q ended", cur.Name, prev.Name)
	}
}
