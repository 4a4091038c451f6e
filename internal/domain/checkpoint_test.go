package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeTasks() []PrintTask {
	return []PrintTask{
		{Kind: TaskPalletLabel, FileName: "a.zpl"},
		{Kind: TaskPalletLabel, FileName: "b.zpl"},
		{Kind: TaskStopInfoTag, FileName: "info.zpl"},
	}
}

func TestNewJobCheckpointStartsAtZero(t *testing.T) {
	cp, err := NewJobCheckpoint("job-1", InputShipment, "8000141715", "out/job-1", "DISPATCH", "10.0.0.5:9100", threeTasks())
	require.NoError(t, err)
	assert.Equal(t, 0, cp.NextTaskIndex)
	assert.False(t, cp.Completed)
	assert.Nil(t, cp.LastError)
}

func TestMarkTaskCompleteIsMonotonicAndCompletesAtEnd(t *testing.T) {
	cp, err := NewJobCheckpoint("job-1", InputShipment, "8000141715", "out/job-1", "DISPATCH", "x:9100", threeTasks())
	require.NoError(t, err)

	cp.MarkTaskComplete(0)
	assert.Equal(t, 1, cp.NextTaskIndex)
	assert.False(t, cp.Completed)

	cp.MarkTaskComplete(1)
	assert.Equal(t, 2, cp.NextTaskIndex)
	assert.False(t, cp.Completed)

	cp.MarkTaskComplete(2)
	assert.Equal(t, 3, cp.NextTaskIndex)
	assert.True(t, cp.Completed)
	assert.Equal(t, len(cp.Tasks), cp.NextTaskIndex)
}

func TestMarkFailedSetsLastErrorAndUncompletes(t *testing.T) {
	cp, err := NewJobCheckpoint("job-1", InputShipment, "8000141715", "out/job-1", "DISPATCH", "x:9100", threeTasks())
	require.NoError(t, err)
	cp.MarkTaskComplete(0)

	cp.MarkFailed("printer unreachable")
	assert.False(t, cp.Completed)
	require.NotNil(t, cp.LastError)
	assert.Equal(t, "printer unreachable", *cp.LastError)
	assert.Equal(t, 1, cp.NextTaskIndex, "NextTaskIndex is left alone on failure")
}

func TestResumeIndexAfterFailureAtIndex1(t *testing.T) {
	cp, err := NewJobCheckpoint("job-1", InputShipment, "8000141715", "out/job-1", "DISPATCH", "x:9100", threeTasks())
	require.NoError(t, err)
	cp.MarkTaskComplete(0)
	cp.MarkFailed("transport error")

	assert.Equal(t, 0, cp.ResumeIndex(), "reprints the most recently completed task")
	assert.True(t, cp.CanResume())
}

func TestCompletedCheckpointCannotResume(t *testing.T) {
	cp, err := NewJobCheckpoint("job-1", InputShipment, "8000141715", "out/job-1", "DISPATCH", "x:9100", threeTasks())
	require.NoError(t, err)
	cp.MarkTaskComplete(0)
	cp.MarkTaskComplete(1)
	cp.MarkTaskComplete(2)

	assert.False(t, cp.CanResume())
}
