package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from JobStatus
		to   JobStatus
		want bool
	}{
		{JobStatusQueued, JobStatusProcessing, true},
		{JobStatusQueued, JobStatusSucceeded, true},
		{JobStatusQueued, JobStatusFailed, true},
		{JobStatusProcessing, JobStatusSucceeded, true},
		{JobStatusProcessing, JobStatusFailed, true},
		{JobStatusProcessing, JobStatusQueued, false},
		{JobStatusSucceeded, JobStatusProcessing, false},
		{JobStatusSucceeded, JobStatusFailed, false},
		{JobStatusFailed, JobStatusSucceeded, false},
		{JobStatusFailed, JobStatusQueued, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestJobStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, JobStatusQueued.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusSucceeded.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}

func TestCreateJobRequestValidate(t *testing.T) {
	t.Parallel()

	valid := CreateJobRequest{OwnerID: "owner-1", ExternalID: "ext-1", Model: "m"}
	require.NoError(t, valid.Validate())

	missingOwner := valid
	missingOwner.OwnerID = " "
	require.Error(t, missingOwner.Validate())

	missingExternal := valid
	missingExternal.ExternalID = ""
	require.Error(t, missingExternal.Validate())

	missingModel := valid
	missingModel.Model = ""
	require.Error(t, missingModel.Validate())
}

func TestTransitionParamsValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, (&TransitionParams{ExternalID: "ext-1", Status: JobStatusProcessing}).Validate())
	require.Error(t, (&TransitionParams{Status: JobStatusProcessing}).Validate())
	require.Error(t, (&TransitionParams{ExternalID: "ext-1", Status: "unknown"}).Validate())
}
