package cancellation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

func TestNext_Allowed(t *testing.T) {
	tests := []struct {
		from  State
		event Event
		want  State
	}{
		{Pending, Approve, Active},
		{Pending, Deny, Removed},
		{Active, Request, CancellationRequested},
		{Active, StaffDelete, Removed},
		{CancellationRequested, Request, CancellationRequested},
		{CancellationRequested, ApproveCancel, Removed},
		{CancellationRequested, DenyCancel, Active},
		{CancellationRequested, StaffDelete, Removed},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			got, err := Next(tt.from, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, Can(tt.from, tt.event))
		})
	}
}

func TestNext_Rejected(t *testing.T) {
	tests := []struct {
		from  State
		event Event
	}{
		{Pending, Request},
		{Pending, ApproveCancel},
		{Active, Approve},
		{Active, ApproveCancel},
		{Active, DenyCancel},
		{CancellationRequested, Approve},
		{Removed, DenyCancel},
		{Removed, StaffDelete},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			got, err := Next(tt.from, tt.event)
			assert.ErrorIs(t, err, model.ErrInvalidTransition)
			assert.Equal(t, tt.from, got)
			assert.False(t, Can(tt.from, tt.event))
		})
	}
}

func TestOfStandingRequest(t *testing.T) {
	now := time.Now()
	r := &model.StandingRequest{}
	assert.Equal(t, Pending, OfStandingRequest(r))

	r.ApprovedBy = "admin"
	r.ApprovedDate = &now
	assert.Equal(t, Active, OfStandingRequest(r))

	r.CancellationRequested = true
	assert.Equal(t, CancellationRequested, OfStandingRequest(r))
}

func TestOfTeeTime(t *testing.T) {
	tt := &model.TeeTime{}
	assert.Equal(t, Active, OfTeeTime(tt))

	tt.CancellationRequested = true
	assert.Equal(t, CancellationRequested, OfTeeTime(tt))
}
