package entities

import (
	"strings"
	"testing"
	"time"

	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewCollaborationRequest(t *testing.T) {
	tests := []struct {
		name    string
		from    valueobjects.UserID
		to      valueobjects.UserID
		message string
		wantErr string
	}{
		{name: "with message", from: 1, to: 2, message: "Let's talk about your Series A"},
		{name: "without message", from: 1, to: 2},
		{name: "self request", from: 3, to: 3, wantErr: "yourself"},
		{name: "missing recipient", from: 1, to: 0, wantErr: "both users are required"},
		{name: "message too long", from: 1, to: 2, message: strings.Repeat("x", MaxRequestMessageLength+1), wantErr: "maximum length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewCollaborationRequest(tt.from, tt.to, tt.message, baseTime)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, valueobjects.StatusPending, req.Status)
			assert.Equal(t, tt.message, req.Message)
			assert.Equal(t, baseTime, req.CreatedAt)
			assert.Equal(t, baseTime, req.UpdatedAt)
		})
	}
}

func TestCollaborationRequest_Respond(t *testing.T) {
	later := baseTime.Add(time.Hour)

	t.Run("recipient accepts pending request", func(t *testing.T) {
		req, err := NewCollaborationRequest(1, 2, "", baseTime)
		require.NoError(t, err)

		err = req.Respond(2, valueobjects.StatusAccepted, later)

		require.NoError(t, err)
		assert.Equal(t, valueobjects.StatusAccepted, req.Status)
		assert.Equal(t, later, req.UpdatedAt)
	})

	t.Run("terminal request cannot be re-transitioned", func(t *testing.T) {
		req, _ := NewCollaborationRequest(1, 2, "", baseTime)
		require.NoError(t, req.Respond(2, valueobjects.StatusAccepted, later))

		err := req.Respond(2, valueobjects.StatusDeclined, later.Add(time.Minute))

		assert.True(t, pkgerrors.IsInvalidStateTransition(err))
		assert.Equal(t, valueobjects.StatusAccepted, req.Status)
		assert.Equal(t, later, req.UpdatedAt)
	})

	t.Run("same terminal status twice is still rejected", func(t *testing.T) {
		req, _ := NewCollaborationRequest(1, 2, "", baseTime)
		require.NoError(t, req.Respond(2, valueobjects.StatusDeclined, later))

		err := req.Respond(2, valueobjects.StatusDeclined, later)

		assert.True(t, pkgerrors.IsInvalidStateTransition(err))
	})

	t.Run("pending is not a response", func(t *testing.T) {
		req, _ := NewCollaborationRequest(1, 2, "", baseTime)

		err := req.Respond(2, valueobjects.StatusPending, later)

		assert.True(t, pkgerrors.IsValidation(err))
		assert.Equal(t, valueobjects.StatusPending, req.Status)
	})

	t.Run("sender cannot respond", func(t *testing.T) {
		req, _ := NewCollaborationRequest(1, 2, "", baseTime)

		err := req.Respond(1, valueobjects.StatusAccepted, later)

		assert.True(t, pkgerrors.IsForbidden(err))
		assert.Equal(t, valueobjects.StatusPending, req.Status)
	})
}

func TestCollaborationRequest_IsBetween(t *testing.T) {
	req, _ := NewCollaborationRequest(1, 2, "", baseTime)

	assert.True(t, req.IsBetween(1, 2))
	assert.True(t, req.IsBetween(2, 1))
	assert.False(t, req.IsBetween(1, 3))
}
