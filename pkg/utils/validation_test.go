package utils

import (
	"testing"

	pkgerrors "venturelink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	ToUserID int64  `validate:"gt=0"`
	Message  string `validate:"max=5"`
	Status   string `validate:"required,oneof=accepted declined"`
	Email    string `validate:"omitempty,email"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		payload    samplePayload
		wantFields []string
		wantText   string
	}{
		{
			name:    "valid payload",
			payload: samplePayload{ToUserID: 2, Message: "hi", Status: "accepted"},
		},
		{
			name:       "non-positive id",
			payload:    samplePayload{ToUserID: 0, Status: "declined"},
			wantFields: []string{"toUserID"},
			wantText:   "toUserID must be greater than 0",
		},
		{
			name:       "bad status",
			payload:    samplePayload{ToUserID: 1, Status: "maybe"},
			wantFields: []string{"status"},
			wantText:   "status must be one of: accepted, declined",
		},
		{
			name:       "multiple failures",
			payload:    samplePayload{Message: "too long", Email: "nope"},
			wantFields: []string{"toUserID", "message", "status", "email"},
			wantText:   "message must be at most 5 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.payload)

			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr := pkgerrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, pkgerrors.ErrorTypeValidation, appErr.Type)
			assert.Contains(t, appErr.Message, tt.wantText)
			for _, field := range tt.wantFields {
				assert.Contains(t, appErr.Details, field)
			}
		})
	}
}
