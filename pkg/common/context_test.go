package common

import (
	"context"
	"testing"

	"venturelink/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
)

func TestUserIDContext(t *testing.T) {
	_, ok := GetUserID(context.Background())
	assert.False(t, ok)

	_, ok = GetUserID(WithUserID(context.Background(), 0))
	assert.False(t, ok, "zero id is never an authenticated user")

	id, ok := GetUserID(WithUserID(context.Background(), valueobjects.UserID(7)))
	assert.True(t, ok)
	assert.Equal(t, valueobjects.UserID(7), id)
}

func TestRequestIDContext(t *testing.T) {
	id, ok := GetRequestID(WithRequestID(context.Background(), "req-1"))
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)
}
