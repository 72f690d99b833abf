package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     RequestStatus
		downloaded bool
		want       DerivedStatus
	}{
		{"pending", RequestStatusPending, false, DerivedPending},
		{"pending ignores download", RequestStatusPending, true, DerivedPending},
		{"approved", RequestStatusApproved, false, DerivedApproved},
		{"approved and downloaded", RequestStatusApproved, true, DerivedDownloaded},
		{"rejected", RequestStatusRejected, true, DerivedRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(Request{Status: tt.status}, tt.downloaded))
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(NewValidationError("x")))
	assert.Equal(t, fiber.StatusConflict, StatusFor(NewDuplicateRequestError("u", "r")))
	assert.Equal(t, fiber.StatusConflict, StatusFor(NewInvalidTransitionError(RequestStatusApproved, "approve")))
	assert.Equal(t, fiber.StatusBadGateway, StatusFor(NewWriteFailure("update", "requests/1", errors.New("boom"))))
	assert.Equal(t, fiber.StatusNotFound, StatusFor(fmt.Errorf("wrapped: %w", NewNotFoundError("Request", "1"))))
	assert.Equal(t, fiber.StatusBadGateway, StatusFor(NewUpstreamError("search provider", errors.New("429"))))
	assert.Equal(t, fiber.StatusForbidden, StatusFor(NewUnauthorizedError("no")))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(errors.New("plain")))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NewWriteFailure("set", "downloads/a", errors.New("denied")))
	assert.True(t, HasCode(err, CodeWriteFailure))
	assert.False(t, HasCode(err, CodeValidation))
	assert.Contains(t, err.Error(), "denied")
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Ada", User{ID: "u1", Name: "Ada", Email: "a@x"}.DisplayName())
	assert.Equal(t, "a@x", User{ID: "u1", Email: "a@x"}.DisplayName())
	assert.Equal(t, "u1", User{ID: "u1"}.DisplayName())
	assert.True(t, User{Role: "admin"}.IsAdmin())
	assert.False(t, User{Role: "Admin"}.IsAdmin())
}
