package validation_test

import (
	"net/http"
	"testing"

	domainerrors "github.com/listenupapp/readup-server/internal/errors"
	"github.com/listenupapp/readup-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAuthor struct {
	Name string `yaml:"name" validate:"required"`
	Role string `yaml:"role" validate:"required,author_role"`
}

type testRequest struct {
	Title   string       `json:"title" validate:"required"`
	Page    int          `json:"page" validate:"gte=0"`
	Status  string       `json:"status" validate:"omitempty,media_status"`
	Read    string       `json:"read_status" validate:"omitempty,read_status"`
	Authors []testAuthor `json:"authors" validate:"dive"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{
		Title:   "Batman",
		Page:    3,
		Status:  "ready",
		Read:    "in_progress",
		Authors: []testAuthor{{Name: "Bob", Role: "Writer"}},
	})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       testRequest
		wantField string
	}{
		{"missing title", testRequest{Page: 1}, "title"},
		{"negative page", testRequest{Title: "x", Page: -1}, "page"},
		{"unknown media status", testRequest{Title: "x", Status: "lost"}, "status"},
		{"unknown read status", testRequest{Title: "x", Read: "skimmed"}, "read_status"},
		{"unknown role", testRequest{Title: "x", Authors: []testAuthor{{Name: "Bob", Role: "baker"}}}, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{Page: 1})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "title")
	assert.NotContains(t, err.Error(), "Title")
}
