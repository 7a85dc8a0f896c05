package model

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAPIErrorDefaults(t *testing.T) {
	err := NewAPIError("", 0)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), err.Detail)
}

func TestNewAPIErrorKeepsGivenValues(t *testing.T) {
	err := NewAPIError("conversation not found", http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Equal(t, "conversation not found", err.Detail)
	assert.Equal(t, "conversation not found (status 404)", err.Error())
}
