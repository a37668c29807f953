package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ArchIntel/internal/config"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

func TestSearchOfficeLocation(t *testing.T) {
	var gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(LocationResult{City: "London", Country: "UK", Website: "fosterandpartners.com"})
	}))
	defer server.Close()

	oracle := NewWebSearchOracle(config.WebSearchConfig{
		Endpoint: server.URL,
		APIKey:   "secret",
	}, nil, logging.NewNopLogger())

	result, err := oracle.SearchOfficeLocation(context.Background(), "Foster + Partners")
	require.NoError(t, err)
	assert.Equal(t, "London", result.City)
	assert.Equal(t, "UK", result.Country)
	assert.False(t, result.Empty())
	assert.Contains(t, gotQuery, "Foster + Partners")
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestSearchOfficeLocationNotFoundIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	oracle := NewWebSearchOracle(config.WebSearchConfig{Endpoint: server.URL}, nil, logging.NewNopLogger())
	result, err := oracle.SearchOfficeLocation(context.Background(), "Unknown Studio")
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestSearchOfficeLocationServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	oracle := NewWebSearchOracle(config.WebSearchConfig{Endpoint: server.URL}, nil, logging.NewNopLogger())
	_, err := oracle.SearchOfficeLocation(context.Background(), "Foster + Partners")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSearchUnavailable))
}

func TestSearchDisabledWithoutEndpoint(t *testing.T) {
	oracle := NewWebSearchOracle(config.WebSearchConfig{}, nil, logging.NewNopLogger())
	result, err := oracle.SearchOfficeLocation(context.Background(), "Foster + Partners")
	require.NoError(t, err)
	assert.True(t, result.Empty())
}
