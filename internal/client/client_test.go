package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/conversations/c1/messages", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u1", req["user_id"])
		assert.Equal(t, "hello", req["content"])

		json.NewEncoder(w).Encode(map[string]any{
			"source":             "fallback",
			"remaining_messages": 19,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.SendMessage(context.Background(), "c1", "u1", "hello")
	require.NoError(t, err)

	assert.Equal(t, "fallback", result.Source)
	assert.Equal(t, 19, result.Remaining)
}

func TestQuotaDenialSurfacesAsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "daily message limit reached"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.SendMessage(context.Background(), "c1", "u1", "hello")
	require.Error(t, err)

	assert.True(t, IsQuotaDenied(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "daily message limit reached", apiErr.Message)
}

func TestErrorWithoutBodyUsesStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Limits(context.Background(), "u1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), apiErr.Message)
}

func TestDefaultBaseURL(t *testing.T) {
	c := New("")
	assert.Equal(t, DefaultBaseURL, c.baseURL)

	c = New("http://example.com/")
	assert.Equal(t, "http://example.com", c.baseURL)
}

func TestWeatherQueryEncoding(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]string{"location": "Yangon"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Weather(context.Background(), "u1", "Yangon")
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "user_id=u1")
	assert.Contains(t, gotQuery, "location=Yangon")
}
