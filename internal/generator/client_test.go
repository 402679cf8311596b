package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haiku-api/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestGenerateSendsRequest(t *testing.T) {
	var got request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"haiku":"old pond\nfrog leaps in\nsplash","is_funny":true}`))
	})

	d, err := c.Generate(context.Background(), "a frog", 64, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "old pond\nfrog leaps in\nsplash", d.Text)
	assert.True(t, d.IsFunny)
	assert.Equal(t, request{Prompt: "a frog", MaxTokens: 64, Temperature: 0.7}, got)
}

func TestGenerateUpstreamStatus(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Generate(context.Background(), "a frog", 64, 0.7)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, http.StatusInternalServerError, de.Status)
	assert.Equal(t, 1, calls, "no retry")
}

func TestGenerateMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":         `<html>oops</html>`,
		"missing haiku":    `{"is_funny":false}`,
		"missing is_funny": `{"haiku":"x"}`,
		"empty":            ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := c.Generate(context.Background(), "a frog", 64, 0.7)
			var de *domain.Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, domain.KindUpstream, de.Kind)
			assert.Zero(t, de.Status)
			assert.Contains(t, de.Msg, "malformed")
		})
	}
}

func TestGenerateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c, err := New(Options{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "a frog", 64, 0.7)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestNewRequiresConfig(t *testing.T) {
	cases := []Options{
		{APIKey: "k"},
		{BaseURL: "http://example.com"},
		{BaseURL: "example.com/api", APIKey: "k"},
	}
	for _, o := range cases {
		_, err := New(o)
		assert.ErrorIs(t, err, domain.ErrConfiguration, "%+v", o)
	}
}
