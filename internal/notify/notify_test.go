package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	t.Parallel()
	var received message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	t.Cleanup(srv.Close)

	n := New(srv.URL, zerolog.Nop())
	n.Sendf(context.Background(), "deployment %s complete", "abc123")

	assert.Equal(t, "deployment abc123 complete", received.Text)
}

func TestSend_EmptyURLIsNoop(t *testing.T) {
	t.Parallel()
	n := New("", zerolog.Nop())
	// must not panic or attempt any network call
	n.Send(context.Background(), "ignored")
}

func TestSend_ServerErrorDoesNotPropagate(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	n := New(srv.URL, zerolog.Nop())
	// best-effort: failure is swallowed
	n.Send(context.Background(), "still fine")
}
