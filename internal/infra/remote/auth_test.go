package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"civil-quiz/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthClientSendsEncodedQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "Asha Rao", r.URL.Query().Get("name"))
		assert.Equal(t, "A&B=1", r.URL.Query().Get("code"))
		assert.Equal(t, "B.E. Civil", r.URL.Query().Get("qual"))
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	client := NewAuthClient(NewHTTPClient(time.Second), server.URL)
	require.NoError(t, client.Verify(context.Background(), "Asha Rao", "B.E. Civil", "A&B=1"))
	assert.Contains(t, gotQuery, "code=A%26B%3D1")
	assert.Contains(t, gotQuery, "name=Asha+Rao")
}

func TestAuthClientAcceptsEitherSuccessField(t *testing.T) {
	for _, body := range []string{`{"status":"success"}`, `{"result":"success"}`, `{"status":"fail","result":"success"}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		err := NewAuthClient(NewHTTPClient(time.Second), server.URL).Verify(context.Background(), "a", "", "c")
		server.Close()
		assert.NoError(t, err, body)
	}
}

func TestAuthClientRejections(t *testing.T) {
	cases := map[string]string{
		`{"status":"error","message":"Code already used"}`: "Code already used",
		`{"status":"Success"}`:                             DefaultAuthMessage,
		`{}`:                                               DefaultAuthMessage,
	}
	for body, want := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		err := NewAuthClient(NewHTTPClient(time.Second), server.URL).Verify(context.Background(), "a", "", "c")
		server.Close()

		var authErr *domain.AuthenticationError
		require.True(t, errors.As(err, &authErr), body)
		assert.Equal(t, want, authErr.Message)
	}
}

func TestAuthClientNetworkErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`<html>not json</html>`))
	}))
	err := NewAuthClient(NewHTTPClient(time.Second), server.URL).Verify(context.Background(), "a", "", "c")
	server.Close()

	var netErr *domain.NetworkError
	assert.True(t, errors.As(err, &netErr))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	err = NewAuthClient(NewHTTPClient(time.Second), server.URL).Verify(context.Background(), "a", "", "c")
	assert.True(t, errors.As(err, &netErr))
}
