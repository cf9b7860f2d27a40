package analytics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPHandlerRoundtrip(t *testing.T) {
	var got *http.Request
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Add("X-Multi", "one")
		w.Header().Add("X-Multi", "two")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	h := NewHTTPHandler(time.Second)
	resp := h.Handle(HttpRequest{
		Method:  "POST",
		URL:     srv.URL + "/v1/batch",
		Headers: map[string]string{"Authorization": "Basic abc", "Content-Type": "application/json"},
		Body:    []byte(`{"batch":[]}`),
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	require.NotNil(t, got)
	assert.Equal(t, "Basic abc", got.Header.Get("Authorization"))
	assert.Equal(t, `{"batch":[]}`, string(gotBody))

	// 같은 key의 복수 값은 comma-join으로 합쳐진다
	assert.Equal(t, "one, two", resp.Headers["X-Multi"])
}

func TestHTTPHandlerTransportFault(t *testing.T) {
	h := NewHTTPHandler(100 * time.Millisecond)

	// 닫힌 포트 — 요청이 서버에 도달하지 못하면 Code 0
	resp := h.Handle(HttpRequest{
		Method: "POST",
		URL:    "http://127.0.0.1:1/v1/batch",
		Body:   []byte(`{}`),
	})

	assert.Equal(t, 0, resp.Code)
	assert.NotEmpty(t, resp.Message)
}

func TestDiscardHandler(t *testing.T) {
	resp := DiscardHandler{}.Handle(HttpRequest{Method: "POST"})
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "unimplemented", resp.Message)
}
