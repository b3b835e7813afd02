package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rekindle/rekindle/internal/logger"
)

type recordingUsers struct {
	seen []int64
	err  error
}

func (u *recordingUsers) EnsureUser(_ context.Context, id int64) error {
	u.seen = append(u.seen, id)
	return u.err
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message": "internal server error"}`, rec.Body.String())
}

func TestUserExtractor(t *testing.T) {
	users := &recordingUsers{}
	var got int64
	h := UserExtractor(users, 7)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUserID(r)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, int64(7), got)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "42")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, int64(42), got)
	assert.Equal(t, []int64{7, 42}, users.seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserExtractor_StoreFailure(t *testing.T) {
	h := UserExtractor(&recordingUsers{err: errors.New("db locked")}, 1)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler must not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestID(t *testing.T) {
	var id string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = GetRequestID(r)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, id, 8)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))
}
