package apperr

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Validation", Validation("bad"), http.StatusBadRequest},
		{"NotFound", NotFound("missing"), http.StatusNotFound},
		{"TooLarge", TooLarge("body too large"), http.StatusRequestEntityTooLarge},
		{"Integrity", Integrity("two primaries"), http.StatusInternalServerError},
		{"Storage", Storage("query", sql.ErrConnDone), http.StatusInternalServerError},
		{"Plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestStorage_KeepsCause(t *testing.T) {
	err := Storage("failed to query contacts", sql.ErrConnDone)

	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), "failed to query contacts")
	assert.Nil(t, Storage("noop", nil))
}

func TestStorage_DoesNotRecodeAppErrors(t *testing.T) {
	err := Storage("tx", Integrity("orphan"))
	assert.True(t, IsIntegrity(err))
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(Validation("email missing"), "identify")
	assert.True(t, IsValidation(wrapped))

	plain := Wrap(errors.New("boom"), "identify")
	assert.Equal(t, CodeInternal, CodeOf(plain))

	assert.Nil(t, Wrap(nil, "identify"))
}

func TestLog(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	l := zap.New(core)

	Log(l, NotFound("contact 7"), "lookup failed", zap.Int64("id", 7))
	Log(l, nil, "ignored")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, CodeNotFound, ctx["error_code"])
		assert.Equal(t, int64(7), ctx["id"])
	}
}
