package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"identity-service/internal/apperr"
	"identity-service/internal/models"
	"identity-service/internal/repository"
	"identity-service/internal/service"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupTestRouter(t *testing.T) (*mux.Router, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore(nil)
	svc := service.NewReconciliationService(store, zap.NewNop())

	r := mux.NewRouter()
	NewIdentifyHandler(svc, zap.NewNop()).RegisterRoutes(r)
	NewHealthHandler(store, zap.NewNop()).RegisterRoutes(r)
	return r, store
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHandleIdentify_NewContact(t *testing.T) {
	r, _ := setupTestRouter(t)

	rec := do(r, http.MethodPost, "/identify", `{"email":"doc@hillvalley.edu","phoneNumber":88}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"contact":{"primaryContatctId":1,"emails":["doc@hillvalley.edu"],"phoneNumbers":["88"],"secondaryContactIds":[]}}`, rec.Body.String())
}

func TestHandleIdentify_Scenario(t *testing.T) {
	r, store := setupTestRouter(t)
	store.Seed(models.Contact{ID: 11, Email: models.StringPtr("george@hillvalley.edu"), PhoneNumber: models.StringPtr("919191"),
		LinkPrecedence: models.PrecedencePrimary, CreatedAt: time.Date(2023, 4, 11, 0, 0, 0, 0, time.UTC)})
	store.Seed(models.Contact{ID: 27, Email: models.StringPtr("biffsucks@hillvalley.edu"), PhoneNumber: models.StringPtr("717171"),
		LinkPrecedence: models.PrecedencePrimary, CreatedAt: time.Date(2023, 4, 21, 0, 0, 0, 0, time.UTC)})

	rec := do(r, http.MethodPost, "/identify", `{"email":"george@hillvalley.edu","phoneNumber":"717171"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[models.IdentifyResponse](t, rec)
	assert.Equal(t, int64(11), body.Contact.PrimaryContactID)
	assert.Equal(t, []string{"george@hillvalley.edu", "biffsucks@hillvalley.edu"}, body.Contact.Emails)
	assert.Equal(t, []string{"919191", "717171"}, body.Contact.PhoneNumbers)
	assert.Equal(t, []int64{27}, body.Contact.SecondaryContactIDs)
}

func TestHandleIdentify_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"Both missing", `{}`, "Either email or phoneNumber must be provided"},
		{"Both null", `{"email":null,"phoneNumber":null}`, "Either email or phoneNumber must be provided"},
		{"Blank strings", `{"email":"  ","phoneNumber":""}`, "Either email or phoneNumber must be provided"},
		{"Malformed JSON", `{"email":`, "Invalid JSON body: email and phoneNumber must be strings or numbers"},
		{"Wrong type", `{"email":["a"]}`, "Invalid JSON body: email and phoneNumber must be strings or numbers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, store := setupTestRouter(t)

			rec := do(r, http.MethodPost, "/identify", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[models.ErrorResponse](t, rec)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestHandleIdentify_MethodNotAllowed(t *testing.T) {
	r, _ := setupTestRouter(t)

	rec := do(r, http.MethodGet, "/identify", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type stubIdentifier struct {
	err error
}

func (s stubIdentifier) Identify(context.Context, models.IdentifyRequest) (*models.IdentifyResponse, error) {
	return nil, s.err
}

func (s stubIdentifier) Lookup(context.Context, int64) (*models.IdentifyResponse, error) {
	return nil, s.err
}

func TestHandleIdentify_InternalErrorsAreOpaque(t *testing.T) {
	for _, err := range []error{
		apperr.Storage("failed to find matching contacts", errors.New("dial tcp: connection refused")),
		apperr.Integrity("cluster has 2 primary contacts"),
		errors.New("unexpected"),
	} {
		r := mux.NewRouter()
		NewIdentifyHandler(stubIdentifier{err: err}, zap.NewNop()).RegisterRoutes(r)

		rec := do(r, http.MethodPost, "/identify", `{"email":"a@b.c"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode[models.ErrorResponse](t, rec)
		assert.Equal(t, models.ErrorResponse{Status: "error", Message: "Internal server error"}, body)
	}
}

func TestHandleLookup(t *testing.T) {
	r, _ := setupTestRouter(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/identify", `{"email":"a@hillvalley.edu","phoneNumber":"1"}`).Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/identify", `{"email":"b@hillvalley.edu","phoneNumber":"1"}`).Code)

	rec := do(r, http.MethodGet, "/contacts/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[models.IdentifyResponse](t, rec)
	assert.Equal(t, int64(1), body.Contact.PrimaryContactID)
	assert.Equal(t, []int64{2}, body.Contact.SecondaryContactIDs)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/contacts/99", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/contacts/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/contacts/0", "").Code)
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHandleHealth(t *testing.T) {
	r, _ := setupTestRouter(t)

	rec := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := mux.NewRouter()
	NewHealthHandler(downStore{}, zap.NewNop()).RegisterRoutes(down)
	rec = do(down, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "error", decode[models.ErrorResponse](t, rec).Status)
}

func TestHandleIdentify_BodyTooLarge(t *testing.T) {
	r, store := setupTestRouter(t)

	body := `{"email":"` + strings.Repeat("a", maxBodyBytes) + `@hillvalley.edu"}`
	rec := do(r, http.MethodPost, "/identify", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	resp := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "Request body must not exceed 65536 bytes", resp.Message)
	assert.Equal(t, 0, store.Len())
}
