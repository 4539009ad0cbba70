package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"identity-service/internal/apperr"
	"identity-service/internal/logger"
	"identity-service/internal/models"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

// Identifier is the reconciliation engine as seen by the HTTP layer.
type Identifier interface {
	Identify(ctx context.Context, req models.IdentifyRequest) (*models.IdentifyResponse, error)
	Lookup(ctx context.Context, id int64) (*models.IdentifyResponse, error)
}

// IdentifyHandler handles the /identify and /contacts endpoints
type IdentifyHandler struct {
	service Identifier
	logger  *zap.Logger
}

// NewIdentifyHandler creates a new identify handler
func NewIdentifyHandler(service Identifier, logger *zap.Logger) *IdentifyHandler {
	return &IdentifyHandler{service: service, logger: logger}
}

// RegisterRoutes registers the contact routes.
func (h *IdentifyHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/identify", h.Handle).Methods(http.MethodPost)
	r.HandleFunc("/contacts/{id}", h.HandleLookup).Methods(http.MethodGet)
}

// Handle processes the identify request
func (h *IdentifyHandler) Handle(w http.ResponseWriter, r *http.Request) {
	l := logger.WithRequestID(h.logger, r)

	var req models.IdentifyRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		l.Debug("Error decoding request", zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, l, apperr.TooLarge(fmt.Sprintf("Request body must not exceed %d bytes", tooLarge.Limit)))
			return
		}
		writeError(w, l, apperr.Validation("Invalid JSON body: email and phoneNumber must be strings or numbers"))
		return
	}

	// Validate request - at least one of email or phoneNumber must be provided
	if email, phone := req.Normalized(); email == nil && phone == nil {
		writeError(w, l, apperr.Validation("Either email or phoneNumber must be provided"))
		return
	}

	response, err := h.service.Identify(r.Context(), req)
	if err != nil {
		writeError(w, l, err)
		return
	}

	writeJSON(w, l, http.StatusOK, response)
}

// HandleLookup returns the consolidated cluster for a contact id
func (h *IdentifyHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	l := logger.WithRequestID(h.logger, r)

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, l, apperr.Validation("Contact id must be a positive integer"))
		return
	}

	response, err := h.service.Lookup(r.Context(), id)
	if err != nil {
		writeError(w, l, err)
		return
	}

	writeJSON(w, l, http.StatusOK, response)
}

// writeError maps err to a status code and the error envelope. Internal
// details are logged, never returned.
func writeError(w http.ResponseWriter, l *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	message := "Internal server error"

	if status < http.StatusInternalServerError {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			message = appErr.Message()
		}
		l.Debug("Request rejected", zap.Error(err), zap.Int("status", status))
	} else {
		apperr.Log(l, err, "Error processing request")
	}

	writeJSON(w, l, status, models.ErrorResponse{Status: "error", Message: message})
}

func writeJSON(w http.ResponseWriter, l *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		l.Warn("Error encoding response", zap.Error(err))
	}
}
