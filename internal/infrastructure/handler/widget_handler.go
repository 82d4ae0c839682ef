// Package handler exposes the widget over HTTP
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/damon-houk/currency-widget/internal/application/service"
	"github.com/damon-houk/currency-widget/internal/domain/apperrors"
	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
	"github.com/damon-houk/currency-widget/internal/infrastructure/middleware"
	"github.com/damon-houk/currency-widget/internal/infrastructure/view"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 16

// WidgetHandler serves the widget's JSON API
type WidgetHandler struct {
	view       *view.View
	catalog    *service.CurrencyService
	historical *service.HistoricalService
	prefs      *service.PreferenceService
	validate   *validator.Validate
	logger     logger.Logger
}

// NewWidgetHandler creates a new widget handler
func NewWidgetHandler(v *view.View, catalog *service.CurrencyService, historical *service.HistoricalService, prefs *service.PreferenceService, log logger.Logger) *WidgetHandler {
	return &WidgetHandler{
		view:       v,
		catalog:    catalog,
		historical: historical,
		prefs:      prefs,
		validate:   validator.New(),
		logger:     logger.OrDefault(log).WithField("component", "widget_handler"),
	}
}

// GetState returns the current view state
func (h *WidgetHandler) GetState(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, h.logger, http.StatusOK, h.view.State())
}

// DispatchAction runs a named view action
func (h *WidgetHandler) DispatchAction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	action := view.Action(mux.Vars(r)["action"])

	var req ActionRequest
	if !h.bind(w, r, &req, true) {
		return
	}

	h.logger.Debug("Dispatching action", map[string]interface{}{
		"request_id": requestID,
		"action":     string(action),
	})

	state, err := h.view.Dispatch(r.Context(), action, req.input())
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, state)
}

// ListCurrencies returns the selectable currency codes
func (h *WidgetHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	codes, err := h.catalog.ListCurrencies(r.Context())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	sendJSON(w, h.logger, http.StatusOK, CurrenciesResponse{Currencies: codes})
}

// GetRates returns the exchange-rate table for {base}
func (h *WidgetHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	base := mux.Vars(r)["base"]
	if !entity.IsCurrencyCode(base) {
		h.sendError(w, r, apperrors.NewValidationError("base", "must be a three-letter currency code"))
		return
	}

	rows, err := h.catalog.RatesTable(r.Context(), base)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	sendJSON(w, h.logger, http.StatusOK, RatesResponse{Base: base, Rates: rows})
}

// GetPopularPairs returns the popular pairs with their cross rates
func (h *WidgetHandler) GetPopularPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := h.catalog.PopularPairs(r.Context())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	sendJSON(w, h.logger, http.StatusOK, PopularPairsResponse{Pairs: pairs})
}

// GetHistorical returns the stored series for {base}/{target} verbatim
func (h *WidgetHandler) GetHistorical(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	series, err := h.historical.GetHistorical(r.Context(), vars["base"], vars["target"])
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(series); err != nil {
		h.logger.Warn("Failed to write historical series", map[string]interface{}{
			"request_id": middleware.GetRequestID(r.Context()),
			"error":      err.Error(),
		})
	}
}

// GetPreferences returns the stored preferences
func (h *WidgetHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, h.logger, http.StatusOK, h.prefs.Load(r.Context()))
}

// PutPreferences replaces the stored preferences
func (h *WidgetHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var req PreferencesRequest
	if !h.bind(w, r, &req, false) {
		return
	}

	state, err := h.view.SetPreferences(r.Context(), req.preferences())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	sendJSON(w, h.logger, http.StatusOK, state.Preferences)
}

// RegisterRoutes registers the widget API routes
func (h *WidgetHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", h.GetState).Methods(http.MethodGet)
	api.HandleFunc("/actions/{action}", h.DispatchAction).Methods(http.MethodPost)
	api.HandleFunc("/currencies", h.ListCurrencies).Methods(http.MethodGet)
	api.HandleFunc("/rates/{base}", h.GetRates).Methods(http.MethodGet)
	api.HandleFunc("/popular", h.GetPopularPairs).Methods(http.MethodGet)
	api.HandleFunc("/historical/{base}/{target}", h.GetHistorical).Methods(http.MethodGet)
	api.HandleFunc("/preferences", h.GetPreferences).Methods(http.MethodGet)
	api.HandleFunc("/preferences", h.PutPreferences).Methods(http.MethodPut)

	h.logger.Info("Widget routes registered", map[string]interface{}{
		"routes": []string{
			"GET /api/state",
			"POST /api/actions/{action}",
			"GET /api/currencies",
			"GET /api/rates/{base}",
			"GET /api/popular",
			"GET /api/historical/{base}/{target}",
			"GET /api/preferences",
			"PUT /api/preferences",
		},
	})
}

// bind decodes and validates the JSON body into dst. It writes the error
// response itself and reports whether the caller should continue.
func (h *WidgetHandler) bind(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) bool {
	requestID := middleware.GetRequestID(r.Context())

	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err != nil && !(allowEmpty && errors.Is(err, io.EOF)) {
		h.logger.Warn("Invalid request body", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON", http.StatusBadRequest, requestID)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		h.logger.Warn("Request validation failed", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Validation failed", err.Error(), http.StatusBadRequest, requestID)
		return false
	}

	return true
}

// sendError maps err onto the error envelope
func (h *WidgetHandler) sendError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var validationErr *apperrors.ValidationError
	var networkErr *apperrors.NetworkError

	switch {
	case errors.Is(err, apperrors.ErrUnknownAction):
		sendErrorResponse(w, h.logger, "Unknown action", err.Error(), http.StatusNotFound, requestID)
	case errors.As(err, &validationErr):
		sendErrorResponse(w, h.logger, "Invalid input", validationErr.Error(), http.StatusBadRequest, requestID)
	case errors.As(err, &networkErr):
		h.logger.Error("Rate API unavailable", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Exchange rate service unavailable",
			"Unable to retrieve exchange rate data. Please try again later.",
			http.StatusServiceUnavailable, requestID)
	default:
		h.logger.Error("Unexpected error in widget handler", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred. Please try again later.",
			http.StatusInternalServerError, requestID)
	}
}

func sendJSON(w http.ResponseWriter, log logger.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	sendJSON(w, log, statusCode, ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	})
}
