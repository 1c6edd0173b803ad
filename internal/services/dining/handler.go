package dining

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"wheres-my-table/internal/logger"
	"wheres-my-table/internal/models"
)

// Handler exposes the service over HTTP.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates an HTTP handler for the service.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter().StrictSlash(true)
	r.Use(h.withLogging)

	r.HandleFunc("/meals", h.ListMeals).Methods(http.MethodGet)
	r.HandleFunc("/table/{table}/meal/{meal}", h.PlaceOrder).Methods(http.MethodPut)
	r.HandleFunc("/table/{table}/orders", h.ListOrders).Methods(http.MethodGet)
	r.HandleFunc("/table/{table}/state", h.AdvanceTable).Methods(http.MethodPost)
	r.HandleFunc("/table/{table}", h.GetTable).Methods(http.MethodGet)
	r.HandleFunc("/order/{order}", h.GetOrder).Methods(http.MethodGet)
	r.HandleFunc("/order/{order}", h.DeleteOrder).Methods(http.MethodDelete)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	return r
}

// ListMeals handles GET /meals.
func (h *Handler) ListMeals(w http.ResponseWriter, r *http.Request) {
	meals := h.service.ListMeals(r.Context())
	h.writeJSON(w, http.StatusOK, models.MealsResponse{Meals: meals})
}

// PlaceOrder handles PUT /table/{table}/meal/{meal}.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	tableID, ok := h.pathInt(w, r, "table", requestID)
	if !ok {
		return
	}
	mealID, ok := h.pathInt(w, r, "meal", requestID)
	if !ok {
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), tableID, mealID)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}

	h.logger.Debug("order_placed", "Order placed", requestID, map[string]any{
		"order_id": order.ID,
		"table_id": order.TableID,
		"meal_id":  order.MealID,
	})
	h.writeJSON(w, http.StatusOK, models.OrderResponse{Order: *order})
}

// ListOrders handles GET /table/{table}/orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	tableID, ok := h.pathInt(w, r, "table", requestID)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), tableID)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, models.OrdersResponse{Orders: orders})
}

// GetTable handles GET /table/{table}.
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	tableID, ok := h.pathInt(w, r, "table", requestID)
	if !ok {
		return
	}

	status, err := h.service.GetTable(r.Context(), tableID)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

// AdvanceTable handles POST /table/{table}/state.
func (h *Handler) AdvanceTable(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	tableID, ok := h.pathInt(w, r, "table", requestID)
	if !ok {
		return
	}

	var req models.AdvanceTableRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	next, ok := models.ParseTableState(req.State)
	if !ok {
		h.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("unknown state %q", req.State), requestID)
		return
	}

	status, err := h.service.AdvanceTable(r.Context(), tableID, next)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}

	h.logger.Debug("table_advanced", "Table state changed", requestID, map[string]any{
		"table_id": tableID,
		"state":    status.State,
	})
	h.writeJSON(w, http.StatusOK, status)
}

// GetOrder handles GET /order/{order}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	orderID := mux.Vars(r)["order"]
	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, models.OrderResponse{Order: *order})
}

// DeleteOrder handles DELETE /order/{order}.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	orderID := mux.Vars(r)["order"]
	if err := h.service.DeleteOrder(r.Context(), orderID); err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "table-service",
	})
}

// writeServiceError maps a service failure to a response code.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, requestID string) {
	var invalid *models.InvalidTransitionError
	switch {
	case errors.Is(err, models.ErrOrderNotFound), errors.Is(err, models.ErrMealNotFound):
		h.writeErrorResponse(w, http.StatusNotFound, err.Error(), requestID)
	case errors.Is(err, models.ErrTableNotAcceptingOrders), errors.Is(err, models.ErrDuplicateOrder):
		h.writeErrorResponse(w, http.StatusConflict, err.Error(), requestID)
	case errors.As(err, &invalid):
		h.writeErrorResponse(w, http.StatusConflict, err.Error(), requestID)
	default:
		h.logger.Error("request_failed", "Unexpected service error", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
	}
}

// pathInt parses a numeric path variable, writing a 400 on failure.
func (h *Handler) pathInt(w http.ResponseWriter, r *http.Request, name, requestID string) (int, bool) {
	raw := mux.Vars(r)[name]
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		h.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid %s id %q", name, raw), requestID)
		return 0, false
	}
	return v, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}

// writeErrorResponse writes an error response in JSON format.
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]any{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	}
	_ = json.NewEncoder(w).Encode(errorResponse)
}

type contextKey string

const requestIDKey contextKey = "request_id"

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// withLogging assigns a request id and logs request start and completion.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
