package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ErrorHandler renders errors as JSON responses and logs them
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler. In debug mode messages of
// untyped errors and stack traces are exposed to the client.
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes the response for err
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	appErr := GetAppError(err)
	if appErr == nil {
		h.logger.Error("Unhandled error", h.requestFields(r, http.StatusInternalServerError, zap.Error(err))...)

		appErr = &AppError{
			Type:       ErrorTypeInternal,
			Message:    "An internal error occurred",
			HTTPStatus: http.StatusInternalServerError,
		}
		if h.debug {
			appErr.Message = err.Error()
		}
	} else {
		h.log(r, appErr)
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	h.writeJSON(w, status, h.response(r, appErr))
}

func (h *ErrorHandler) response(r *http.Request, err *AppError) ErrorResponse {
	resp := ErrorResponse{
		Error:     true,
		Type:      string(err.Type),
		Message:   err.Message,
		Code:      err.Code,
		Details:   err.Details,
		RequestID: requestIDFrom(r),
	}
	if h.debug && err.StackTrace != "" {
		details := make(map[string]interface{}, len(err.Details)+1)
		for k, v := range err.Details {
			details[k] = v
		}
		details["stack_trace"] = err.StackTrace
		resp.Details = details
	}
	return resp
}

// log writes server faults at error level and caller faults at warn level
func (h *ErrorHandler) log(r *http.Request, err *AppError) {
	extra := []zap.Field{zap.String("error_type", string(err.Type))}
	if err.Code != "" {
		extra = append(extra, zap.String("error_code", err.Code))
	}
	if err.Cause != nil {
		extra = append(extra, zap.Error(err.Cause))
	}
	if len(err.Details) > 0 {
		extra = append(extra, zap.Any("details", err.Details))
	}
	fields := h.requestFields(r, err.HTTPStatus, extra...)

	if err.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error(err.Message, fields...)
		return
	}
	h.logger.Warn(err.Message, fields...)
}

func (h *ErrorHandler) requestFields(r *http.Request, status int, extra ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", requestIDFrom(r)),
	}, extra...)
}

func (h *ErrorHandler) writeJSON(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

// Middleware turns panics in downstream handlers into 500 responses
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func requestIDFrom(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
