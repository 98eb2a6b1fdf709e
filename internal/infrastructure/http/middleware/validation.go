package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/rezkam/tasks/internal/infrastructure/http/response"
)

// ValidationConfig holds configuration for the OpenAPI validation middleware.
type ValidationConfig struct {
	// BasePath is where the API is mounted, e.g. "/api".
	BasePath string
	// MultiError when true collects all validation errors instead of stopping at first.
	MultiError bool
}

// NewValidator creates OpenAPI request validation middleware.
// Requests that don't match the document are rejected with 400 before they
// reach a handler; request paths the document doesn't know get 404.
func NewValidator(spec *openapi3.T, config ValidationConfig) func(http.Handler) http.Handler {
	// Relative server URL, no host validation.
	spec.Servers = openapi3.Servers{
		{URL: config.BasePath},
	}

	opts := &nethttpmiddleware.Options{
		Options: openapi3filter.Options{
			MultiError: config.MultiError,
			AuthenticationFunc: func(_ context.Context, _ *openapi3filter.AuthenticationInput) error {
				return nil
			},
		},
		ErrorHandlerWithOpts:  validationErrorHandler,
		SilenceServersWarning: true,
	}

	return nethttpmiddleware.OapiRequestValidatorWithOptions(spec, opts)
}

func validationErrorHandler(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, opts nethttpmiddleware.ErrorHandlerOpts) {
	switch opts.StatusCode {
	case http.StatusNotFound:
		response.Error(w, "NOT_FOUND", "route not found", http.StatusNotFound)
		return
	case http.StatusMethodNotAllowed:
		response.Error(w, "METHOD_NOT_ALLOWED", "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	details := parseValidationError(err)

	slog.WarnContext(ctx, "request validation failed",
		"path", r.URL.Path,
		"method", r.Method,
		"invalid_field_count", len(details),
		"error", err.Error())

	if len(details) == 0 {
		response.Error(w, "VALIDATION_ERROR", "validation failed", http.StatusBadRequest)
		return
	}
	response.ValidationError(w, details[0].Field, details[0].Issue)
}

// parseValidationError extracts field details from kin-openapi error text, e.g.
//
//	request body has an error: doesn't match schema: Error at "/text": minimum string length is 1
//	parameter "owner_id" in query has an error: value is required but missing
func parseValidationError(err error) []response.ErrorField {
	if err == nil {
		return []response.ErrorField{}
	}
	msg := err.Error()

	if field, rest, ok := quotedAfter(msg, `Error at "/`); ok {
		issue := "validation failed"
		if i := strings.Index(rest, ":"); i >= 0 && strings.TrimSpace(rest[i+1:]) != "" {
			issue = strings.TrimSpace(rest[i+1:])
		}
		return []response.ErrorField{{Field: field, Issue: issue}}
	}

	if field, rest, ok := quotedAfter(msg, `parameter "`); ok {
		issue := "invalid parameter"
		const marker = "has an error:"
		if i := strings.Index(rest, marker); i >= 0 {
			issue = strings.TrimSpace(rest[i+len(marker):])
		}
		return []response.ErrorField{{Field: field, Issue: issue}}
	}

	if strings.Contains(msg, "request body") {
		issue := "invalid request body"
		switch {
		case strings.Contains(msg, "doesn't match schema"), strings.Contains(msg, "doesn't match the schema"):
			issue = "request body doesn't match schema"
		case strings.Contains(msg, "required"):
			issue = "required field missing"
		}
		return []response.ErrorField{{Field: "body", Issue: issue}}
	}

	return []response.ErrorField{}
}

// quotedAfter returns the quoted token following marker and the text after
// its closing quote.
func quotedAfter(msg, marker string) (string, string, bool) {
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return "", "", false
	}
	rest := msg[idx+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "", "", false
	}
	return rest[:end], rest[end+1:], true
}
