// Package errors provides the error taxonomy shared by the navigation service.
package errors

import (
	"errors"
	"fmt"
)

// Platform error codes.
const (
	CodeInternal     = "INTERNAL_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeValidation   = "VALIDATION_ERROR"
	CodeTimeout      = "TIMEOUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeRateLimited  = "RATE_LIMITED"
)

// Navigation error codes.
const (
	CodeAddressNotFound    = "ADDRESS_NOT_FOUND"
	CodeGeocoding          = "GEOCODING_ERROR"
	CodeNoRouteFound       = "NO_ROUTE_FOUND"
	CodeRoutingUnavailable = "ROUTING_UNAVAILABLE"
	CodeRouting            = "ROUTING_ERROR"
	CodeWeatherUnavailable = "WEATHER_UNAVAILABLE"
	CodeInvalidCredential  = "INVALID_CREDENTIAL"
	CodeNotGeocoded        = "NOT_GEOCODED"
	CodeInvalidPlusCode    = "INVALID_PLUS_CODE"
)

// AppError is an error with a stable code, a caller-facing message and
// optional field details.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails attaches details to the error.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail attaches a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string, 1)
	}
	e.Details[key] = value
	return e
}

// Wrap wraps err with a code and message.
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Internal creates an internal error.
func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

// InternalWrap wraps err as an internal error.
func InternalWrap(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message)
}

// NotFound creates a not found error for a resource.
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// NotFoundID creates a not found error naming the missing identifier.
func NotFoundID(resource, id string) *AppError {
	return NotFound(resource).WithDetail("id", id)
}

// BadRequest creates a bad request error.
func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// ValidationWithDetails creates a validation error with field details.
func ValidationWithDetails(message string, details map[string]string) *AppError {
	return New(CodeValidation, message).WithDetails(details)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return New(CodeUnauthorized, message)
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return New(CodeForbidden, message)
}

// Timeout creates a timeout error.
func Timeout(message string) *AppError {
	return New(CodeTimeout, message)
}

// Unavailable creates a service unavailable error.
func Unavailable(message string) *AppError {
	return New(CodeUnavailable, message)
}

// RateLimited creates a rate limited error advising the caller to retry.
func RateLimited(provider string) *AppError {
	return New(CodeRateLimited,
		fmt.Sprintf("%s rate limit reached, please retry shortly", provider))
}

// AddressNotFound reports that the geocoder returned no match for address.
func AddressNotFound(address string) *AppError {
	return New(CodeAddressNotFound,
		fmt.Sprintf("no location found for address %q", address)).
		WithDetail("address", address)
}

// Geocoding wraps a geocoding provider failure.
func Geocoding(err error) *AppError {
	return Wrap(err, CodeGeocoding, "geocoding request failed")
}

// NoRouteFound reports that the routing engine has no path between the points.
func NoRouteFound() *AppError {
	return New(CodeNoRouteFound, "no route found between origin and destination")
}

// RoutingUnavailable reports that the routing engine refused the connection.
func RoutingUnavailable(err error) *AppError {
	return Wrap(err, CodeRoutingUnavailable, "routing service is unavailable")
}

// Routing wraps any other routing failure.
func Routing(err error) *AppError {
	return Wrap(err, CodeRouting, "routing request failed")
}

// WeatherUnavailable reports that weather data cannot be served.
func WeatherUnavailable(message string) *AppError {
	if message == "" {
		message = "weather service is not configured"
	}
	return New(CodeWeatherUnavailable, message)
}

// InvalidCredential reports that a provider rejected the configured key.
func InvalidCredential(provider string) *AppError {
	return New(CodeInvalidCredential,
		fmt.Sprintf("%s rejected the configured API key", provider))
}

// NotGeocoded reports that a property has no trusted coordinates yet.
func NotGeocoded(propertyID string) *AppError {
	return New(CodeNotGeocoded, "property has not been geocoded yet").
		WithDetail("property_id", propertyID)
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsValidation reports whether err carries CodeValidation.
func IsValidation(err error) bool {
	return HasCode(err, CodeValidation)
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code returns the error code or empty string.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
