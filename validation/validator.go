// Package validation provides input validation utilities.
package validation

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/logging"
)

// MaxBodyBytes caps request bodies decoded by DecodeAndValidate.
const MaxBodyBytes = 1 << 20

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		// Use JSON tag names for error messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		registerCustomValidations(validate)
	})

	return validate
}

func registerCustomValidations(v *validator.Validate) {
	_ = v.RegisterValidation("latitude", validateLatitude)
	_ = v.RegisterValidation("longitude", validateLongitude)
	_ = v.RegisterValidation("pluscode", validatePlusCode)
	_ = v.RegisterValidation("resource_id", validateResourceID)
}

// Latitude validates latitude values (-90 to 90).
func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

// Longitude validates longitude values (-180 to 180).
func validateLongitude(fl validator.FieldLevel) bool {
	lng := fl.Field().Float()
	return lng >= -180 && lng <= 180
}

func validatePlusCode(fl validator.FieldLevel) bool {
	return geo.IsValidPlusCode(fl.Field().String())
}

// Tenant, property and worker IDs.
var resourceIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

func validateResourceID(fl validator.FieldLevel) bool {
	return resourceIDRegex.MatchString(fl.Field().String())
}

// Validate validates a struct and returns validation errors.
func Validate(s interface{}) error {
	return GetValidator().Struct(s)
}

// ValidateVar validates a single variable.
func ValidateVar(field interface{}, tag string) error {
	return GetValidator().Var(field, tag)
}

// ValidateStruct validates s and returns the per-field errors alongside the
// raw error.
func ValidateStruct(s interface{}) (ValidationErrors, error) {
	err := Validate(s)
	if err != nil {
		return ParseValidationErrors(err), err
	}
	return nil, nil
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, e := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Field)
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// AppError converts the errors to a VALIDATION_ERROR with one detail per
// field.
func (ve ValidationErrors) AppError() *apperrors.AppError {
	details := make(map[string]string, len(ve))
	for _, e := range ve {
		details[e.Field] = e.Message
	}
	return apperrors.ValidationWithDetails("request validation failed", details)
}

// ParseValidationErrors converts validator.ValidationErrors to our format.
func ParseValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var validationErrors ValidationErrors

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, e := range ve {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return validationErrors
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "latitude":
		return "must be a valid latitude (-90 to 90)"
	case "longitude":
		return "must be a valid longitude (-180 to 180)"
	case "pluscode":
		return "must be a full plus code such as 9C3XGV2C+2X"
	case "resource_id":
		return "must be 1-64 letters, digits, '-' or '_'"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

// DecodeAndValidate decodes a JSON request body into dst and validates it.
// On failure it writes the error response and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	traceID := logging.TraceIDFromContext(r.Context())

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			apperrors.WriteErrorWithStatus(w, http.StatusUnsupportedMediaType, apperrors.CodeBadRequest, "content type must be application/json")
			return false
		}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		apperrors.WriteError(w, apperrors.BadRequest("invalid JSON body"), traceID)
		return false
	}

	if ve, err := ValidateStruct(dst); err != nil {
		apperrors.WriteError(w, ve.AppError(), traceID)
		return false
	}
	return true
}

// QueryPoint reads a coordinate from the lat and lon (or lng) query
// parameters. ok is false when both are absent. A half-specified, malformed
// or out-of-range coordinate is a validation error.
func QueryPoint(r *http.Request) (p geo.Point, ok bool, err error) {
	q := r.URL.Query()
	latStr := q.Get("lat")
	lngStr := q.Get("lon")
	if lngStr == "" {
		lngStr = q.Get("lng")
	}

	if latStr == "" && lngStr == "" {
		return geo.Point{}, false, nil
	}
	if latStr == "" || lngStr == "" {
		return geo.Point{}, false, apperrors.Validation("lat and lon must be given together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return geo.Point{}, false, apperrors.ValidationWithDetails("invalid coordinates", map[string]string{"lat": "must be a number"})
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return geo.Point{}, false, apperrors.ValidationWithDetails("invalid coordinates", map[string]string{"lon": "must be a number"})
	}

	p = geo.Point{Lat: lat, Lng: lng}
	if ve, err := ValidateStruct(p); err != nil {
		return geo.Point{}, false, ve.AppError()
	}
	return p, true, nil
}

// RequireQueryPoint is QueryPoint for endpoints where the coordinate is
// mandatory.
func RequireQueryPoint(r *http.Request) (geo.Point, error) {
	p, ok, err := QueryPoint(r)
	if err != nil {
		return geo.Point{}, err
	}
	if !ok {
		return geo.Point{}, apperrors.Validation("lat and lon are required")
	}
	return p, nil
}
