package validators

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"carpool/internal/booking"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// ids coming from either backend: Mongo hex, numeric, uuid or slug-like
var resourceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func init() {
	validate = validator.New()

	validate.RegisterValidation("resource_id", validateResourceID)
	validate.RegisterValidation("trip_date", validateTripDate)
}

var (
	ErrInvalidResourceID = errors.New("invalid resource ID format")
	ErrInvalidDate       = errors.New("invalid date")
)

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// ToMap flattens the errors for the response envelope's details.
func (v ValidationErrors) ToMap() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		out[err.Field] = err.Message
	}
	return out
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "request", Tag: "invalid", Message: err.Error()}}
	}

	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: getErrorMessage(fe),
		})
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
	case "resource_id":
		return "Invalid ID format"
	case "trip_date":
		return "Date must be YYYY-MM-DD or DD/MM/YYYY"
	default:
		return fmt.Sprintf("%s is invalid", err.Field())
	}
}

func validateResourceID(fl validator.FieldLevel) bool {
	return IsValidResourceID(fl.Field().String())
}

func validateTripDate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := booking.ParseDate(value)
	return err == nil
}

func IsValidResourceID(id string) bool {
	return resourceIDPattern.MatchString(id)
}

func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
