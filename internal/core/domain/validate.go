package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateTrain checks the fields the fleet API requires for a train.
func ValidateTrain(t Train) error {
	fields := structErrors(t)
	if len(t.PassengerCarIDs) == 0 {
		fields = append(fields, "passengercarids must contain at least one passenger car")
	}
	for i, id := range t.PassengerCarIDs {
		if id == "" {
			fields = append(fields, fmt.Sprintf("passengercarids[%d] is empty", i))
		}
	}
	return asValidationError("train", fields)
}

// ValidateCarriage checks type-specific attributes.
func ValidateCarriage(c Carriage) error {
	return asValidationError("carriage", structErrors(c))
}

// ValidateMaintenance checks references and that the window is well-formed.
func ValidateMaintenance(m Maintenance) error {
	fields := structErrors(m)
	switch {
	case m.From.IsZero():
		fields = append(fields, "from_time is required")
	case m.To.IsZero():
		fields = append(fields, "to_time is required")
	case m.From.After(m.To.Time):
		fields = append(fields, "from_time must not be after to_time")
	}
	return asValidationError("maintenance", fields)
}

// ValidateEmployee checks the staff record. requirePassword is set on create.
func ValidateEmployee(e Employee, requirePassword bool) error {
	fields := structErrors(e)
	if requirePassword && e.Password == "" {
		fields = append(fields, "password is required")
	}
	return asValidationError("employee", fields)
}

func structErrors(v any) []string {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return msgs
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must have length %s", field, fe.Param())
	case "numeric":
		return field + " must be numeric"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

func asValidationError(entity string, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Entity: entity, Fields: fields}
}
