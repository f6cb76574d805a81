package common

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ReviewIDPrefix marks ids minted by the review queue.
const ReviewIDPrefix = "val_"

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns a combined error wrapping ErrInvalidInput
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// MaxLength returns a rule rejecting strings longer than max runes.
func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := value.(string)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

// ReviewID checks the "val_<uuid>" shape minted by the review queue.
func ReviewID(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if !strings.HasPrefix(str, ReviewIDPrefix) {
		return &ValidationError{Field: fieldName, Value: value, Message: "must start with " + ReviewIDPrefix}
	}
	if _, err := uuid.Parse(strings.TrimPrefix(str, ReviewIDPrefix)); err != nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a valid review id"}
	}
	return nil
}

// ValidateAndReturnError validates and returns InvalidArgumentError if validation fails
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return InvalidArgumentError(validator.ErrorMessage())
	}
	return nil
}

var errEmptyKey = errors.New("correction field name is empty")

// MedicationKeyPrefix starts every per-line correction key, "medications.<i>.<field>".
const MedicationKeyPrefix = "medications."

var reMedicationKey = regexp.MustCompile(`^medications\.(\d{1,4})\.(name|dosage|frequency)$`)

// MedicationKey splits a per-line correction key into its index and field.
func MedicationKey(key string) (index int, field string, ok bool) {
	m := reMedicationKey.FindStringSubmatch(key)
	if m == nil {
		return 0, "", false
	}
	i, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return i, m[2], true
}

// ValidateCorrections checks reviewer-supplied corrections before they are persisted.
// Keys under "medications." must name a line index and one of name, dosage or frequency.
func ValidateCorrections(corrections map[string]string) error {
	v := NewValidator()
	for k, val := range corrections {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: %v", ErrInvalidInput, errEmptyKey)
		}
		if strings.HasPrefix(k, MedicationKeyPrefix) {
			if _, _, ok := MedicationKey(k); !ok {
				v.errors = append(v.errors, ValidationError{
					Field:   "corrections." + k,
					Value:   val,
					Message: "must be medications.<index>.name, .dosage or .frequency",
				})
				continue
			}
		}
		v.Field("corrections."+k, val, MaxLength(1024))
	}
	return v.Error()
}

// ValidateMedicationIndices checks medication corrections against a draft with
// count lines. Indices at or past count add new lines and must follow on
// without gaps.
func ValidateMedicationIndices(count int, corrections map[string]string) error {
	added := map[int]struct{}{}
	for k := range corrections {
		i, _, ok := MedicationKey(k)
		if ok && i >= count {
			added[i] = struct{}{}
		}
	}
	if len(added) == 0 {
		return nil
	}
	indices := make([]int, 0, len(added))
	for i := range added {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	for n, i := range indices {
		if i != count+n {
			return fmt.Errorf("%w: medication index %d leaves a gap after %d existing line(s)", ErrInvalidInput, i, count+n)
		}
	}
	return nil
}
