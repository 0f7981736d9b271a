package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator"
	"github.com/meghashyamc/catalog/logger"
)

const (
	tagValidCount = "valid_count"
	tagValidTerm  = "valid_term"
)

// Limits bound the values accepted by the custom tags.
type Limits struct {
	MaxGenerateCount  int
	MaxSearchTermSize int
}

type Validator struct {
	validator                *validator.Validate
	logger                   logger.Logger
	limits                   Limits
	tagValidationDetailsOnce sync.Once
	tagValidationDetailsMap  map[string]tagValidationDetails
}

type tagValidationDetails struct {
	validatorFunc validator.Func
	err           error
}

func New(logger logger.Logger, limits Limits) (*Validator, error) {
	validator := &Validator{validator: validator.New(), logger: logger, limits: limits}
	validator.validator.RegisterTagNameFunc(useFieldNames)
	if err := validator.registerCustomValidatorsForTags(); err != nil {
		return nil, err
	}

	return validator, nil
}

func (v *Validator) Validate(i any) error {

	if err := v.validator.Struct(i); err != nil {
		v.logger.Warn("validation failed", "err", err.Error())
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {

			tagValidationDetails, ok := v.getTagValidationDetails()[validationErrs[0].Tag()]
			if ok {
				return tagValidationDetails.err
			}

			switch validationErrs[0].Tag() {
			case "required":
				return fmt.Errorf("missing required field '%s'", validationErrs[0].Field())

			case "min", "max":
				return fmt.Errorf("value or length of field '%s' is not in the expected range", validationErrs[0].Field())

			}
		}
		return err
	}
	return nil
}

func (v *Validator) getTagValidationDetails() map[string]tagValidationDetails {
	v.tagValidationDetailsOnce.Do(func() {
		v.tagValidationDetailsMap = map[string]tagValidationDetails{
			tagValidCount: {
				validatorFunc: v.isValidCount,
				err:           fmt.Errorf("count must be a whole number between 0 and %d", v.limits.MaxGenerateCount),
			},
			tagValidTerm: {
				validatorFunc: v.isValidTerm,
				err:           fmt.Errorf("search term must be valid text of at most %d characters", v.limits.MaxSearchTermSize),
			},
		}
	})
	return v.tagValidationDetailsMap
}

func (v *Validator) registerCustomValidatorsForTags() error {

	tagValidationDetailsMap := v.getTagValidationDetails()

	for tag, tagValidationDetails := range tagValidationDetailsMap {
		if err := v.validator.RegisterValidation(tag, tagValidationDetails.validatorFunc); err != nil {
			v.logger.Error("failed to register custom validator function", "tag", tag, "err", err.Error())
			return err
		}
	}
	return nil
}

// useFieldNames reports fields by their json name, or their form name for
// query parameters.
func useFieldNames(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func (v *Validator) isValidCount(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return false
	}

	count := field.Int()
	if count < 0 || count > int64(v.limits.MaxGenerateCount) {
		v.logger.Warn("count out of range", "count", count, "max", v.limits.MaxGenerateCount)
		return false
	}

	return true
}

// isValidTerm accepts the empty term, which lists the whole catalog.
func (v *Validator) isValidTerm(fl validator.FieldLevel) bool {
	term := fl.Field().String()
	if !utf8.ValidString(term) {
		v.logger.Warn("search term is not valid utf-8")
		return false
	}

	if strings.Contains(term, "\x00") {
		v.logger.Warn("search term has null byte")
		return false
	}

	if utf8.RuneCountInString(term) > v.limits.MaxSearchTermSize {
		v.logger.Warn("search term too long", "length", utf8.RuneCountInString(term))
		return false
	}

	return true
}
