package validation

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/strategykit/ptb"
	"github.com/kbukum/strategykit/strategy"
)

var (
	validate *validator.Validate
	once     sync.Once

	slotIDPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
)

// getValidator returns the singleton validator instance with the strategy
// tags registered.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Use json tag names for field names in error messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return toSnakeCase(fld.Name)
			}
			return name
		})

		mustRegister("amount", func(fl validator.FieldLevel) bool { return isAmount(fl.Field().String()) })
		mustRegister("amount_or_all", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == strategy.RefAll || isAmount(s)
		})
		mustRegister("move_type", func(fl validator.FieldLevel) bool {
			_, err := strategy.ParseTypeTag(fl.Field().String())
			return err == nil
		})
		mustRegister("object_id", func(fl validator.FieldLevel) bool { return strategy.IsObjectID(fl.Field().String()) })
		mustRegister("move_target", func(fl validator.FieldLevel) bool {
			_, err := strategy.ParseMoveTarget(fl.Field().String())
			return err == nil
		})
		mustRegister("slot_id", func(fl validator.FieldLevel) bool { return slotIDPattern.MatchString(fl.Field().String()) })

		validate.RegisterStructValidation(callArgumentLevel, strategy.CallArgument{})
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// isAmount accepts a positive u64 written as plain digits.
func isAmount(s string) bool {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	return err == nil && n > 0
}

// callArgumentLevel checks the fields each argument kind needs.
func callArgumentLevel(sl validator.StructLevel) {
	arg := sl.Current().Interface().(strategy.CallArgument)
	switch arg.Kind {
	case strategy.ArgPure:
		if !ptb.IsPureType(arg.Type) {
			sl.ReportError(arg.Type, "type", "Type", "pure_type", "")
			return
		}
		if _, err := ptb.EncodePure(arg.Type, arg.Value); err != nil {
			sl.ReportError(arg.Value, "value", "Value", "pure_value", err.Error())
		}
	case strategy.ArgObject:
		if !strategy.IsObjectID(arg.ObjectID) {
			sl.ReportError(arg.ObjectID, "object_id", "ObjectID", "object_id", "")
		}
	case strategy.ArgRef, strategy.ArgVector:
		if arg.Ref == "" {
			sl.ReportError(arg.Ref, "ref", "Ref", "required", "")
		}
		if arg.Kind == strategy.ArgVector {
			if _, err := strategy.ParseTypeTag(arg.ElementType); err != nil {
				sl.ReportError(arg.ElementType, "element_type", "ElementType", "move_type", "")
			}
		}
	}
}

// FieldError is a struct validation failure on one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateStruct validates s using its struct tags. Field paths use json
// names and drop the root type, e.g. "nodes[0].outputs[1].id".
func ValidateStruct(s any) []FieldError {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		path := e.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		out = append(out, FieldError{Field: path, Message: formatValidationError(e)})
	}
	return out
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return "must have at least " + e.Param() + " element(s)"
		}
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "nefield":
		return "must differ from " + toSnakeCase(e.Param())
	case "amount":
		return "must be a positive integer amount written as digits"
	case "amount_or_all":
		return `must be a positive integer amount written as digits, or "ALL"`
	case "move_type":
		return "must be a Move type such as 0x2::sui::SUI"
	case "object_id":
		return "must be a 0x-prefixed object id"
	case "move_target":
		return "must have the form package::module::function"
	case "slot_id":
		return "must start with a letter or underscore and contain only letters, digits, '_' or '-'"
	case "pure_type":
		return "must be one of: " + strings.Join(ptb.PureTypes, " ")
	case "pure_value":
		return e.Param()
	default:
		return "is invalid"
	}
}

// toSnakeCase converts a field name to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		if r >= 'A' && r <= 'Z' {
			result.WriteRune(r + 32) // lowercase
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
