package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Fuel type validation
	validate.RegisterValidation("fuel_type", func(fl validator.FieldLevel) bool {
		fuelType := fl.Field().String()
		validTypes := []string{"petrol", "diesel", "cng"}
		for _, t := range validTypes {
			if fuelType == t {
				return true
			}
		}
		return false
	})

	// Payment method validation
	validate.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		method := fl.Field().String()
		validMethods := []string{"upi", "card", "netbanking", "wallet", "cash", ""}
		for _, m := range validMethods {
			if method == m {
				return true
			}
		}
		return false
	})

	// Redemption type validation
	validate.RegisterValidation("redemption_type", func(fl validator.FieldLevel) bool {
		redemptionType := fl.Field().String()
		validTypes := []string{"cashback", "discount", "fuel-credit", ""}
		for _, t := range validTypes {
			if redemptionType == t {
				return true
			}
		}
		return false
	})

	// Support ticket priority validation
	validate.RegisterValidation("ticket_priority", func(fl validator.FieldLevel) bool {
		priority := fl.Field().String()
		validPriorities := []string{"low", "medium", "high", ""}
		for _, p := range validPriorities {
			if priority == p {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "fuel_type":
			errors[field] = "Invalid fuel type. Must be: petrol, diesel, or cng"
		case "payment_method":
			errors[field] = "Invalid payment method. Must be: upi, card, netbanking, wallet, or cash"
		case "redemption_type":
			errors[field] = "Invalid redemption type. Must be: cashback, discount, or fuel-credit"
		case "ticket_priority":
			errors[field] = "Invalid priority. Must be: low, medium, or high"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
