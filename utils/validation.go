// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var vehicleNumberRegex = regexp.MustCompile(`^[A-Z]{2}[0-9]{1,2}[A-Z]{0,3}[0-9]{3,4}$`)

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	// Clean the phone number
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")

	// Regular expression for international phone numbers
	// Allows + prefix followed by 7-15 digits
	regex := `^\+?[1-9]\d{1,14}$`
	match, _ := regexp.MatchString(regex, cleaned)
	return match
}

// ValidateVehicleNumber checks an Indian-style registration plate
// (e.g. GJ01AB1234). Spaces and hyphens are ignored.
func ValidateVehicleNumber(number string) bool {
	cleaned := strings.ToUpper(strings.ReplaceAll(number, " ", ""))
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	return vehicleNumberRegex.MatchString(cleaned)
}
