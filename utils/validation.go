// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

// International phone number: optional + prefix followed by 7-15 digits
var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ValidatePhone checks if a phone number is in a valid international format.
// Used before attempting SMS payment reminders.
func ValidatePhone(phone string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	return phoneRegex.MatchString(cleaned)
}
