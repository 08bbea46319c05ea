package utils

import (
	"errors"
	"strings"
)

var ErrInvalidPhoneNumber = errors.New("invalid phone number")

// NormalizePhone reduces a phone number to its canonical digit form:
// separators are stripped, and an 11-digit number starting with the
// country digit 1 loses that prefix so "+1 (555) 123-4567" and
// "5551234567" resolve to the same customer.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) < 9 || len(digits) > 15 {
		return "", ErrInvalidPhoneNumber
	}
	return digits, nil
}
