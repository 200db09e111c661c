package whatsapp

import (
	"errors"
	"strings"
)

var ErrInvalidPhoneNumber = errors.New("invalid phone number")

// NormalizePhoneNumber turns "+62 812-3456-7890" into the bare digit string
// WhatsApp uses as a JID user. Numbers must carry their country code.
func NormalizePhoneNumber(phone string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", ErrInvalidPhoneNumber
		}
	}

	digits := b.String()
	if len(digits) < 10 || len(digits) > 15 || digits[0] == '0' {
		return "", ErrInvalidPhoneNumber
	}

	return digits, nil
}

// MaskPhoneNumber keeps the last four digits for logs.
func MaskPhoneNumber(phone string) string {
	digits, err := NormalizePhoneNumber(phone)
	if err != nil {
		return "[invalid]"
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
