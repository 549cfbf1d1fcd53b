package utils

import (
	"unicode/utf16"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password the identity provider accepts.
const MinPasswordLength = 6

// PasswordTooShort measures length in UTF-16 code units, the unit browser
// forms and the identity provider count in.
func PasswordTooShort(raw string) bool {
	return len(utf16.Encode([]rune(raw))) < MinPasswordLength
}

func HashPassword(raw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	return string(b), err
}
