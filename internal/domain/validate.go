package domain

import "net/mail"

// IsValidEmail reports whether s is a bare address such as "a@b.com".
// Display-name forms like "Alice <a@b.com>" are rejected.
func IsValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && addr.Name == ""
}
