package auth

import "strings"

// MaskEmployeeID keeps the first and the last character, e.g. "E12345" -> "E****5".
// Identifiers of two characters or fewer are masked completely.
func MaskEmployeeID(id string) string {
	r := []rune(id)
	if len(r) <= 2 {
		return strings.Repeat("*", len(r))
	}
	return string(r[0]) + strings.Repeat("*", len(r)-2) + string(r[len(r)-1])
}

// MaskEmail masks the local part of an address, e.g.
// "john.doe@corp.example" -> "j******e@corp.example".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return MaskEmployeeID(email)
	}
	return MaskEmployeeID(local) + "@" + domain
}
