package auth

import (
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// HashBirthYear hashes the knowledge factor for storage.
func HashBirthYear(year int) ([]byte, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(strconv.Itoa(year)), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash birth year: %w", err)
	}
	return h, nil
}

// CheckBirthYear reports whether year matches the stored hash.
func CheckBirthYear(hash []byte, year int) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(strconv.Itoa(year))) == nil
}
