package auth

import "strings"

const fakeHashPrefix = "$fake$"

// FakeInsecureHasher implements PasswordHasher with zero crypto overhead.
// Stores passwords as "$fake$<plaintext>". Test use only.
type FakeInsecureHasher struct{}

func (FakeInsecureHasher) HashPassword(password string) (string, error) {
	return fakeHashPrefix + password, nil
}

func (FakeInsecureHasher) VerifyPassword(password, encodedHash string) bool {
	stored, ok := strings.CutPrefix(encodedHash, fakeHashPrefix)
	return ok && stored == password
}
