package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

func HashCredential(plain string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("service.HashCredential: %w", err)
	}
	return string(hash), nil
}

func VerifyCredential(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
