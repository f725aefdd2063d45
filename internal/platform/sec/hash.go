// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain-text password using the bcrypt algorithm.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// DummyPasswordHash returns a bcrypt hash at [bcrypt.DefaultCost] that no
// account uses. Comparing against it costs the same as checking a real password.
func DummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		hashedBytes, _ := bcrypt.GenerateFromPassword([]byte("ashaassist-unknown-account"), bcrypt.DefaultCost)
		dummyHash = string(hashedBytes)
	})
	return dummyHash
}
