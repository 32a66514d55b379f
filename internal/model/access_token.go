// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// AccessTokenPrefixLength is the number of leading characters of a raw token
// kept in clear text for identification.
const AccessTokenPrefixLength = 8

// GenerateAccessToken generates a new random bearer token.
// Returns the raw token (shown to the client once) and its prefix.
func GenerateAccessToken() (rawToken string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", err
	}

	rawToken = base64.RawURLEncoding.EncodeToString(bytes)
	prefix = rawToken[:AccessTokenPrefixLength]

	return rawToken, prefix, nil
}

// HashAccessToken creates a SHA-256 hash of the token for storage.
func HashAccessToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
