package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DigestPrefix names the algorithm in every digest string
const DigestPrefix = "sha256:"

// Digest returns the content digest of data as "sha256:<hex>"
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return DigestPrefix + hex.EncodeToString(sum[:])
}

// ShortDigest trims a digest to 12 hex characters for display
func ShortDigest(digest string) string {
	hexPart := strings.TrimPrefix(digest, DigestPrefix)
	if len(hexPart) < 12 {
		return hexPart
	}
	return hexPart[:12]
}
