// utils/responses.go
package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gin-gonic/gin"
)

// RespondWithError sends a JSON error response and aborts the request
func RespondWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// GenerateRandomString returns a random hex string of the given length,
// used for bill number suffixes
func GenerateRandomString(length int) string {
	bytes := make([]byte, (length+1)/2)
	if _, err := rand.Read(bytes); err != nil {
		panic("failed to generate random string")
	}
	return hex.EncodeToString(bytes)[:length]
}
