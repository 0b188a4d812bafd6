package middleware

import (
	"crypto/subtle"
	"strconv"

	"github.com/gin-gonic/gin"
)

// APIKeyRequired accepts the partner key in x-api-key or as a Bearer token.
// With no key configured every request is refused. The matched key is set as "api_client".
func APIKeyRequired(keys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("x-api-key")
		if key == "" {
			key, _ = bearer(c.GetHeader("Authorization"))
		}
		if key == "" {
			unauthorized(c, "Clé API requise")
			return
		}
		for i, k := range keys {
			if k != "" && subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
				// the key's position identifies the partner system without exposing it
				c.Set("api_client", "key-"+strconv.Itoa(i))
				c.Next()
				return
			}
		}
		unauthorized(c, "Clé API invalide")
	}
}
