package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	apikeydomain "github.com/smallbiznis/procura/internal/apikey/domain"
)

// APIKeyRequired authenticates requests with a bearer API key. Keys are
// stored as argon2id hashes, so each active hash is checked until one
// verifies.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		key := parts[1]

		var hashes []string
		err := s.db.WithContext(c.Request.Context()).Raw(
			`SELECT key_hash FROM api_keys WHERE status = 'active'`,
		).Scan(&hashes).Error
		if err != nil {
			AbortWithError(c, err)
			return
		}

		for _, hash := range hashes {
			if apikeydomain.Verify(key, hash) {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrUnauthorized)
	}
}
