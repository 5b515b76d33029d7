package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// CustomerIDKey is the context key for the authenticated customer
	CustomerIDKey = "customer_id"
)

// AuthConfig holds JWT verification settings. Token issuance lives in the
// auth collaborator; this core only extracts the customer identity.
type AuthConfig struct {
	Secret string
	Issuer string
}

// Claims are the JWT claims this service reads
type Claims struct {
	CustomerID string `json:"customer_id"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and puts the customer id on the context
func Auth(cfg *AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing bearer token"},
			})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		}, jwt.WithIssuer(cfg.Issuer))

		if err != nil || !token.Valid || claims.CustomerID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid token"},
			})
			return
		}

		c.Set(CustomerIDKey, claims.CustomerID)
		c.Next()
	}
}

// GetCustomerID returns the authenticated customer id from context
func GetCustomerID(c *gin.Context) string {
	return c.GetString(CustomerIDKey)
}
