package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JovenGabriel/users-api/internal/domain"
	"github.com/JovenGabriel/users-api/internal/service"
)

const identityKey = "authIdentity"

// Auth establishes the request identity from a bearer token. Extraction and
// validation failures are silent; Authenticate never rejects a request.
// Routes that need an identity chain RequireAuth behind it.
type Auth struct {
	Users *service.UserService
}

// Authenticate reads the Authorization header, validates the token against
// the codec and the stored per-user token, and attaches the identity when
// every check passes. The request always proceeds.
func (m *Auth) Authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.Next()
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.Next()
		return
	}

	if identity, ok := m.Users.Authenticate(c.Request.Context(), parts[1]); ok {
		c.Set(identityKey, identity)
	}
	c.Next()
}

// RequireAuth is the authorization decision: it rejects requests that did
// not authenticate.
func (m *Auth) RequireAuth(c *gin.Context) {
	if _, ok := CurrentIdentity(c); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "A valid bearer token is required"})
		return
	}
	c.Next()
}

// CurrentIdentity exposes the authenticated identity to handlers.
func CurrentIdentity(c *gin.Context) (domain.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := value.(domain.Identity)
	return identity, ok
}
