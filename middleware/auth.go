package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const Realm = "PDF Compressor"

// BasicAuth requires one of accounts (user -> password).
func BasicAuth(accounts map[string]string) gin.HandlerFunc {
	return gin.BasicAuthForRealm(gin.Accounts(accounts), Realm)
}

// Owner returns the authenticated user of the request, or "".
func Owner(c *gin.Context) string {
	return c.GetString(gin.AuthUserKey)
}

// Authenticated reports whether req already carries valid credentials.
func Authenticated(req *http.Request, accounts map[string]string) (string, bool) {
	user, password, ok := req.BasicAuth()
	if !ok {
		return "", false
	}
	want, found := accounts[user]
	if !found || subtle.ConstantTimeCompare([]byte(want), []byte(password)) != 1 {
		return "", false
	}
	return user, true
}
