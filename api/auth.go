package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net"
	"net/http"
)

// AuthCookieName is the name for the authentication cookie
const AuthCookieName = "Quill_Auth_Cookie"

// AuthenticationMiddleware guards every gateway request. A request must
// come from a whitelisted IP when a whitelist is configured, and must
// carry the authentication cookie or valid basic auth credentials when
// those are configured. Passwords are compared as sha256 hex digests so
// the config file never holds the cleartext.
func (g *Gateway) AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.remoteAllowed(r) || !g.cookieValid(r) || !g.basicAuthValid(r) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) remoteAllowed(r *http.Request) bool {
	if len(g.config.AllowedIPs) == 0 {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return g.config.AllowedIPs[host]
}

func (g *Gateway) cookieValid(r *http.Request) bool {
	if g.config.Cookie == "" {
		return true
	}
	cookie, err := r.Cookie(AuthCookieName)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(g.config.Cookie)) == 1
}

func (g *Gateway) basicAuthValid(r *http.Request) bool {
	if g.config.Username == "" || g.config.Password == "" {
		return true
	}
	username, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	h := sha256.Sum256([]byte(password))
	digest := hex.EncodeToString(h[:])
	return username == g.config.Username &&
		subtle.ConstantTimeCompare([]byte(digest), []byte(g.config.Password)) == 1
}

// CORSAllowAllOriginsMiddleware opens the gateway to browser frontends
// on any origin. It is only installed when the noCors option is unset.
func (g *Gateway) CORSAllowAllOriginsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
