package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/viuworks/taller/internal/pipeline"
)

const sessionCookieName = "taller_session"

type session struct {
	Role       pipeline.Role
	CustomerID string
}

type sessionService struct {
	secret []byte
}

func newSessionService(secret string) *sessionService {
	return &sessionService{secret: []byte(secret)}
}

func (s *sessionService) createSessionValue(sess session) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(string(sess.Role) + "|" + sess.CustomerID))
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return payload + "." + signature
}

func (s *sessionService) verifySessionValue(value string) (session, bool) {
	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return session{}, false
	}

	payload := parts[0]
	signature := parts[1]

	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return session{}, false
	}
	if !hmac.Equal(provided, expected) {
		return session{}, false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return session{}, false
	}

	role, customerID, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return session{}, false
	}

	sess := session{Role: pipeline.Role(role), CustomerID: customerID}
	if !sess.Role.Valid() {
		return session{}, false
	}
	if sess.Role == pipeline.RoleClient && sess.CustomerID == "" {
		return session{}, false
	}

	return sess, true
}

func (s *sessionService) setSessionCookie(w http.ResponseWriter, sess session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.createSessionValue(sess),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *sessionService) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *sessionService) fromRequest(r *http.Request) (session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return session{}, false
	}
	return s.verifySessionValue(cookie.Value)
}
