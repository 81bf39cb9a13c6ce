package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/service"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/util"
)

func newCSRFTestServer() *echo.Echo {
	e := echo.New()
	e.Use(CSRF(defaultCSRFBypass, nil))
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.POST("/auth/login", ok)
	e.POST("/auth/verify-qr-code", ok)
	e.POST("/auth/qr-code-status", ok)
	e.PUT("/user/username", ok)
	e.DELETE("/user/session", ok)
	e.GET("/auth/me", ok)
	return e
}

func TestCSRFMatrix(t *testing.T) {
	e := newCSRFTestServer()

	cases := []struct {
		name       string
		method     string
		path       string
		cookie     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "get is never checked", method: http.MethodGet, path: "/auth/me", wantStatus: http.StatusOK},
		{name: "bypass path", method: http.MethodPost, path: "/auth/login", wantStatus: http.StatusOK},
		{name: "qr status is reachable anonymously", method: http.MethodPost, path: "/auth/qr-code-status", wantStatus: http.StatusOK},
		{name: "bypass matches the lowercased path", method: http.MethodPost, path: "/AUTH/LOGIN", wantStatus: http.StatusNotFound},
		{name: "missing cookie", method: http.MethodPost, path: "/auth/verify-qr-code", header: "abc", wantStatus: http.StatusForbidden, wantBody: "CSRF token is missing."},
		{name: "missing header", method: http.MethodPost, path: "/auth/verify-qr-code", cookie: "abc", wantStatus: http.StatusForbidden, wantBody: "CSRF token mismatch."},
		{name: "mismatch", method: http.MethodPut, path: "/user/username", cookie: "abc", header: "abd", wantStatus: http.StatusForbidden, wantBody: "CSRF token mismatch."},
		{name: "match put", method: http.MethodPut, path: "/user/username", cookie: "abc", header: "abc", wantStatus: http.StatusOK},
		{name: "match delete", method: http.MethodDelete, path: "/user/session", cookie: "abc", header: "abc", wantStatus: http.StatusOK},
		{name: "delete without tokens", method: http.MethodDelete, path: "/user/session", wantStatus: http.StatusForbidden, wantBody: "CSRF token is missing."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set(csrfHeaderName, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tc.wantBody)
			}
		})
	}
}

func newTestSessions() *service.SessionIssuer {
	return service.NewSessionIssuer(util.NewJWTManager("test-secret", "auth-test", "auth-test", time.Hour, 30*time.Second))
}

func TestAuthenticateAndRequireAuth(t *testing.T) {
	sessions := newTestSessions()
	e := echo.New()
	e.Use(Authenticate(sessions))
	e.GET("/private", func(c echo.Context) error {
		claims, _ := CurrentClaims(c)
		return c.String(http.StatusOK, claims.Username)
	}, RequireAuth())

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: "not-a-jwt"})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token from another issuer", func(t *testing.T) {
		other := util.NewJWTManager("other-secret", "auth-test", "auth-test", time.Hour, 0)
		token, _, err := other.Generate(uuid.New(), "mallory", nil)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: token})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid cookie", func(t *testing.T) {
		user := newUser("alice_01", "0912345678")
		session, err := sessions.Issue(user)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: session.Token})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice_01", rec.Body.String())
	})
}

func TestSessionCookieFlags(t *testing.T) {
	sessions := newTestSessions()
	session, err := sessions.Issue(newUser("alice_01", "0912345678"))
	require.NoError(t, err)

	for _, production := range []bool{true, false} {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		setSessionCookies(c, NewCookieConfig(production), session)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 2)
		byName := map[string]*http.Cookie{}
		for _, ck := range cookies {
			byName[ck.Name] = ck
		}
		auth, csrf := byName[authCookieName], byName[csrfCookieName]
		require.NotNil(t, auth)
		require.NotNil(t, csrf)

		assert.True(t, auth.HttpOnly)
		assert.False(t, csrf.HttpOnly)
		assert.Equal(t, "/", auth.Path)
		assert.Equal(t, session.Token, auth.Value)
		assert.Equal(t, session.CSRFToken, csrf.Value)
		assert.True(t, auth.Expires.Equal(csrf.Expires))
		if production {
			assert.True(t, auth.Secure)
			assert.Equal(t, http.SameSiteNoneMode, auth.SameSite)
		} else {
			assert.False(t, auth.Secure)
			assert.Equal(t, http.SameSiteLaxMode, auth.SameSite)
		}
	}
}
