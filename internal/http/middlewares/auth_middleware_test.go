package middlewares_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/hrhub/internal/auth"
	"github.com/geocoder89/hrhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error

	gotToken string
}

func (f *fakeVerifier) VerifyToken(token string) (*auth.Claims, error) {
	f.gotToken = token
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func protectedRouter(mw *middlewares.AuthMiddleware, roles ...string) *gin.Engine {
	r := gin.New()

	handlers := []gin.HandlerFunc{mw.RequireAuth()}
	if len(roles) > 0 {
		handlers = append(handlers, mw.RequireAnyRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		claims, ok := middlewares.ClaimsFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "claims missing"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": claims.Username})
	})

	r.GET("/protected", handlers...)
	return r
}

func get(t *testing.T, r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error body: %v body=%s", err, w.Body.String())
	}
	return resp.Error.Code
}

func TestRequireAuth(t *testing.T) {
	cases := []struct {
		name          string
		authorization string
		verifyErr     error
		wantStatus    int
		wantCode      string
	}{
		{
			name:       "no header",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "missing_token",
		},
		{
			name:          "wrong scheme",
			authorization: "Basic dXNlcjpwYXNz",
			wantStatus:    http.StatusUnauthorized,
			wantCode:      "missing_token",
		},
		{
			name:          "bearer with empty token",
			authorization: "Bearer ",
			wantStatus:    http.StatusUnauthorized,
			wantCode:      "missing_token",
		},
		{
			name:          "garbage token",
			authorization: "Bearer not-a-jwt",
			verifyErr:     auth.ErrInvalidToken,
			wantStatus:    http.StatusUnauthorized,
			wantCode:      "invalid_token",
		},
		{
			name:          "expired token",
			authorization: "Bearer expired.jwt.here",
			verifyErr:     auth.ErrExpiredToken,
			wantStatus:    http.StatusUnauthorized,
			wantCode:      "expired_token",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verifier := &fakeVerifier{err: tc.verifyErr}
			r := protectedRouter(middlewares.NewAuthMiddleware(verifier))

			w := get(t, r, tc.authorization)

			if w.Code != tc.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tc.wantStatus, w.Body.String())
			}
			if code := errorCode(t, w); code != tc.wantCode {
				t.Errorf("got code %q, want %q", code, tc.wantCode)
			}
		})
	}
}

func TestRequireAuth_Success(t *testing.T) {
	verifier := &fakeVerifier{
		claims: &auth.Claims{UserID: 7, Username: "hr.officer", Roles: []string{"HR Officer"}},
	}
	r := protectedRouter(middlewares.NewAuthMiddleware(verifier))

	w := get(t, r, "Bearer good.jwt.token")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if verifier.gotToken != "good.jwt.token" {
		t.Errorf("verifier saw token %q", verifier.gotToken)
	}

	var resp struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Username != "hr.officer" {
		t.Errorf("claims not stashed on context, got username %q", resp.Username)
	}
}

func TestRequireAnyRole(t *testing.T) {
	cases := []struct {
		name       string
		roles      []string
		required   []string
		wantStatus int
	}{
		{
			name:       "exact match",
			roles:      []string{"Admin"},
			required:   []string{"Admin"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "one of several",
			roles:      []string{"User", "HR Officer"},
			required:   []string{"Admin", "HR Officer"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "holder of none",
			roles:      []string{"User"},
			required:   []string{"Admin"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin does not imply hr officer",
			roles:      []string{"Admin"},
			required:   []string{"HR Officer"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no roles at all",
			roles:      nil,
			required:   []string{"Admin"},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verifier := &fakeVerifier{
				claims: &auth.Claims{UserID: 1, Username: "someone", Roles: tc.roles},
			}
			r := protectedRouter(middlewares.NewAuthMiddleware(verifier), tc.required...)

			w := get(t, r, "Bearer whatever")

			if w.Code != tc.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tc.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRequireAnyRole_WithoutIdentity(t *testing.T) {
	// Role check mounted without RequireAuth in front: nothing on the
	// context means 401, not 403.
	mw := middlewares.NewAuthMiddleware(&fakeVerifier{})
	r := gin.New()
	r.GET("/protected", mw.RequireAnyRole("Admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := get(t, r, "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401, body=%s", w.Code, w.Body.String())
	}
}
