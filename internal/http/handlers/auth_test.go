package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/hrhub/internal/auth"
	"github.com/geocoder89/hrhub/internal/domain/user"
	"github.com/geocoder89/hrhub/internal/http/handlers"
	"github.com/geocoder89/hrhub/internal/security"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUserReader struct {
	getFn func(ctx context.Context, username string) (user.User, error)
}

func (f *fakeUserReader) GetByUsername(ctx context.Context, username string) (user.User, error) {
	if f.getFn != nil {
		return f.getFn(ctx, username)
	}

	return user.User{}, user.ErrNotFound
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestLogin(t *testing.T) {
	hash, err := security.HashPassword("correct-horse")

	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	known := user.User{
		ID:           1,
		Username:     "jdoe",
		PasswordHash: hash,
		Roles:        []string{"Admin"},
	}

	reader := &fakeUserReader{
		getFn: func(_ context.Context, username string) (user.User, error) {
			if username == "jdoe" {
				return known, nil
			}
			return user.User{}, user.ErrNotFound
		},
	}

	jwtManager := auth.NewManager("test-secret", time.Hour)
	h := handlers.NewAuthHandler(reader, jwtManager)
	r := setupRouter(http.MethodPost, "/auth/login", h.Login)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "missing password", body: `{"username":"jdoe"}`, wantStatus: http.StatusBadRequest},
		{name: "missing username", body: `{"password":"x"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown user", body: `{"username":"ghost","password":"whatever"}`, wantStatus: http.StatusNotFound},
		{name: "wrong password", body: `{"username":"jdoe","password":"wrong"}`, wantStatus: http.StatusUnauthorized},
		{name: "success", body: `{"username":"jdoe","password":"correct-horse"}`, wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/auth/login", tc.body)

			if w.Code != tc.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tc.wantStatus, w.Body.String())
			}
		})
	}
}

func TestLogin_SuccessPayload(t *testing.T) {
	hash, _ := security.HashPassword("pw-123456")

	reader := &fakeUserReader{
		getFn: func(_ context.Context, _ string) (user.User, error) {
			return user.User{
				ID:           9,
				Username:     "hr.officer",
				PasswordHash: hash,
				Roles:        []string{"HR Officer", "User"},
			}, nil
		},
	}

	jwtManager := auth.NewManager("test-secret", time.Hour)
	h := handlers.NewAuthHandler(reader, jwtManager)
	r := setupRouter(http.MethodPost, "/auth/login", h.Login)

	w := doJSON(t, r, http.MethodPost, "/auth/login", `{"username":"hr.officer","password":"pw-123456"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Message string `json:"message"`
		Token   string `json:"token"`
		User    struct {
			ID       int64    `json:"id"`
			Username string   `json:"username"`
			Roles    []string `json:"roles"`
		} `json:"user"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}

	if resp.Token == "" {
		t.Error("expected a token")
	}

	if resp.User.ID != 9 || resp.User.Username != "hr.officer" {
		t.Errorf("unexpected user payload: %+v", resp.User)
	}

	if len(resp.User.Roles) != 2 {
		t.Errorf("unexpected roles: %v", resp.User.Roles)
	}

	// the issued token round-trips through verification
	claims, err := jwtManager.VerifyToken(resp.Token)

	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}

	if claims.UserID != 9 || !claims.HasRole("HR Officer") {
		t.Errorf("unexpected claims: %+v", claims)
	}

	// the password hash never leaks
	if bytes.Contains(w.Body.Bytes(), []byte("$2a$")) || bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Error("response leaks credential material")
	}
}
