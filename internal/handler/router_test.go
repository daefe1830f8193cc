package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"LinkHub_Backend/internal/auth"
	"LinkHub_Backend/internal/middleware"
	"LinkHub_Backend/internal/service"
	"LinkHub_Backend/internal/storage"
)

type RouterTestSuite struct {
	suite.Suite
	router http.Handler
	users  *storage.SQLiteUserStore
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	dir := s.T().TempDir()

	db, err := storage.OpenDB(ctx, filepath.Join(dir, "linkhub.db"))
	s.Require().NoError(err)
	s.T().Cleanup(func() { db.Close() })

	avatars, err := storage.NewLocalAvatarStore(filepath.Join(dir, "avatars"), "/uploads/avatars")
	s.Require().NoError(err)

	s.users = storage.NewSQLiteUserStore(db)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	accounts := service.NewAccountService(s.users, auth.NewHasher(bcrypt.MinCost), tokens)
	profiles := service.NewProfileService(s.users, avatars, service.AvatarOptions{MaxBytes: 1 << 20, Size: 32})

	s.router = NewRouter(RouterConfig{
		AllowedOrigins: []string{"http://localhost:5173"},
		MaxUploadBytes: 1 << 20,
		AvatarDir:      avatars.Dir(),
		AvatarPrefix:   avatars.PublicPrefix(),
		Auth:           NewAuthHandler(accounts),
		Users:          NewUserHandler(profiles),
		Gate:           middleware.AuthMiddleware(tokens, s.users),
		Health:         db,
	})
}

func (s *RouterTestSuite) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) doJSON(method, path, token string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		r = bytes.NewReader(raw)
	}
	return s.do(method, path, token, r, "application/json")
}

func (s *RouterTestSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	out := map[string]any{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *RouterTestSuite) register(username string) string {
	w := s.doJSON(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return s.decode(w)["token"].(string)
}

func (s *RouterTestSuite) TestHealthAndRoot() {
	w := s.do(http.MethodGet, "/healthz", "", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok"}`, w.Body.String())

	w = s.do(http.MethodGet, "/", "", nil, "")
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterTestSuite) TestRegisterAndLogin() {
	w := s.doJSON(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "password123",
	})
	s.Require().Equal(http.StatusCreated, w.Code)
	body := s.decode(w)
	s.NotEmpty(body["token"])
	user := body["user"].(map[string]any)
	s.Equal("alice", user["username"])
	s.Equal("alice@example.com", user["email"])
	s.NotContains(user, "password")
	s.NotContains(user, "passwordHash")

	w = s.doJSON(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "email": "other@example.com", "password": "password123",
	})
	s.Equal(http.StatusConflict, w.Code)

	w = s.doJSON(http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "password123"})
	s.Equal(http.StatusOK, w.Code)

	w = s.doJSON(http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "nope-nope"})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid credentials", s.decode(w)["error"])

	w = s.do(http.MethodPost, "/api/auth/login", "", bytes.NewBufferString("{"), "application/json")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestPublicProfileHidesPrivateFields() {
	s.register("alice")

	w := s.do(http.MethodGet, "/api/users/alice", "", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal("alice", body["username"])
	s.Equal("default", body["theme"])
	s.Equal([]any{}, body["links"])
	s.NotContains(body, "email")
	s.NotContains(body, "password")
	s.NotContains(body, "passwordHash")

	w = s.do(http.MethodGet, "/api/users/nobody", "", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("User not found", s.decode(w)["error"])
}

func (s *RouterTestSuite) TestMyProfileRequiresToken() {
	w := s.do(http.MethodGet, "/api/users/me/profile", "", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	token := s.register("alice")
	w = s.do(http.MethodGet, "/api/users/me/profile", token, nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("alice@example.com", s.decode(w)["email"])
}

func (s *RouterTestSuite) TestUpdateProfile() {
	token := s.register("alice")

	w := s.doJSON(http.MethodPost, "/api/users/update", token, gin.H{
		"bio":   "hello there",
		"theme": "dark",
		"links": []gin.H{
			{"title": "Blog", "url": "https://blog.example"},
			{"title": "Shop", "url": "https://shop.example", "active": false},
		},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	body := s.decode(w)
	s.Equal("hello there", body["bio"])
	s.Equal("dark", body["theme"])
	s.Len(body["links"], 2)

	w = s.do(http.MethodGet, "/api/users/alice", "", nil, "")
	links := s.decode(w)["links"].([]any)
	s.Require().Len(links, 2)
	s.Equal("Blog", links[0].(map[string]any)["title"])
	s.Equal(true, links[0].(map[string]any)["active"])
	s.Equal(false, links[1].(map[string]any)["active"])
}

func (s *RouterTestSuite) TestUpdateProfile_RejectsDisallowedFields() {
	token := s.register("alice")

	for _, payload := range []string{
		`{"username":"mallory"}`,
		`{"BIO":"upper"}`,
		`{"Theme":"dark"}`,
		`{"bio":"x","LINKS":[]}`,
		`{"bio":null}`,
		`{"links":null}`,
		`null`,
		`{"bio":"x","email":"mallory@example.com"}`,
		`{"passwordHash":"x"}`,
		`{"clicks":1}`,
		``,
		`[]`,
		`{"bio":"x"} {"bio":"y"}`,
	} {
		w := s.do(http.MethodPost, "/api/users/update", token, bytes.NewBufferString(payload), "application/json")
		s.Equal(http.StatusBadRequest, w.Code, payload)
		s.Equal("Invalid updates", s.decode(w)["error"], payload)
	}

	w := s.do(http.MethodGet, "/api/users/alice", "", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal("alice", body["username"])
	s.Equal("", body["bio"])
	s.Equal("default", body["theme"])

	w = s.doJSON(http.MethodPost, "/api/users/update", token, gin.H{"links": []gin.H{{"title": "", "url": "https://x.example"}}})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestUpdateProfile_StoresSubmittedValues() {
	token := s.register("alice")

	w := s.doJSON(http.MethodPost, "/api/users/update", token, gin.H{"theme": ""})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("", s.decode(w)["theme"])

	w = s.do(http.MethodPost, "/api/users/update", token, bytes.NewBufferString(`{}`), "application/json")
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterTestSuite) TestRegister_Validation() {
	for payload, want := range map[string]string{
		`{"username":"alice","email":"not-an-email","password":"password123"}`:      "email must be a valid email",
		`{"username":"alice","email":"alice@example.com","password":"123"}`:         "password must be at least 6 characters",
		`{"username":"  al ","email":"alice@example.com","password":"password123"}`: "username must be at least 3 characters",
		`{"email":"alice@example.com","password":"password123"}`:                    "username is required",
	} {
		w := s.do(http.MethodPost, "/api/auth/register", "", bytes.NewBufferString(payload), "application/json")
		s.Equal(http.StatusBadRequest, w.Code, payload)
		s.Equal(want, s.decode(w)["error"], payload)
	}
}

func pngImage(w, h int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func multipartBody(field, filename string, data []byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			panic(err)
		}
		if _, err := part.Write(data); err != nil {
			panic(err)
		}
	} else if err := mw.WriteField("note", "no file here"); err != nil {
		panic(err)
	}
	if err := mw.Close(); err != nil {
		panic(err)
	}
	return &buf, mw.FormDataContentType()
}

func (s *RouterTestSuite) TestUploadAvatar() {
	token := s.register("alice")

	body, contentType := multipartBody("avatar", "me.png", pngImage(64, 48))
	w := s.do(http.MethodPost, "/api/users/upload-avatar", token, body, contentType)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	avatar := s.decode(w)["avatar"].(string)
	s.Regexp(`^/uploads/avatars/[0-9a-f-]+\.png$`, avatar)

	w = s.do(http.MethodGet, "/api/users/alice", "", nil, "")
	s.Equal(avatar, s.decode(w)["avatar"])

	w = s.do(http.MethodGet, avatar, "", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	img, err := png.Decode(w.Body)
	s.Require().NoError(err)
	s.Equal(32, img.Bounds().Dx())
	s.Equal(32, img.Bounds().Dy())
}

func (s *RouterTestSuite) TestUploadAvatar_NoFile() {
	token := s.register("alice")

	body, contentType := multipartBody("", "", nil)
	w := s.do(http.MethodPost, "/api/users/upload-avatar", token, body, contentType)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("No file uploaded", s.decode(w)["error"])

	w = s.do(http.MethodPost, "/api/users/upload-avatar", token, nil, "")
	s.Equal(http.StatusBadRequest, w.Code)

	body, contentType = multipartBody("avatar", "notes.txt", []byte("plain text"))
	w = s.do(http.MethodPost, "/api/users/upload-avatar", token, body, contentType)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestLinkClick() {
	token := s.register("alice")
	w := s.doJSON(http.MethodPost, "/api/users/update", token, gin.H{
		"links": []gin.H{{"title": "a", "url": "https://a.example"}, {"title": "b", "url": "https://b.example"}},
	})
	s.Require().Equal(http.StatusOK, w.Code)

	for i := 1; i <= 3; i++ {
		w = s.do(http.MethodPost, "/api/users/alice/links/0/click", "", nil, "")
		s.Require().Equal(http.StatusOK, w.Code)
		s.JSONEq(fmt.Sprintf(`{"clicks":%d}`, i), w.Body.String())
	}

	for _, path := range []string{
		"/api/users/alice/links/2/click",
		"/api/users/alice/links/-1/click",
		"/api/users/alice/links/abc/click",
		"/api/users/nobody/links/0/click",
	} {
		w = s.do(http.MethodPost, path, "", nil, "")
		s.Equal(http.StatusNotFound, w.Code, path)
	}

	// the username is trimmed the same way for clicks as for profile reads
	w = s.do(http.MethodGet, "/api/users/%20alice%20", "", nil, "")
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodPost, "/api/users/%20alice%20/links/0/click", "", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"clicks":4}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/users/alice", "", nil, "")
	links := s.decode(w)["links"].([]any)
	s.Equal(float64(4), links[0].(map[string]any)["clicks"])
	s.Equal(float64(0), links[1].(map[string]any)["clicks"])
}

func (s *RouterTestSuite) TestDeleteAccount() {
	token := s.register("alice")

	w := s.do(http.MethodDelete, "/api/users/me", token, nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("User deleted successfully", s.decode(w)["message"])

	w = s.do(http.MethodGet, "/api/users/alice", "", nil, "")
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/users/me/profile", token, nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	_, err := s.users.FindByEmail(context.Background(), "alice@example.com")
	s.True(errors.Is(err, storage.ErrUserNotFound))
}

func (s *RouterTestSuite) TestChangePassword() {
	token := s.register("alice")

	w := s.doJSON(http.MethodPost, "/api/auth/change-password", token, gin.H{"currentPassword": "password123"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.doJSON(http.MethodPost, "/api/auth/change-password", token, gin.H{
		"currentPassword": "wrong-one", "newPassword": "n3w-passw0rd",
	})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.doJSON(http.MethodPost, "/api/auth/change-password", token, gin.H{
		"currentPassword": "password123", "newPassword": "n3w-passw0rd",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	newToken := s.decode(w)["token"].(string)

	w = s.do(http.MethodGet, "/api/users/me/profile", newToken, nil, "")
	s.Equal(http.StatusOK, w.Code)

	w = s.doJSON(http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "n3w-passw0rd"})
	s.Equal(http.StatusOK, w.Code)
}

func TestRegister_InviteCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := storage.OpenDB(context.Background(), filepath.Join(t.TempDir(), "linkhub.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	users := storage.NewSQLiteUserStore(db)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	router := NewRouter(RouterConfig{
		InviteCode: "s3cret",
		Auth:       NewAuthHandler(service.NewAccountService(users, auth.NewHasher(bcrypt.MinCost), tokens)),
		Users:      NewUserHandler(service.NewProfileService(users, nil, service.AvatarOptions{})),
		Gate:       middleware.AuthMiddleware(tokens, users),
	})

	send := func(code string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
			bytes.NewBufferString(`{"username":"alice","email":"alice@example.com","password":"password123"}`))
		req.Header.Set("Content-Type", "application/json")
		if code != "" {
			req.Header.Set(middleware.InviteCodeHeader, code)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if got := send("wrong"); got != http.StatusForbidden {
		t.Fatalf("wrong invite code: got %d, want %d", got, http.StatusForbidden)
	}
	if got := send("s3cret"); got != http.StatusCreated {
		t.Fatalf("valid invite code: got %d, want %d", got, http.StatusCreated)
	}
}
