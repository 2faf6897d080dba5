package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolbook/schoolbook/adapters/store"
	"github.com/schoolbook/schoolbook/adapters/tokenizer"
	"github.com/schoolbook/schoolbook/service"
)

type fixedGenerator struct{ code string }

func (g fixedGenerator) Generate() (string, error) { return g.code, nil }

type recordingNotifier struct{ sent []string }

func (n *recordingNotifier) SendOTP(ctx context.Context, email, code string) error {
	n.sent = append(n.sent, email+":"+code)
	return nil
}

type stubImages struct{}

func (stubImages) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	return "https://img.example/hosted.png", nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *recordingNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ms := store.NewMemoryStore()
	n := &recordingNotifier{}
	auth := service.NewAuthService(ms, tokenizer.NewJWTTokenizer([]byte("test-secret")), n,
		service.WithGenerator(fixedGenerator{code: "482913"}))
	schools := service.NewSchoolService(ms, stubImages{})

	return SetupRouter(auth, schools), n
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// TestLoginFlow walks the full lifecycle: request a code, verify it, check
// the session, log out, check again.
func TestLoginFlow(t *testing.T) {
	router, n := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/auth/request-otp", `{"email":"a@x.com"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, []string{"a@x.com:482913"}, n.sent)

	w = doJSON(t, router, http.MethodPost, "/auth/verify-otp", `{"email":"a@x.com","otp":"482913"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)

	var verifyResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verifyResp))
	assert.Equal(t, cookie.Value, verifyResp.Token)

	w = doJSON(t, router, http.MethodGet, "/auth/session", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var sessResp struct {
		Authenticated bool  `json:"authenticated"`
		IdentityID    int64 `json:"identity_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessResp))
	assert.True(t, sessResp.Authenticated)
	assert.Equal(t, int64(1), sessResp.IdentityID)

	w = doJSON(t, router, http.MethodPost, "/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	// Revocation beats the token's embedded expiry.
	w = doJSON(t, router, http.MethodGet, "/auth/session", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}

func TestVerifyWithoutChallenge(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/auth/verify-otp", `{"email":"a@x.com","otp":"000000"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired OTP")
}

func TestRequestOTPBadEmail(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, body := range []string{`{}`, `{"email":"nodomain"}`} {
		w := doJSON(t, router, http.MethodPost, "/auth/request-otp", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
}

func TestSessionWithoutToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/auth/session", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}

func TestSessionBearerHeader(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/auth/request-otp", `{"email":"a@x.com"}`, nil)
	w := doJSON(t, router, http.MethodPost, "/auth/verify-otp", `{"email":"a@x.com","otp":"482913"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	token := sessionCookie(t, w).Value

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
}

func TestLogoutIsAlways200(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/auth/logout", "",
		&http.Cookie{Name: CookieName, Value: "never-issued"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func schoolForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("image", "front.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateSchoolRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := schoolForm(t, map[string]string{"name": "Springdale High"})
	req := httptest.NewRequest(http.MethodPost, "/api/schools", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndListSchools(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/auth/request-otp", `{"email":"a@x.com"}`, nil)
	w := doJSON(t, router, http.MethodPost, "/auth/verify-otp", `{"email":"a@x.com","otp":"482913"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	body, contentType := schoolForm(t, map[string]string{
		"name":     "Springdale High",
		"address":  "12 Hill Rd",
		"city":     "Pune",
		"state":    "MH",
		"contact":  "9876543210",
		"email_id": "office@springdale.example",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/schools", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The listing is public.
	w = doJSON(t, router, http.MethodGet, "/api/schools", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Springdale High")
	assert.Contains(t, w.Body.String(), "https://img.example/hosted.png")
}

func TestCreateSchoolValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/auth/request-otp", `{"email":"a@x.com"}`, nil)
	w := doJSON(t, router, http.MethodPost, "/auth/verify-otp", `{"email":"a@x.com","otp":"482913"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	// Missing contact and email.
	body, contentType := schoolForm(t, map[string]string{
		"name": "Springdale High", "address": "12 Hill Rd", "city": "Pune", "state": "MH",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/schools", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
