package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/khabaroff/eventdesk/src/middleware"
	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/repositories/mock"
	"github.com/khabaroff/eventdesk/src/services"
	"github.com/khabaroff/eventdesk/src/templates"
)

const testPassword = "Str0ng!Pass1"

var csrfFieldPattern = regexp.MustCompile(`name="_token" value="([^"]+)"`)

// recordingMailer keeps the verification links it was asked to send
type recordingMailer struct {
	mu    sync.Mutex
	links []string
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, _, _, link string, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *recordingMailer) lastLink() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.links) == 0 {
		return ""
	}
	return m.links[len(m.links)-1]
}

// testApp is the full router over in-memory repositories
type testApp struct {
	handler       http.Handler
	users         *mock.UserRepository
	events        *mock.EventRepository
	tokens        *mock.TokenRepository
	tokenService  *services.TokenService
	registrations *services.RegistrationService
	mailer        *recordingMailer
	admin         models.User
	member        models.User
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hasher := services.NewPasswordHasher(bcrypt.MinCost)
	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)

	verifiedAt := time.Now().Add(-time.Hour)
	users := mock.NewUserRepository()
	seeded := users.Seed(
		models.User{Name: "Admin", Email: "admin@example.com", PasswordHash: hash, IsAdmin: true, EmailVerifiedAt: &verifiedAt},
		models.User{Name: "Member", Email: "member@example.com", PasswordHash: hash, EmailVerifiedAt: &verifiedAt},
	)

	events := mock.NewEventRepository()
	tokens := mock.NewTokenRepository()
	validator := services.NewValidator(services.DefaultPasswordPolicy())

	auth, err := services.NewAuthService(users, hasher, true)
	require.NoError(t, err)
	tokenService := services.NewTokenService("test-secret-test-secret-test-secret", time.Hour, 24*time.Hour, tokens, users)
	registrations := services.NewRegistrationService(events, mock.NewRegistrationRepository(events), users)
	mailer := &recordingMailer{}

	views, err := templates.LoadViews(ViewFuncs())
	require.NoError(t, err)

	limiter := middleware.NewIPRateLimiter(middleware.RateLimitConfig{RequestsPerMinute: 1000, Burst: 1000})
	t.Cleanup(limiter.Stop)

	router := NewRouter(RouterConfig{
		Users:         services.NewUserService(users, hasher, validator),
		Auth:          auth,
		Tokens:        tokenService,
		Events:        services.NewEventService(events, validator),
		Registrations: registrations,
		Verification:  services.NewVerificationService(users, services.NewURLSigner("verify-secret"), mailer, "http://localhost:8080", time.Hour),
		Tracker:       &services.AnalyticsService{},
		Health:        stubChecker{},
		Views:         views,
		Cookies:       middleware.NewCookies([]byte("flash-key-flash-key-flash-key-32"), false),
		LoginLimiter:  limiter,
		CSRFKey:       "csrf-secret",
	})

	return &testApp{
		handler:       middleware.MethodOverride(router),
		users:         users,
		events:        events,
		tokens:        tokens,
		tokenService:  tokenService,
		registrations: registrations,
		mailer:        mailer,
		admin:         seeded[0],
		member:        seeded[1],
	}
}

func (a *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

// session returns a session cookie signed in as user
func (a *testApp) session(t *testing.T, user models.User) *http.Cookie {
	t.Helper()
	token, _, err := a.tokenService.IssueSession(&user)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookieName, Value: token}
}

// bearer returns an API token for user
func (a *testApp) bearer(t *testing.T, user models.User) string {
	t.Helper()
	token, _, err := a.tokenService.IssueAPIToken(context.Background(), &user)
	require.NoError(t, err)
	return token
}

// get performs a browser GET with the given cookies
func (a *testApp) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	return a.serve(req)
}

// csrf fetches the login form and returns its anti-forgery token and cookie
func (a *testApp) csrf(t *testing.T) (string, *http.Cookie) {
	t.Helper()
	w := a.get("/login")
	require.Equal(t, http.StatusOK, w.Code)

	match := csrfFieldPattern.FindStringSubmatch(w.Body.String())
	require.Len(t, match, 2, "login form should carry a csrf field")
	cookie := cookieFrom(w, "_csrf")
	require.NotNil(t, cookie)
	return match[1], cookie
}

// submit posts an HTML form with a valid anti-forgery token
func (a *testApp) submit(t *testing.T, path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	token, csrfCookie := a.csrf(t)
	values.Set(middleware.CSRFFieldName, token)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(csrfCookie)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	return a.serve(req)
}

// api performs a JSON API request, authenticated when token is set
func (a *testApp) api(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	req := newJSONRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.serve(req)
}

func cookieFrom(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
