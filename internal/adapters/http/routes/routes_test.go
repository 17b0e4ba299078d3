package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/adapters/http/middleware"
	"libraryhub/internal/adapters/http/routes"
	"libraryhub/internal/adapters/persistence/memory"
	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/config"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/jwt"
	"libraryhub/internal/pkg/password"
)

func init() {
	password.SetCost(4)
}

type quietNotifier struct{}

func (quietNotifier) NotifyBorrowalUpdated(context.Context, *models.User, *models.Borrowal) error {
	return nil
}

func (quietNotifier) NotifyBorrowalOverdue(context.Context, *models.User, *models.Borrowal) error {
	return nil
}

func (quietNotifier) NotifyWelcome(context.Context, *models.User, string) error { return nil }

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	t     *testing.T
	app   *fiber.App
	repos *repositories.Set
	cfg   *config.Config

	admin, librarian, member, other *models.User
	book                            *models.Book
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{
		AppMode:        "dev",
		RequestTimeout: 5 * time.Second,
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Cookie: config.CookieConfig{SameSite: "lax"},
	}

	repos := memory.NewSet()
	authService := services.NewAuthService(repos.Users, repos.RefreshTokens, cfg.JWT)
	svc := &routes.Services{
		Auth:      authService,
		Users:     services.NewUserService(repos.Users, quietNotifier{}),
		Catalog:   services.NewCatalogService(repos),
		Borrowals: services.NewBorrowalService(repos, quietNotifier{}, 14),
		Reviews:   services.NewReviewService(repos),
		Dashboard: services.NewDashboardService(repos),
		Ping:      repos.Ping,
	}

	app := fiber.New(middleware.AppConfig(cfg))
	middleware.Setup(app, cfg)
	routes.Setup(app, svc, cfg)

	mk := func(name, email string, role domain.Role) *models.User {
		u := &models.User{Name: name, Email: email, Role: string(role), IsActive: true}
		require.NoError(t, repos.Users.Create(ctx, u))
		return u
	}
	book := &models.Book{Name: "Dune", ISBN: "9780441013593", IsAvailable: true}
	require.NoError(t, repos.Books.Create(ctx, book))

	return &testServer{
		t:         t,
		app:       app,
		repos:     repos,
		cfg:       cfg,
		admin:     mk("Ada", "ada@library.test", domain.RoleAdmin),
		librarian: mk("Lin", "lin@library.test", domain.RoleLibrarian),
		member:    mk("Mia", "mia@library.test", domain.RoleMember),
		other:     mk("Otto", "otto@library.test", domain.RoleMember),
		book:      book,
	}
}

func (s *testServer) token(u *models.User) string {
	s.t.Helper()
	tok, err := jwt.GenerateAccessToken(u.ID, u.Email, u.Name, u.Role, s.cfg.JWT.Secret, 15)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path string, as *models.User, body interface{}) (*http.Response, envelope) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(as))
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(raw) > 0 {
		require.NoError(s.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func (s *testServer) bookAvailable() bool {
	s.t.Helper()
	b, err := s.repos.Books.GetByID(context.Background(), s.book.ID)
	require.NoError(s.t, err)
	return b.IsAvailable
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}

func TestBorrowalRequiresAuthentication(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(http.MethodGet, "/api/borrowal/getAll", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestBorrowalLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(http.MethodPost, "/api/borrowal/add", s.member, fiber.Map{"bookId": s.book.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)

	var created models.BorrowalResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, domain.BorrowalPending, created.Status)
	assert.Equal(t, s.member.ID, created.MemberID)
	assert.False(t, s.bookAvailable())

	// The book is taken while the first borrowal is active
	resp, _ = s.do(http.MethodPost, "/api/borrowal/add", s.other, fiber.Map{"bookId": s.book.ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	updatePath := fmt.Sprintf("/api/borrowal/update/%d", created.ID)

	resp, _ = s.do(http.MethodPut, updatePath, s.member, fiber.Map{"status": "accepted"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = s.do(http.MethodPut, updatePath, s.librarian, fiber.Map{"status": "accepted"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	var accepted models.BorrowalResponse
	require.NoError(t, json.Unmarshal(env.Data, &accepted))
	assert.Equal(t, domain.BorrowalAccepted, accepted.Status)
	assert.NotNil(t, accepted.BorrowedDate)
	assert.NotNil(t, accepted.DueDate)

	resp, _ = s.do(http.MethodPut, updatePath, s.librarian, fiber.Map{"status": "pending"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, env = s.do(http.MethodGet, fmt.Sprintf("/api/borrowal/history/%d", created.ID), s.librarian, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []models.BorrowalHistory
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 2)

	deletePath := fmt.Sprintf("/api/borrowal/delete/%d", created.ID)
	resp, _ = s.do(http.MethodDelete, deletePath, s.librarian, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = s.do(http.MethodDelete, deletePath, s.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	var deleted models.BorrowalResponse
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	assert.Equal(t, created.ID, deleted.ID)
	assert.True(t, s.bookAvailable())

	resp, _ = s.do(http.MethodGet, fmt.Sprintf("/api/borrowal/get/%d", created.ID), s.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBorrowalValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"missing book", fiber.Map{}, http.StatusBadRequest},
		{"unknown book", fiber.Map{"bookId": 999}, http.StatusNotFound},
		{"bad date", fiber.Map{"bookId": s.book.ID, "requestDate": "yesterday"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := s.do(http.MethodPost, "/api/borrowal/add", s.member, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.False(t, env.Success)
		})
	}
}

func TestMembersSeeOnlyOwnBorrowals(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(http.MethodPost, "/api/borrowal/add", s.member, fiber.Map{"bookId": s.book.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, env := s.do(http.MethodGet, "/api/borrowal/getAll", s.other, nil)
	var list []models.BorrowalResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list)

	_, env = s.do(http.MethodGet, "/api/borrowal/getAll", s.librarian, nil)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
}

func TestCatalogReadsArePublicAndCached(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(http.MethodGet, "/api/book/getAll?q=dune", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Contains(t, resp.Header.Get(fiber.HeaderCacheControl), "public")

	resp, _ = s.do(http.MethodPost, "/api/book/add", s.member, fiber.Map{"name": "Emma", "isbn": "9780141439587"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = s.do(http.MethodPost, "/api/book/add", s.librarian, fiber.Map{"name": "Emma", "isbn": "9780141439587", "position": "A-12"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)
}

func TestReviewOwnership(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(http.MethodPost, fmt.Sprintf("/api/review/add/%d", s.book.ID), s.member, fiber.Map{"review": "Spice!", "rating": 5})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)
	var review models.ReviewResponse
	require.NoError(t, json.Unmarshal(env.Data, &review))

	resp, _ = s.do(http.MethodPost, fmt.Sprintf("/api/review/add/%d", s.book.ID), s.member, fiber.Map{"review": "Again"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.do(http.MethodPut, fmt.Sprintf("/api/review/update/%d", review.ID), s.other, fiber.Map{"review": "Mine now"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/review/delete/%d", review.ID), s.admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, env = s.do(http.MethodGet, fmt.Sprintf("/api/review/getByBookId/%d", s.book.ID), nil, nil)
	var reviews []models.ReviewResponse
	require.NoError(t, json.Unmarshal(env.Data, &reviews))
	assert.Empty(t, reviews)
}

func TestRegisterLoginAndMe(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(http.MethodPost, "/api/auth/register", nil, fiber.Map{
		"name": "Nia", "email": "Nia@Library.test", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)

	resp, env = s.do(http.MethodPost, "/api/auth/login", nil, fiber.Map{"email": "nia@library.test", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)

	var cookieNames []string
	for _, c := range resp.Cookies() {
		cookieNames = append(cookieNames, c.Name)
	}
	assert.ElementsMatch(t, []string{"access_token", "refresh_token"}, cookieNames)

	var login struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: login.AccessToken})
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/api/auth/login", nil, fiber.Map{"email": "nia@library.test", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStaffOnlyUserManagement(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(http.MethodGet, "/api/user/getAllMembers", s.member, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env := s.do(http.MethodGet, "/api/user/getAllMembers", s.librarian, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var members []models.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &members))
	assert.Len(t, members, 2)

	resp, _ = s.do(http.MethodPost, "/api/user/add", s.librarian, fiber.Map{"name": "Pat", "email": "pat@library.test"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = s.do(http.MethodPost, "/api/user/add", s.admin, fiber.Map{"name": "Pat", "email": "pat@library.test"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)

	resp, _ = s.do(http.MethodGet, "/api/dashboard/stats", s.librarian, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHistoryIgnoresForgedClientIP(t *testing.T) {
	s := newTestServer(t)

	raw, err := json.Marshal(fiber.Map{"bookId": s.book.ID})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/borrowal/add", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token(s.member))
	req.Header.Set("X-Real-IP", "203.0.113.9")
	req.Header.Set(fiber.HeaderXForwardedFor, "198.51.100.7")

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	var created models.BorrowalResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))

	resp, env = s.do(http.MethodGet, fmt.Sprintf("/api/borrowal/history/%d", created.ID), s.librarian, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []models.BorrowalHistory
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.NotEqual(t, "203.0.113.9", history[0].IPAddress)
	assert.NotEqual(t, "198.51.100.7", history[0].IPAddress)
}
