package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventix-gateway/internal/backend"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"
	"eventix-gateway/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Register(ctx context.Context, req models.RegisterRequest) (*models.User, backend.Credentials, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(backend.Credentials), args.Error(2)
}

func (m *MockBackend) Login(ctx context.Context, email, password string) (*models.User, backend.Credentials, error) {
	args := m.Called(email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(backend.Credentials), args.Error(2)
}

type fixture struct {
	redis    *miniredis.Miniredis
	backend  *MockBackend
	sessions *SessionStore
	tokens   *TokenIssuer
	service  *Service
	mw       *Middleware
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.NewNopLogger()
	sessions := NewSessionStore(client, time.Hour)
	tokens := NewTokenIssuer("test-secret", time.Hour)
	b := &MockBackend{}

	return &fixture{
		redis:    mr,
		backend:  b,
		sessions: sessions,
		tokens:   tokens,
		service:  NewService(b, sessions, tokens, log),
		mw:       &Middleware{Tokens: tokens, Sessions: sessions, CookieName: "eventix_token", Logger: log},
	}
}

func TestRegistrationForm_Validate(t *testing.T) {
	tests := []struct {
		name string
		form RegistrationForm
		want string
	}{
		{"missing name", RegistrationForm{Email: "a@b.c", Password: "secret1", ConfirmPassword: "secret1"}, "All fields are required."},
		{"missing confirmation", RegistrationForm{Name: "Ada", Email: "a@b.c", Password: "secret1"}, "All fields are required."},
		{"mismatch", RegistrationForm{Name: "Ada", Email: "a@b.c", Password: "secret1", ConfirmPassword: "secret2"}, "Passwords do not match."},
		{"too short", RegistrationForm{Name: "Ada", Email: "a@b.c", Password: "abc", ConfirmPassword: "abc"}, "Password must be at least 6 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			var verr *utils.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Message)
		})
	}

	assert.NoError(t, RegistrationForm{Name: "Ada", Email: "a@b.c", Password: "secret", ConfirmPassword: "secret"}.Validate())
}

func TestRegister_InvalidFormNeverCallsBackend(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Register(context.Background(), RegistrationForm{
		Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret2",
	})

	assert.Equal(t, 400, utils.StatusFor(err))
	f.backend.AssertNotCalled(t, "Register", mock.Anything)
	assert.Empty(t, f.redis.Keys())
}

func TestRegister_StartsSession(t *testing.T) {
	f := newFixture(t)
	user := &models.User{ID: 7, Name: "Ada", Email: "ada@example.com", Role: "USER"}
	f.backend.On("Register", models.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}).
		Return(user, backend.Credentials{{Name: "JSESSIONID", Value: "abc"}}, nil)

	signIn, err := f.service.Register(context.Background(), RegistrationForm{
		Name: " Ada ", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "/events", signIn.Redirect)

	sess, err := f.sessions.Get(context.Background(), signIn.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, int64(7), sess.User.ID)
	assert.Equal(t, backend.Credentials{{Name: "JSESSIONID", Value: "abc"}}, sess.Credentials)
}

func TestLogin_RequiresEmailAndPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Login(context.Background(), "  ", "secret")

	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Email and password are required", verr.Message)
	f.backend.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestLogin_BackendRejection(t *testing.T) {
	f := newFixture(t)
	f.backend.On("Login", "ada@example.com", "wrong").
		Return(nil, nil, &backend.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid email or password"})

	_, err := f.service.Login(context.Background(), "ada@example.com", "wrong")

	assert.Equal(t, http.StatusUnauthorized, utils.StatusFor(err))
	assert.Equal(t, "Invalid email or password", backend.MessageOf(err, "Invalid credentials."))
}

func TestTokenIssuer_RoundTripAndTamper(t *testing.T) {
	tokens := NewTokenIssuer("s3cret", time.Hour)
	sess := &Session{ID: "sid-1", User: models.User{ID: 3, Role: models.RoleAdmin}}

	token, expiresAt, err := tokens.Issue(sess)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.Equal(t, "3", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = NewTokenIssuer("other", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestTokenIssuer_Expired(t *testing.T) {
	tokens := NewTokenIssuer("s3cret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := tokens.Issue(&Session{ID: "sid"})
	require.NoError(t, err)

	_, err = NewTokenIssuer("s3cret", time.Minute).Verify(token)
	assert.Error(t, err)
}

func TestSessionStore_MissAndExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.sessions.Get(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, sess)

	created, err := f.sessions.Create(ctx, models.User{ID: 1}, nil)
	require.NoError(t, err)
	assert.True(t, f.redis.Exists("session:"+created.ID))

	f.redis.FastForward(2 * time.Hour)
	sess, err = f.sessions.Get(ctx, created.ID)
	assert.NoError(t, err)
	assert.Nil(t, sess)
}

func (f *fixture) tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	sess, err := f.sessions.Create(context.Background(), user, backend.Credentials{{Name: "JSESSIONID", Value: "xyz"}})
	require.NoError(t, err)
	token, _, err := f.tokens.Issue(sess)
	require.NoError(t, err)
	return token
}

func TestRequireUser(t *testing.T) {
	f := newFixture(t)
	var seen *Session
	var creds backend.Credentials
	h := f.mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFrom(r.Context())
		creds = backend.CredentialsFrom(r.Context())
	}))

	t.Run("no token redirects home", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/my-tickets", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		assert.Nil(t, seen)
	})

	t.Run("cookie token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/my-tickets", nil)
		req.AddCookie(&http.Cookie{Name: "eventix_token", Value: f.tokenFor(t, models.User{ID: 9})})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, int64(9), seen.User.ID)
		assert.Equal(t, backend.Credentials{{Name: "JSESSIONID", Value: "xyz"}}, creds)
	})

	t.Run("deleted session redirects", func(t *testing.T) {
		token := f.tokenFor(t, models.User{ID: 9})
		claims, err := f.tokens.Verify(token)
		require.NoError(t, err)
		require.NoError(t, f.sessions.Delete(context.Background(), claims.SessionID))

		req := httptest.NewRequest(http.MethodGet, "/api/my-tickets", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestRequireAdmin_NonAdminNeverReachesHandler(t *testing.T) {
	f := newFixture(t)
	calls := 0
	h := f.mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	for _, token := range []string{"", f.tokenFor(t, models.User{ID: 2, Role: "USER"})} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/analytics", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	}
	assert.Zero(t, calls)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/analytics", nil)
	req.Header.Set("Authorization", "Bearer "+f.tokenFor(t, models.User{ID: 1, Role: models.RoleAdmin}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestLogout_DeletesSession(t *testing.T) {
	f := newFixture(t)
	user := &models.User{ID: 4}
	f.backend.On("Login", "a@b.c", "secret").Return(user, backend.Credentials{}, nil)

	signIn, err := f.service.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "/", signIn.Redirect)
	assert.Equal(t, signIn.SessionID, f.service.SessionID(signIn.Token))

	require.NoError(t, f.service.Logout(context.Background(), signIn.SessionID))
	assert.False(t, f.redis.Exists("session:"+signIn.SessionID))
	assert.NoError(t, f.service.Logout(context.Background(), ""))
}

func TestExtractTokenFromRequest_BadHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	_, err := ExtractTokenFromRequest(req, "eventix_token")
	assert.Error(t, err)
}
