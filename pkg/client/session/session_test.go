package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paghive/paghive/pkg/client"
)

func openStorage(t *testing.T) *BoltStorage {
	t.Helper()
	st, err := OpenBolt(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type failingStorage struct{ err error }

func (f failingStorage) Load(context.Context) (*User, error) { return nil, f.err }
func (f failingStorage) Save(context.Context, *User) error   { return f.err }
func (f failingStorage) Clear(context.Context) error         { return f.err }

type recordingAuth struct {
	LocalAuthenticator
	loggedOut []*User
	logOutErr error
}

func (r *recordingAuth) LogOut(_ context.Context, u *User) error {
	r.loggedOut = append(r.loggedOut, u)
	return r.logOutErr
}

// ---------------------------------------------------------------------------
// State machine
// ---------------------------------------------------------------------------

func TestInitialize_EmptyStorageIsAnonymous(t *testing.T) {
	s := NewStore(openStorage(t))
	assert.Equal(t, Uninitialized, s.State())

	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, Anonymous, s.State())
	assert.Nil(t, s.User())
}

func TestInitialize_RunsOnce(t *testing.T) {
	s := NewStore(openStorage(t))
	require.NoError(t, s.Initialize(context.Background()))

	err := s.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestInitialize_StorageFailureFallsBackToAnonymous(t *testing.T) {
	s := NewStore(failingStorage{err: errors.New("disk gone")})

	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, Anonymous, s.State())
}

func TestOperationsRequireInitialize(t *testing.T) {
	s := NewStore(openStorage(t))
	ctx := context.Background()

	_, err := s.SignUp(ctx, "Alice", "a@x.com")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.LogIn(ctx, "Alice", "a@x.com")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, s.LogOut(ctx), ErrNotInitialized)
}

func TestSession_PersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	st, err := OpenBolt(path)
	require.NoError(t, err)
	s := NewStore(st)
	require.NoError(t, s.Initialize(ctx))
	u, err := s.SignUp(ctx, "  Alice ", " a@x.com ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "a@x.com", u.Email)
	assert.NotEmpty(t, u.ID)
	require.NoError(t, st.Close())

	st, err = OpenBolt(path)
	require.NoError(t, err)
	defer st.Close()
	restarted := NewStore(st)
	require.NoError(t, restarted.Initialize(ctx))
	assert.Equal(t, Authenticated, restarted.State())
	assert.Equal(t, u.ID, restarted.User().ID)
}

func TestInitialize_DropsExpiredSession(t *testing.T) {
	st := openStorage(t)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, &User{ID: "u1", Name: "A", Email: "a@x.com", Token: "t", ExpiresAt: time.Now().Add(-time.Minute)}))

	s := NewStore(st)
	require.NoError(t, s.Initialize(ctx))
	assert.Equal(t, Anonymous, s.State())

	stored, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

// ---------------------------------------------------------------------------
// Validation and local authentication
// ---------------------------------------------------------------------------

func TestSignUp_Validation(t *testing.T) {
	s := NewStore(openStorage(t))
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	cases := []struct {
		name, email string
		want        error
	}{
		{"", "a@x.com", ErrNameRequired},
		{"   ", "a@x.com", ErrNameRequired},
		{"Alice", "", ErrEmailRequired},
		{"Alice", "not-an-email", ErrInvalidEmail},
		{"Alice", "a@x", ErrInvalidEmail},
	}
	for _, tc := range cases {
		_, err := s.SignUp(ctx, tc.name, tc.email)
		assert.ErrorIs(t, err, tc.want, "%q/%q", tc.name, tc.email)
	}
	assert.Equal(t, Anonymous, s.State())
}

func TestLogIn_AnyPairSucceedsLocally(t *testing.T) {
	s := NewStore(openStorage(t))
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	// Never signed up, and login does not check the email format.
	u, err := s.LogIn(ctx, "Alice", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, "Alice", u.Name)

	_, err = s.LogIn(ctx, "Bob", "whatever")
	require.NoError(t, err)
	assert.Equal(t, "Bob", s.User().Name)
}

func TestLogOut_ClearsEvenWhenRemoteFails(t *testing.T) {
	st := openStorage(t)
	auth := &recordingAuth{logOutErr: errors.New("server down")}
	s := NewStore(st, WithAuthenticator(auth))
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))
	_, err := s.LogIn(ctx, "Alice", "a@x.com")
	require.NoError(t, err)

	require.NoError(t, s.LogOut(ctx))
	assert.Equal(t, Anonymous, s.State())
	assert.Len(t, auth.loggedOut, 1)

	stored, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestForget_SkipsAuthenticator(t *testing.T) {
	auth := &recordingAuth{}
	s := NewStore(openStorage(t), WithAuthenticator(auth))
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))
	_, err := s.LogIn(ctx, "Alice", "a@x.com")
	require.NoError(t, err)

	require.NoError(t, s.Forget(ctx))
	assert.Equal(t, Anonymous, s.State())
	assert.Empty(t, auth.loggedOut)
}

func TestUser_ReturnsCopy(t *testing.T) {
	s := NewStore(openStorage(t))
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))
	_, err := s.LogIn(ctx, "Alice", "a@x.com")
	require.NoError(t, err)

	s.User().Name = "Mallory"
	assert.Equal(t, "Alice", s.User().Name)
}

// ---------------------------------------------------------------------------
// Remote authentication
// ---------------------------------------------------------------------------

func TestRemoteAuthenticator(t *testing.T) {
	var revoked string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"message":"Login successful","user":{"id":"u1","name":"Alice","email":"a@x.com"},"token":"tok","expiresAt":"2099-01-01T00:00:00Z"}`))
		case "/auth/logout":
			revoked = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"message":"Logged out"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	api, err := client.New(srv.URL)
	require.NoError(t, err)

	s := NewStore(openStorage(t), WithAuthenticator(RemoteAuthenticator{API: api}))
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	u, err := s.LogIn(ctx, "Alice", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "tok", s.Token())
	assert.Equal(t, 2099, u.ExpiresAt.Year())

	require.NoError(t, s.LogOut(ctx))
	assert.Equal(t, "Bearer tok", revoked)
	assert.Equal(t, "", s.Token())
}

func TestRemoteAuthenticator_LogOutLeavesClientTokenAlone(t *testing.T) {
	seen := map[string]string{}
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = r.Header.Get("Authorization")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/logout":
			_, _ = w.Write([]byte(`{"message":"Logged out"}`))
		default:
			_, _ = w.Write([]byte(`{"id":"u2","name":"Bob","email":"b@x.com"}`))
		}
	}))
	defer srv.Close()

	api, err := client.New(srv.URL, client.WithToken("fresh"))
	require.NoError(t, err)

	auth := RemoteAuthenticator{API: api}
	require.NoError(t, auth.LogOut(context.Background(), &User{ID: "u1", Token: "old"}))

	_, err = api.Me(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer old", seen["/auth/logout"])
	assert.Equal(t, "Bearer fresh", seen["/auth/me"])
}

func TestRemoteAuthenticator_ServerRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"User not found. Please sign up first."}`))
	}))
	defer srv.Close()

	api, err := client.New(srv.URL)
	require.NoError(t, err)
	s := NewStore(openStorage(t), WithAuthenticator(RemoteAuthenticator{API: api}))
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	_, err = s.LogIn(ctx, "Alice", "a@x.com")
	assert.True(t, client.IsNotFound(err))
	assert.Equal(t, Anonymous, s.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "State(9)", State(9).String())
}
