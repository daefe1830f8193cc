package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"LinkHub_Backend/internal/auth"
	"LinkHub_Backend/internal/storage"
)

type storedAvatar struct {
	key         string
	contentType string
	data        []byte
}

type fakeAvatarStore struct {
	mu   sync.Mutex
	puts []storedAvatar
	err  error
}

func (f *fakeAvatarStore) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.puts = append(f.puts, storedAvatar{key: key, contentType: contentType, data: data})
	return "/uploads/avatars/" + key, nil
}

type testEnv struct {
	users    *storage.SQLiteUserStore
	avatars  *fakeAvatarStore
	tokens   *auth.TokenIssuer
	accounts *AccountService
	profiles *ProfileService
}

func newTestEnv(t *testing.T, opts AvatarOptions) *testEnv {
	t.Helper()

	db, err := storage.OpenDB(context.Background(), filepath.Join(t.TempDir(), "linkhub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		users:   storage.NewSQLiteUserStore(db),
		avatars: &fakeAvatarStore{},
		tokens:  auth.NewTokenIssuer("test-secret", time.Hour),
	}
	env.accounts = NewAccountService(env.users, auth.NewHasher(bcrypt.MinCost), env.tokens)
	env.profiles = NewProfileService(env.users, env.avatars, opts)
	return env
}
