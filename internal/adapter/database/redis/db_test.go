package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/require"

	"accountapp/internal/core/port"
)

func newTestRepository(t *testing.T) (port.CacheRepository, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)

	repo, err := NewRedisRepository(context.Background(), "redis://"+server.Addr())
	require.NoError(t, err)

	t.Cleanup(func() { repo.Close() })

	return repo, server
}

func TestRedisRepository_SetGetDelete(t *testing.T) {
	RegisterTestingT(t)

	ctx := context.Background()
	repo, _ := newTestRepository(t)

	Expect(repo.Set(ctx, "token_revoked:1", []byte("1700000000"), time.Hour)).To(Succeed())

	value, err := repo.Get(ctx, "token_revoked:1")
	Expect(err).ToNot(HaveOccurred())
	Expect(string(value)).To(Equal("1700000000"))

	Expect(repo.Delete(ctx, "token_revoked:1")).To(Succeed())

	_, err = repo.Get(ctx, "token_revoked:1")
	Expect(err).To(MatchError(port.ErrCacheMiss))
}

func TestRedisRepository_TTL(t *testing.T) {
	RegisterTestingT(t)

	ctx := context.Background()
	repo, server := newTestRepository(t)

	Expect(repo.Set(ctx, "short", []byte("x"), time.Minute)).To(Succeed())
	Expect(server.TTL("short")).To(Equal(time.Minute))

	server.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, "short")
	Expect(err).To(MatchError(port.ErrCacheMiss))
}

func TestRedisRepository_DeleteByPrefix(t *testing.T) {
	RegisterTestingT(t)

	ctx := context.Background()
	repo, server := newTestRepository(t)

	for _, key := range []string{"token_revoked:a", "token_revoked:b", "keep"} {
		Expect(repo.Set(ctx, key, []byte("v"), 0)).To(Succeed())
	}

	Expect(repo.DeleteByPrefix(ctx, "token_revoked:")).To(Succeed())

	Expect(server.Exists("token_revoked:a")).To(BeFalse())
	Expect(server.Exists("token_revoked:b")).To(BeFalse())
	Expect(server.Exists("keep")).To(BeTrue())

	Expect(repo.DeleteByPrefix(ctx, "missing:")).To(Succeed())
}

func TestNewRedisRepository_Unreachable(t *testing.T) {
	_, err := NewRedisRepository(context.Background(), "redis://127.0.0.1:1")
	require.Error(t, err)

	_, err = NewRedisRepository(context.Background(), "not a url")
	require.Error(t, err)
}
