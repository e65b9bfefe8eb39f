package memory

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"accountapp/internal/core/port"
)

func TestMemoryRepository(t *testing.T) {
	RegisterTestingT(t)

	ctx := context.Background()
	repo := NewMemoryRepository(time.Minute)
	defer repo.Close()

	Expect(repo.Set(ctx, "token_revoked:a", []byte("1"), time.Minute)).To(Succeed())
	Expect(repo.Set(ctx, "token_revoked:b", []byte("2"), 0)).To(Succeed())
	Expect(repo.Set(ctx, "other", []byte("3"), time.Minute)).To(Succeed())

	value, err := repo.Get(ctx, "token_revoked:a")
	Expect(err).ToNot(HaveOccurred())
	Expect(string(value)).To(Equal("1"))

	Expect(repo.DeleteByPrefix(ctx, "token_revoked:")).To(Succeed())

	_, err = repo.Get(ctx, "token_revoked:b")
	Expect(err).To(MatchError(port.ErrCacheMiss))

	value, err = repo.Get(ctx, "other")
	Expect(err).ToNot(HaveOccurred())
	Expect(string(value)).To(Equal("3"))

	Expect(repo.Delete(ctx, "other")).To(Succeed())
	_, err = repo.Get(ctx, "other")
	Expect(err).To(MatchError(port.ErrCacheMiss))
}

func TestMemoryRepository_Expiry(t *testing.T) {
	RegisterTestingT(t)

	ctx := context.Background()
	repo := NewMemoryRepository(time.Minute)

	Expect(repo.Set(ctx, "short", []byte("x"), 10*time.Millisecond)).To(Succeed())

	Eventually(func() error {
		_, err := repo.Get(ctx, "short")
		return err
	}).WithTimeout(time.Second).Should(MatchError(port.ErrCacheMiss))
}
