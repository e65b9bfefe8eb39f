package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"accountapp/internal/adapter/database/sqlite"
	"accountapp/internal/adapter/database/sqlite/repository"
	"accountapp/internal/core/domain"
	"accountapp/internal/core/port"
	"accountapp/internal/core/telemetry"
	. "accountapp/pkg/test"
	"accountapp/pkg/test/factory"
)

type AccountRepositoryTestSuite struct {
	suite.Suite
	db   *sqlite.DB
	repo port.AccountRepository
}

func (s *AccountRepositoryTestSuite) SetupTest() {
	s.db = InitTestDB()
	s.repo = repository.NewAccountRepository(s.db, telemetry.NewNoOpProbe())
}

func (s *AccountRepositoryTestSuite) TearDownTest() {
	CleanDB(s.T(), s.db)
	s.db.Close()
}

func TestAccountRepositoryTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(AccountRepositoryTestSuite))
}

func (s *AccountRepositoryTestSuite) TestRepository_Create_Success() {
	birthday := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)

	account, err := s.repo.Create(context.Background(), factory.NewAccount(map[string]any{
		"Login":    "alice1",
		"Name":     "Alice",
		"Gender":   domain.GenderFemale,
		"Birthday": &birthday,
	}))

	Expect(err).ToNot(HaveOccurred())
	Expect(account.ID).ToNot(Equal(uuid.Nil))
	Expect(account.Login).To(Equal("alice1"))
	Expect(account.Name).To(Equal("Alice"))
	Expect(account.Gender).To(Equal(domain.GenderFemale))
	Expect(account.Birthday.Equal(birthday)).To(BeTrue())
	Expect(account.IsRevoked()).To(BeFalse())
	Expect(account.Version).To(Equal(int64(1)))
}

func (s *AccountRepositoryTestSuite) TestRepository_Create_DuplicateLogin() {
	ctx := context.Background()

	_, err := s.repo.Create(ctx, factory.NewAccount(map[string]any{"Login": "bob"}))
	assert.NoError(s.T(), err)

	_, err = s.repo.Create(ctx, factory.NewAccount(map[string]any{"Login": "bob"}))
	assert.ErrorIs(s.T(), err, domain.ErrConflict)
}

func (s *AccountRepositoryTestSuite) TestRepository_Create_ConcurrentSameLogin() {
	ctx := context.Background()

	const attempts = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := s.repo.Create(ctx, factory.NewAccount(map[string]any{"Login": "racer"}))

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				succeeded++
			} else if assert.ErrorIs(s.T(), err, domain.ErrConflict) {
				conflicts++
			}
		}()
	}

	wg.Wait()

	Expect(succeeded).To(Equal(1))
	Expect(conflicts).To(Equal(attempts - 1))
}

func (s *AccountRepositoryTestSuite) TestRepository_GetByID_NotFound() {
	_, err := s.repo.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *AccountRepositoryTestSuite) TestRepository_GetByLogin_IsCaseSensitive() {
	ctx := context.Background()

	created, _ := s.repo.Create(ctx, factory.NewAccount(map[string]any{"Login": "Carol"}))

	found, err := s.repo.GetByLogin(ctx, "Carol")
	Expect(err).ToNot(HaveOccurred())
	Expect(found.ID).To(Equal(created.ID))

	_, err = s.repo.GetByLogin(ctx, "carol")
	Expect(err).To(MatchError(domain.ErrNotFound))
}

func (s *AccountRepositoryTestSuite) TestRepository_ExistsByLogin() {
	ctx := context.Background()

	_, _ = s.repo.Create(ctx, factory.NewAccount(map[string]any{"Login": "dave"}))

	exists, err := s.repo.ExistsByLogin(ctx, "dave")
	Expect(err).ToNot(HaveOccurred())
	Expect(exists).To(BeTrue())

	exists, err = s.repo.ExistsByLogin(ctx, "nobody")
	Expect(err).ToNot(HaveOccurred())
	Expect(exists).To(BeFalse())
}

func (s *AccountRepositoryTestSuite) TestRepository_Update_BumpsVersion() {
	ctx := context.Background()

	account, _ := s.repo.Create(ctx, factory.NewAccount())

	account.Name = "Renamed"
	account.Revoke("admin", time.Now().UTC())

	updated, err := s.repo.Update(ctx, account)

	Expect(err).ToNot(HaveOccurred())
	Expect(updated.Name).To(Equal("Renamed"))
	Expect(updated.Version).To(Equal(int64(2)))
	Expect(updated.IsRevoked()).To(BeTrue())
	Expect(*updated.RevokedBy).To(Equal("admin"))

	updated.Restore("admin", time.Now().UTC())
	restored, err := s.repo.Update(ctx, updated)

	Expect(err).ToNot(HaveOccurred())
	Expect(restored.RevokedAt).To(BeNil())
	Expect(restored.RevokedBy).To(BeNil())
	Expect(restored.Version).To(Equal(int64(3)))
}

func (s *AccountRepositoryTestSuite) TestRepository_Update_StaleVersion() {
	ctx := context.Background()

	account, _ := s.repo.Create(ctx, factory.NewAccount())

	first := account
	first.Name = "First"
	_, err := s.repo.Update(ctx, first)
	Expect(err).ToNot(HaveOccurred())

	second := account
	second.Name = "Second"
	_, err = s.repo.Update(ctx, second)
	Expect(err).To(MatchError(domain.ErrConflict))

	stored, _ := s.repo.GetByID(ctx, account.ID)
	Expect(stored.Name).To(Equal("First"))
}

func (s *AccountRepositoryTestSuite) TestRepository_Update_LoginCollision() {
	ctx := context.Background()

	_, _ = s.repo.Create(ctx, factory.NewAccount(map[string]any{"Login": "taken"}))
	account, _ := s.repo.Create(ctx, factory.NewAccount())

	account.Login = "taken"
	_, err := s.repo.Update(ctx, account)

	Expect(err).To(MatchError(domain.ErrConflict))
}

func (s *AccountRepositoryTestSuite) TestRepository_Update_Missing() {
	_, err := s.repo.Update(context.Background(), factory.NewAccount())

	Expect(err).To(MatchError(domain.ErrNotFound))
}

func (s *AccountRepositoryTestSuite) TestRepository_Delete() {
	ctx := context.Background()

	account, _ := s.repo.Create(ctx, factory.NewAccount())

	err := s.repo.Delete(ctx, account.ID)
	assert.NoError(s.T(), err)

	_, err = s.repo.GetByID(ctx, account.ID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	err = s.repo.Delete(ctx, account.ID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *AccountRepositoryTestSuite) TestRepository_List_FiltersAndOrder() {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	old := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	young := time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC)

	third, _ := s.repo.Create(ctx, factory.NewAccount(map[string]any{"CreatedAt": base.Add(2 * time.Hour), "Birthday": &old}))
	first, _ := s.repo.Create(ctx, factory.NewAccount(map[string]any{"CreatedAt": base, "IsAdmin": true}))
	second, _ := s.repo.Create(ctx, factory.NewAccount(map[string]any{"CreatedAt": base.Add(time.Hour), "Birthday": &young}))

	revoked := third
	revoked.Revoke("admin", base.Add(3*time.Hour))
	_, err := s.repo.Update(ctx, revoked)
	Expect(err).ToNot(HaveOccurred())

	all, err := s.repo.List(ctx, domain.AccountFilter{})
	Expect(err).ToNot(HaveOccurred())
	Expect(ids(all)).To(Equal([]uuid.UUID{first.ID, second.ID, third.ID}))

	active, _ := s.repo.List(ctx, domain.AccountFilter{Revoked: domain.BoolPtr(false)})
	Expect(ids(active)).To(Equal([]uuid.UUID{first.ID, second.ID}))

	revokedOnly, _ := s.repo.List(ctx, domain.AccountFilter{Revoked: domain.BoolPtr(true)})
	Expect(ids(revokedOnly)).To(Equal([]uuid.UUID{third.ID}))

	admins, _ := s.repo.List(ctx, domain.AccountFilter{IsAdmin: domain.BoolPtr(true)})
	Expect(ids(admins)).To(Equal([]uuid.UUID{first.ID}))

	cutoff := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	born, _ := s.repo.List(ctx, domain.AccountFilter{BornOnOrBefore: &cutoff})
	Expect(ids(born)).To(Equal([]uuid.UUID{third.ID}))

	exact := young
	bornExact, _ := s.repo.List(ctx, domain.AccountFilter{BornOnOrBefore: &exact})
	Expect(ids(bornExact)).To(Equal([]uuid.UUID{second.ID, third.ID}))
}

func ids(accounts []domain.Account) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(accounts))

	for _, account := range accounts {
		out = append(out, account.ID)
	}

	return out
}
