package port

import (
	"context"

	"github.com/google/uuid"

	"accountapp/internal/core/domain"
)

// AccountRepository is the persistence contract for accounts. Missing rows
// are reported as domain.ErrNotFound and login collisions as
// domain.ErrConflict.
type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error)
	GetByLogin(ctx context.Context, login string) (domain.Account, error)
	ExistsByLogin(ctx context.Context, login string) (bool, error)
	Create(ctx context.Context, account domain.Account) (domain.Account, error)

	// Update writes the account only if the stored version still equals
	// account.Version and returns the row with the bumped version.
	Update(ctx context.Context, account domain.Account) (domain.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns the matching accounts ordered by creation time.
	List(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error)
}

type AccountService interface {
	Create(ctx context.Context, draft domain.AccountDraft, actorLogin string) (domain.Account, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.AccountPatch, actor domain.Actor) (domain.Account, error)
	ChangeCredential(ctx context.Context, id uuid.UUID, credential string, actor domain.Actor) (domain.Account, error)
	ChangeLogin(ctx context.Context, id uuid.UUID, login string, actor domain.Actor) (domain.Account, error)
	Revoke(ctx context.Context, id uuid.UUID, actorLogin string, soft bool) error
	Restore(ctx context.Context, id uuid.UUID, actorLogin string) (domain.Account, error)
	FindByLogin(ctx context.Context, login string) (domain.Account, error)
	FindByLoginAndCredential(ctx context.Context, login, credential string) (domain.Account, error)
	List(ctx context.Context, revoked bool) ([]domain.Account, error)
	ListOlderThan(ctx context.Context, age int) ([]domain.Account, error)
}
