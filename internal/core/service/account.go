package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"accountapp/internal/core/domain"
	"accountapp/internal/core/port"
	"accountapp/internal/core/telemetry"
	"accountapp/internal/core/util"
)

const accountServiceName = "account"

type AccountService struct {
	repo      port.AccountRepository
	revoker   port.TokenRevoker
	telemetry port.Telemetry
	logger    *otelzap.Logger
	now       func() time.Time
}

type AccountOption func(*AccountService)

func WithClock(now func() time.Time) AccountOption {
	return func(s *AccountService) { s.now = now }
}

func WithLogger(logger *otelzap.Logger) AccountOption {
	return func(s *AccountService) { s.logger = logger }
}

func WithTokenRevoker(revoker port.TokenRevoker) AccountOption {
	return func(s *AccountService) { s.revoker = revoker }
}

func WithTelemetry(probe port.Telemetry) AccountOption {
	return func(s *AccountService) { s.telemetry = probe }
}

func NewAccountService(repo port.AccountRepository, opts ...AccountOption) *AccountService {
	s := &AccountService{
		repo:      repo,
		revoker:   noopRevoker{},
		telemetry: telemetry.NewNoOpProbe(),
		logger:    otelzap.New(zap.NewNop()),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *AccountService) clock() time.Time {
	return s.now().UTC()
}

// trace opens a service span and returns the function that closes it.
func (s *AccountService) trace(ctx context.Context, operation, actor string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, accountServiceName, operation, actor, attrs)
	start := time.Now()

	return ctx, func(err error) {
		s.telemetry.RecordServiceOperation(ctx, accountServiceName, operation, actor, time.Since(start), err)
		span.End()
	}
}

func (s *AccountService) Create(ctx context.Context, draft domain.AccountDraft, actorLogin string) (account domain.Account, err error) {
	ctx, done := s.trace(ctx, "create", actorLogin, attribute.String("login", draft.Login))
	defer func() { done(err) }()

	if err := domain.ValidateDraft(draft); err != nil {
		return domain.Account{}, err
	}

	exists, err := s.repo.ExistsByLogin(ctx, draft.Login)

	if err != nil {
		return domain.Account{}, err
	}

	if exists {
		return domain.Account{}, fmt.Errorf("%w: login %q is already taken", domain.ErrConflict, draft.Login)
	}

	hash, err := util.GenerateEncrypt(draft.Credential)

	if err != nil {
		return domain.Account{}, fmt.Errorf("hash credential: %w", err)
	}

	now := s.clock()

	newAccount := domain.Account{
		ID:             uuid.New(),
		Login:          draft.Login,
		CredentialHash: hash,
		Name:           draft.Name,
		Gender:         draft.Gender,
		IsAdmin:        draft.IsAdmin,
		CreatedAt:      now,
		CreatedBy:      actorLogin,
		ModifiedAt:     now,
		ModifiedBy:     actorLogin,
		Version:        1,
	}

	if draft.Birthday != nil {
		birthday := domain.DateOf(*draft.Birthday)
		newAccount.Birthday = &birthday
	}

	account, err = s.repo.Create(ctx, newAccount)

	if err != nil {
		return domain.Account{}, err
	}

	s.telemetry.RecordBusinessEvent(ctx, "account.created", "account", account.ID.String(), actorLogin, map[string]any{
		"is_admin": account.IsAdmin,
	})

	return account, nil
}

func (s *AccountService) Update(ctx context.Context, id uuid.UUID, patch domain.AccountPatch, actor domain.Actor) (account domain.Account, err error) {
	ctx, done := s.trace(ctx, "update", actor.Login, attribute.String("account.id", id.String()))
	defer func() { done(err) }()

	target, err := s.activeByID(ctx, id)

	if err != nil {
		return domain.Account{}, err
	}

	if err := s.authorize(ctx, actor, id); err != nil {
		return domain.Account{}, err
	}

	if err := domain.ValidatePatch(patch); err != nil {
		return domain.Account{}, err
	}

	target.Apply(patch)
	target.Touch(actor.Login, s.clock())

	return s.repo.Update(ctx, target)
}

func (s *AccountService) ChangeCredential(ctx context.Context, id uuid.UUID, credential string, actor domain.Actor) (account domain.Account, err error) {
	ctx, done := s.trace(ctx, "change_credential", actor.Login, attribute.String("account.id", id.String()))
	defer func() { done(err) }()

	target, err := s.activeByID(ctx, id)

	if err != nil {
		return domain.Account{}, err
	}

	if err := s.authorize(ctx, actor, id); err != nil {
		return domain.Account{}, err
	}

	if err := domain.ValidateCredentialToken(credential); err != nil {
		return domain.Account{}, fmt.Errorf("password: %w", err)
	}

	hash, err := util.GenerateEncrypt(credential)

	if err != nil {
		return domain.Account{}, fmt.Errorf("hash credential: %w", err)
	}

	now := s.clock()

	target.CredentialHash = hash
	target.Touch(actor.Login, now)

	account, err = s.repo.Update(ctx, target)

	if err != nil {
		return domain.Account{}, err
	}

	s.revoker.RevokeTokens(ctx, id, now)

	return account, nil
}

func (s *AccountService) ChangeLogin(ctx context.Context, id uuid.UUID, login string, actor domain.Actor) (account domain.Account, err error) {
	ctx, done := s.trace(ctx, "change_login", actor.Login, attribute.String("account.id", id.String()))
	defer func() { done(err) }()

	target, err := s.activeByID(ctx, id)

	if err != nil {
		return domain.Account{}, err
	}

	if err := s.authorize(ctx, actor, id); err != nil {
		return domain.Account{}, err
	}

	if err := domain.ValidateCredentialToken(login); err != nil {
		return domain.Account{}, fmt.Errorf("login: %w", err)
	}

	if login != target.Login {
		owner, err := s.repo.GetByLogin(ctx, login)

		switch {
		case err == nil && owner.ID != id:
			return domain.Account{}, fmt.Errorf("%w: login %q is already taken", domain.ErrConflict, login)
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return domain.Account{}, err
		}
	}

	now := s.clock()

	target.Login = login
	target.Touch(actor.Login, now)

	account, err = s.repo.Update(ctx, target)

	if err != nil {
		return domain.Account{}, err
	}

	s.revoker.RevokeTokens(ctx, id, now)

	return account, nil
}

// Revoke soft-deletes the account, or removes it permanently when soft is
// false. Either way its outstanding tokens stop being accepted.
func (s *AccountService) Revoke(ctx context.Context, id uuid.UUID, actorLogin string, soft bool) (err error) {
	ctx, done := s.trace(ctx, "revoke", actorLogin,
		attribute.String("account.id", id.String()),
		attribute.Bool("soft", soft))
	defer func() { done(err) }()

	target, err := s.repo.GetByID(ctx, id)

	if err != nil {
		return err
	}

	now := s.clock()

	if soft {
		target.Revoke(actorLogin, now)

		if _, err := s.repo.Update(ctx, target); err != nil {
			return err
		}
	} else if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.revoker.RevokeTokens(ctx, id, now)

	s.telemetry.RecordBusinessEvent(ctx, "account.revoked", "account", id.String(), actorLogin, map[string]any{
		"soft": soft,
	})

	return nil
}

func (s *AccountService) Restore(ctx context.Context, id uuid.UUID, actorLogin string) (account domain.Account, err error) {
	ctx, done := s.trace(ctx, "restore", actorLogin, attribute.String("account.id", id.String()))
	defer func() { done(err) }()

	target, err := s.repo.GetByID(ctx, id)

	if err != nil {
		return domain.Account{}, err
	}

	if !target.IsRevoked() {
		return domain.Account{}, fmt.Errorf("%w: account %s is not revoked", domain.ErrNotFound, id)
	}

	target.Restore(actorLogin, s.clock())

	account, err = s.repo.Update(ctx, target)

	if err != nil {
		return domain.Account{}, err
	}

	s.telemetry.RecordBusinessEvent(ctx, "account.restored", "account", id.String(), actorLogin, nil)

	return account, nil
}

func (s *AccountService) FindByLogin(ctx context.Context, login string) (domain.Account, error) {
	account, err := s.repo.GetByLogin(ctx, login)

	if err != nil {
		return domain.Account{}, err
	}

	if account.IsRevoked() {
		return domain.Account{}, fmt.Errorf("%w: account %q is revoked", domain.ErrNotFound, login)
	}

	return account, nil
}

func (s *AccountService) FindByLoginAndCredential(ctx context.Context, login, credential string) (domain.Account, error) {
	account, err := s.FindByLogin(ctx, login)

	if err != nil {
		return domain.Account{}, err
	}

	if err := util.ComparePassword(credential, account.CredentialHash); err != nil {
		return domain.Account{}, fmt.Errorf("%w: credential mismatch", domain.ErrNotFound)
	}

	return account, nil
}

func (s *AccountService) List(ctx context.Context, revoked bool) ([]domain.Account, error) {
	return s.repo.List(ctx, domain.AccountFilter{Revoked: domain.BoolPtr(revoked)})
}

// ListOlderThan returns active accounts at least age full years old today.
// An empty result is reported as domain.ErrNotFound.
func (s *AccountService) ListOlderThan(ctx context.Context, age int) ([]domain.Account, error) {
	if age < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", domain.ErrValidation)
	}

	cutoff := domain.YearsBefore(s.clock(), age)

	accounts, err := s.repo.List(ctx, domain.AccountFilter{
		Revoked:        domain.BoolPtr(false),
		BornOnOrBefore: &cutoff,
	})

	if err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: no accounts older than %d", domain.ErrNotFound, age)
	}

	return accounts, nil
}

func (s *AccountService) activeByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	account, err := s.repo.GetByID(ctx, id)

	if err != nil {
		return domain.Account{}, err
	}

	if account.IsRevoked() {
		return domain.Account{}, fmt.Errorf("%w: account %s is revoked", domain.ErrNotFound, id)
	}

	return account, nil
}

// authorize resolves the acting account from the store so that a token
// outliving its account's admin flag or active state grants nothing.
func (s *AccountService) authorize(ctx context.Context, actor domain.Actor, targetID uuid.UUID) error {
	acting, err := s.repo.GetByID(ctx, actor.ID)

	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: acting account no longer exists", domain.ErrForbidden)
	}

	if err != nil {
		return err
	}

	if acting.IsRevoked() {
		return fmt.Errorf("%w: acting account is revoked", domain.ErrForbidden)
	}

	if err := Authorize(acting, targetID); err != nil {
		s.logger.Ctx(ctx).Warn("Authorization denied",
			zap.String("actor", actor.Login),
			zap.String("target", targetID.String()))
		return err
	}

	return nil
}
