package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	database "accountapp/internal/adapter/database/postgres"
	"accountapp/internal/core/domain"
	"accountapp/internal/core/port"
	tel "accountapp/internal/core/telemetry"
)

const accountsTable = "accounts"

var accountColumns = []string{
	"id::text AS id", "login", "credential_hash", "name", "gender", "birthday", "is_admin",
	"created_at", "created_by", "modified_at", "modified_by",
	"revoked_at", "revoked_by", "version",
}

var insertColumns = []string{
	"id", "login", "credential_hash", "name", "gender", "birthday", "is_admin",
	"created_at", "created_by", "modified_at", "modified_by",
	"revoked_at", "revoked_by", "version",
}

type accountRow struct {
	ID             string     `db:"id"`
	Login          string     `db:"login"`
	CredentialHash string     `db:"credential_hash"`
	Name           string     `db:"name"`
	Gender         int16      `db:"gender"`
	Birthday       *time.Time `db:"birthday"`
	IsAdmin        bool       `db:"is_admin"`
	CreatedAt      time.Time  `db:"created_at"`
	CreatedBy      string     `db:"created_by"`
	ModifiedAt     time.Time  `db:"modified_at"`
	ModifiedBy     string     `db:"modified_by"`
	RevokedAt      *time.Time `db:"revoked_at"`
	RevokedBy      *string    `db:"revoked_by"`
	Version        int64      `db:"version"`
}

func (r accountRow) toDomain() (domain.Account, error) {
	id, err := uuid.Parse(r.ID)

	if err != nil {
		return domain.Account{}, fmt.Errorf("invalid account id %q: %w", r.ID, err)
	}

	account := domain.Account{
		ID:             id,
		Login:          r.Login,
		CredentialHash: r.CredentialHash,
		Name:           r.Name,
		Gender:         domain.Gender(r.Gender),
		IsAdmin:        r.IsAdmin,
		CreatedAt:      r.CreatedAt.UTC(),
		CreatedBy:      r.CreatedBy,
		ModifiedAt:     r.ModifiedAt.UTC(),
		ModifiedBy:     r.ModifiedBy,
		RevokedBy:      r.RevokedBy,
		Version:        r.Version,
	}

	if r.Birthday != nil {
		birthday := domain.DateOf(*r.Birthday)
		account.Birthday = &birthday
	}

	if r.RevokedAt != nil {
		revokedAt := r.RevokedAt.UTC()
		account.RevokedAt = &revokedAt
	}

	return account, nil
}

type AccountRepository struct {
	db        *database.DB
	telemetry port.Telemetry
}

func NewAccountRepository(db *database.DB, telemetry port.Telemetry) port.AccountRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &AccountRepository{db: db, telemetry: telemetry}
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (ar *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (account domain.Account, err error) {
	ctx, span := ar.telemetry.StartRepositorySpan(ctx, "get_by_id", accountsTable, nil)
	defer span.End()

	op := tel.StartOperation(ctx, ar.telemetry, "get_by_id", accountsTable)
	defer func() { op.End(ignoreNotFound(err)) }()

	return ar.getOne(ctx, ar.db, sq.Eq{"id": id.String()})
}

func (ar *AccountRepository) GetByLogin(ctx context.Context, login string) (account domain.Account, err error) {
	ctx, span := ar.telemetry.StartRepositorySpan(ctx, "get_by_login", accountsTable, nil)
	defer span.End()

	op := tel.StartOperation(ctx, ar.telemetry, "get_by_login", accountsTable)
	defer func() { op.End(ignoreNotFound(err)) }()

	return ar.getOne(ctx, ar.db, sq.Eq{"login": login})
}

func (ar *AccountRepository) ExistsByLogin(ctx context.Context, login string) (bool, error) {
	sql, args, err := ar.db.QueryBuilder.Select("1").
		Prefix("SELECT EXISTS (").
		From(accountsTable).
		Where(sq.Eq{"login": login}).
		Suffix(")").
		ToSql()

	if err != nil {
		return false, err
	}

	var exists bool

	if err := ar.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (ar *AccountRepository) Create(ctx context.Context, account domain.Account) (saved domain.Account, err error) {
	ctx, span := ar.telemetry.StartRepositorySpan(ctx, "create", accountsTable, nil)
	defer span.End()

	op := tel.StartOperation(ctx, ar.telemetry, "create", accountsTable)
	defer func() { op.End(err) }()

	query := ar.db.QueryBuilder.Insert(accountsTable).
		Columns(insertColumns...).
		Values(
			account.ID.String(), account.Login, account.CredentialHash, account.Name,
			int16(account.Gender), account.Birthday, account.IsAdmin,
			account.CreatedAt, account.CreatedBy, account.ModifiedAt, account.ModifiedBy,
			account.RevokedAt, account.RevokedBy, account.Version,
		).
		Suffix("RETURNING " + strings.Join(accountColumns, ", "))

	sql, args, err := query.ToSql()

	if err != nil {
		return domain.Account{}, err
	}

	saved, err = collectOne(ar.db.Query(ctx, sql, args...))

	if database.IsUniqueViolation(err) {
		return domain.Account{}, fmt.Errorf("%w: login %q is already taken", domain.ErrConflict, account.Login)
	}

	return saved, err
}

// Update is a compare-and-swap on the version column.
func (ar *AccountRepository) Update(ctx context.Context, account domain.Account) (saved domain.Account, err error) {
	ctx, span := ar.telemetry.StartRepositorySpan(ctx, "update", accountsTable, nil)
	defer span.End()

	op := tel.StartOperation(ctx, ar.telemetry, "update", accountsTable)
	defer func() { op.End(err) }()

	query := ar.db.QueryBuilder.Update(accountsTable).
		SetMap(map[string]any{
			"login":           account.Login,
			"credential_hash": account.CredentialHash,
			"name":            account.Name,
			"gender":          int16(account.Gender),
			"birthday":        account.Birthday,
			"is_admin":        account.IsAdmin,
			"modified_at":     account.ModifiedAt,
			"modified_by":     account.ModifiedBy,
			"revoked_at":      account.RevokedAt,
			"revoked_by":      account.RevokedBy,
			"version":         account.Version + 1,
		}).
		Where(sq.Eq{"id": account.ID.String(), "version": account.Version}).
		Suffix("RETURNING " + strings.Join(accountColumns, ", "))

	sql, args, err := query.ToSql()

	if err != nil {
		return domain.Account{}, err
	}

	saved, err = collectOne(ar.db.Query(ctx, sql, args...))

	switch {
	case err == nil:
		return saved, nil
	case database.IsUniqueViolation(err):
		return domain.Account{}, fmt.Errorf("%w: login %q is already taken", domain.ErrConflict, account.Login)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Account{}, err
	}

	// No row matched: either the account is gone or its version moved on.
	if _, err := ar.getOne(ctx, ar.db, sq.Eq{"id": account.ID.String()}); err != nil {
		return domain.Account{}, err
	}

	return domain.Account{}, fmt.Errorf("%w: account %s was modified concurrently", domain.ErrConflict, account.ID)
}

func (ar *AccountRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := ar.telemetry.StartRepositorySpan(ctx, "delete", accountsTable, nil)
	defer span.End()

	op := tel.StartOperation(ctx, ar.telemetry, "delete", accountsTable)
	defer func() { op.End(ignoreNotFound(err)) }()

	sql, args, err := ar.db.QueryBuilder.Delete(accountsTable).
		Where(sq.Eq{"id": id.String()}).
		ToSql()

	if err != nil {
		return err
	}

	tag, err := ar.db.Exec(ctx, sql, args...)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s", domain.ErrNotFound, id)
	}

	return nil
}

func (ar *AccountRepository) List(ctx context.Context, filter domain.AccountFilter) (accounts []domain.Account, err error) {
	ctx, span := ar.telemetry.StartRepositorySpan(ctx, "list", accountsTable, nil)
	defer span.End()

	op := tel.StartOperation(ctx, ar.telemetry, "list", accountsTable)
	defer func() { op.End(err) }()

	query := ar.db.QueryBuilder.Select(accountColumns...).
		From(accountsTable).
		OrderBy("created_at ASC", "seq ASC")

	if filter.Revoked != nil {
		if *filter.Revoked {
			query = query.Where(sq.NotEq{"revoked_at": nil})
		} else {
			query = query.Where(sq.Eq{"revoked_at": nil})
		}
	}

	if filter.IsAdmin != nil {
		query = query.Where(sq.Eq{"is_admin": *filter.IsAdmin})
	}

	if filter.BornOnOrBefore != nil {
		query = query.Where(sq.And{
			sq.NotEq{"birthday": nil},
			sq.LtOrEq{"birthday": domain.DateOf(*filter.BornOnOrBefore)},
		})
	}

	sql, args, err := query.ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := ar.db.Query(ctx, sql, args...)

	if err != nil {
		return nil, err
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[accountRow])

	if err != nil {
		return nil, err
	}

	accounts = make([]domain.Account, 0, len(records))

	for _, record := range records {
		account, err := record.toDomain()

		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, nil
}

func (ar *AccountRepository) getOne(ctx context.Context, q queryer, where sq.Sqlizer) (domain.Account, error) {
	sql, args, err := ar.db.QueryBuilder.Select(accountColumns...).
		From(accountsTable).
		Where(where).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Account{}, err
	}

	return collectOne(q.Query(ctx, sql, args...))
}

func collectOne(rows pgx.Rows, err error) (domain.Account, error) {
	if err != nil {
		return domain.Account{}, err
	}

	record, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[accountRow])

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("%w: account", domain.ErrNotFound)
	}

	if err != nil {
		return domain.Account{}, err
	}

	return record.toDomain()
}

func ignoreNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}

	return err
}
