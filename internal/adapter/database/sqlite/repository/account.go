package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"accountapp/internal/adapter/database/sqlite"
	"accountapp/internal/core/domain"
	"accountapp/internal/core/port"
	tel "accountapp/internal/core/telemetry"
)

const accountsTable = "accounts"

var accountColumns = []string{
	"id", "login", "credential_hash", "name", "gender", "birthday", "is_admin",
	"created_at", "created_by", "modified_at", "modified_by",
	"revoked_at", "revoked_by", "version",
}

type accountRecord struct {
	ID             string     `db:"id"`
	Login          string     `db:"login"`
	CredentialHash string     `db:"credential_hash"`
	Name           string     `db:"name"`
	Gender         int64      `db:"gender"`
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

func (r accountRecord) toDomain() (domain.Account, error) {
	id, err := uuid.Parse(r.ID)

	if err != nil {
		return domain.Account{}, fmt.Errorf("invalid account id %q: %w", r.ID, err)
	}

	return domain.Account{
		ID:             id,
		Login:          r.Login,
		CredentialHash: r.CredentialHash,
		Name:           r.Name,
		Gender:         domain.Gender(r.Gender),
		Birthday:       r.Birthday,
		IsAdmin:        r.IsAdmin,
		CreatedAt:      r.CreatedAt,
		CreatedBy:      r.CreatedBy,
		ModifiedAt:     r.ModifiedAt,
		ModifiedBy:     r.ModifiedBy,
		RevokedAt:      r.RevokedAt,
		RevokedBy:      r.RevokedBy,
		Version:        r.Version,
	}, nil
}

type AccountRepository struct {
	db        *sqlite.DB
	scanner   *sqlite.Scanner
	telemetry port.Telemetry
}

func NewAccountRepository(db *sqlite.DB, telemetry port.Telemetry) port.AccountRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &AccountRepository{
		db:        db,
		scanner:   sqlite.NewScanner(),
		telemetry: telemetry,
	}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
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
	query := ar.db.QueryBuilder.Select("1").
		From(accountsTable).
		Where(sq.Eq{"login": login}).
		Limit(1)

	stmt, args, err := query.ToSql()

	if err != nil {
		return false, err
	}

	var one int

	err = ar.db.QueryRowContext(ctx, stmt, args...).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func (ar *AccountRepository) Create(ctx context.Context, account domain.Account) (saved domain.Account, err error) {
	ctx, span := ar.telemetry.StartRepositorySpan(ctx, "create", accountsTable, nil)
	defer span.End()

	op := tel.StartOperation(ctx, ar.telemetry, "create", accountsTable)
	defer func() { op.End(err) }()

	tx, err := ar.db.BeginTx(ctx, nil)

	if err != nil {
		return domain.Account{}, err
	}

	defer tx.Rollback()

	query := ar.db.QueryBuilder.Insert(accountsTable).
		Columns(accountColumns...).
		Values(
			account.ID.String(), account.Login, account.CredentialHash, account.Name,
			int64(account.Gender), account.Birthday, account.IsAdmin,
			account.CreatedAt, account.CreatedBy, account.ModifiedAt, account.ModifiedBy,
			account.RevokedAt, account.RevokedBy, account.Version,
		)

	stmt, args, err := query.ToSql()

	if err != nil {
		return domain.Account{}, err
	}

	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		if sqlite.IsUniqueViolation(err) {
			return domain.Account{}, fmt.Errorf("%w: login %q is already taken", domain.ErrConflict, account.Login)
		}

		return domain.Account{}, err
	}

	saved, err = ar.getOne(ctx, tx, sq.Eq{"id": account.ID.String()})

	if err != nil {
		return domain.Account{}, err
	}

	return saved, tx.Commit()
}

// Update is a compare-and-swap on the version column.
func (ar *AccountRepository) Update(ctx context.Context, account domain.Account) (saved domain.Account, err error) {
	ctx, span := ar.telemetry.StartRepositorySpan(ctx, "update", accountsTable, nil)
	defer span.End()

	op := tel.StartOperation(ctx, ar.telemetry, "update", accountsTable)
	defer func() { op.End(err) }()

	tx, err := ar.db.BeginTx(ctx, nil)

	if err != nil {
		return domain.Account{}, err
	}

	defer tx.Rollback()

	query := ar.db.QueryBuilder.Update(accountsTable).
		SetMap(map[string]any{
			"login":           account.Login,
			"credential_hash": account.CredentialHash,
			"name":            account.Name,
			"gender":          int64(account.Gender),
			"birthday":        account.Birthday,
			"is_admin":        account.IsAdmin,
			"modified_at":     account.ModifiedAt,
			"modified_by":     account.ModifiedBy,
			"revoked_at":      account.RevokedAt,
			"revoked_by":      account.RevokedBy,
			"version":         account.Version + 1,
		}).
		Where(sq.Eq{"id": account.ID.String(), "version": account.Version})

	stmt, args, err := query.ToSql()

	if err != nil {
		return domain.Account{}, err
	}

	result, err := tx.ExecContext(ctx, stmt, args...)

	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return domain.Account{}, fmt.Errorf("%w: login %q is already taken", domain.ErrConflict, account.Login)
		}

		return domain.Account{}, err
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return domain.Account{}, err
	}

	saved, err = ar.getOne(ctx, tx, sq.Eq{"id": account.ID.String()})

	if err != nil {
		return domain.Account{}, err
	}

	if rowsAffected == 0 {
		return domain.Account{}, fmt.Errorf("%w: account %s was modified concurrently", domain.ErrConflict, account.ID)
	}

	return saved, tx.Commit()
}

func (ar *AccountRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := ar.telemetry.StartRepositorySpan(ctx, "delete", accountsTable, nil)
	defer span.End()

	op := tel.StartOperation(ctx, ar.telemetry, "delete", accountsTable)
	defer func() { op.End(ignoreNotFound(err)) }()

	stmt, args, err := ar.db.QueryBuilder.Delete(accountsTable).
		Where(sq.Eq{"id": id.String()}).
		ToSql()

	if err != nil {
		return err
	}

	result, err := ar.db.ExecContext(ctx, stmt, args...)

	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return err
	}

	if rowsAffected == 0 {
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

	stmt, args, err := query.ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := ar.db.QueryContext(ctx, stmt, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var records []accountRecord

	if err := ar.scanner.ScanRowsToSlice(rows, &records); err != nil {
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
	stmt, args, err := ar.db.QueryBuilder.Select(accountColumns...).
		From(accountsTable).
		Where(where).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Account{}, err
	}

	rows, err := q.QueryContext(ctx, stmt, args...)

	if err != nil {
		return domain.Account{}, err
	}

	defer rows.Close()

	var record accountRecord

	if err := ar.scanner.ScanRowToStruct(rows, &record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, fmt.Errorf("%w: account", domain.ErrNotFound)
		}

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
