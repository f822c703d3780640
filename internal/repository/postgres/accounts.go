package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ssuresh1228/finapp/internal/core/domain"
	"github.com/ssuresh1228/finapp/internal/repository"
)

const accountsTable = "accounts"

var accountColumns = []string{
	"id",
	"email",
	"username",
	"full_name",
	"phone_number",
	"password_hash",
	"password_algo",
	"is_verified",
	"is_active",
	"created_at",
	"updated_at",
	"password_changed_at",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
// Uniqueness of email and username is enforced by unique indexes, so a
// concurrent insert of the same identity fails atomically with
// repository.ErrDuplicate.
type AccountRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account repository.
func NewAccountRepository(exec pgExecutor) *AccountRepository {
	return &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	if tx == nil {
		return r
	}
	return &AccountRepository{exec: tx, builder: r.builder}
}

// Create inserts a new account row.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	stmt, args, err := r.builder.Insert(accountsTable).
		Columns(accountColumns...).
		Values(
			account.ID,
			account.Email,
			account.Username,
			account.FullName,
			nullable(account.PhoneNumber),
			account.PasswordHash,
			account.PasswordAlgo,
			account.IsVerified,
			account.IsActive,
			account.CreatedAt,
			account.UpdatedAt,
			account.PasswordChangedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves an account by its normalised email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"email": domain.NormalizeEmail(email)})
}

// GetByUsername retrieves an account by its username.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"username": strings.TrimSpace(username)})
}

// Update saves the mutable fields of an existing account.
func (r *AccountRepository) Update(ctx context.Context, account domain.Account) error {
	stmt, args, err := r.builder.Update(accountsTable).
		Set("email", account.Email).
		Set("username", account.Username).
		Set("full_name", account.FullName).
		Set("phone_number", nullable(account.PhoneNumber)).
		Set("password_hash", account.PasswordHash).
		Set("password_algo", account.PasswordAlgo).
		Set("is_verified", account.IsVerified).
		Set("is_active", account.IsActive).
		Set("updated_at", account.UpdatedAt).
		Set("password_changed_at", account.PasswordChangedAt).
		Where(squirrel.Eq{"id": account.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update account sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("update account: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the account row.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete(accountsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete account sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) getOne(ctx context.Context, where squirrel.Eq) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From(accountsTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	var (
		account domain.Account
		phone   sql.NullString
	)
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&account.ID,
		&account.Email,
		&account.Username,
		&account.FullName,
		&phone,
		&account.PasswordHash,
		&account.PasswordAlgo,
		&account.IsVerified,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.PasswordChangedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	if phone.Valid {
		account.PhoneNumber = phone.String
	}
	return &account, nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
