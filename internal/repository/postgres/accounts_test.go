package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ssuresh1228/finapp/internal/core/domain"
	"github.com/ssuresh1228/finapp/internal/repository"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *AccountRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewAccountRepository(mock)
}

func sampleAccount() domain.Account {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.Account{
		ID:                "acc-1",
		Email:             "jane@example.com",
		Username:          "jane",
		FullName:          "Jane Doe",
		PasswordHash:      "argon2id$hash",
		PasswordAlgo:      "argon2id",
		IsVerified:        true,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
		PasswordChangedAt: now,
	}
}

func TestAccountRepository_Create(t *testing.T) {
	mock, repo := newMockRepo(t)
	account := sampleAccount()

	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs(
			account.ID,
			account.Email,
			account.Username,
			account.FullName,
			nil,
			account.PasswordHash,
			account.PasswordAlgo,
			true,
			true,
			account.CreatedAt,
			account.UpdatedAt,
			account.PasswordChangedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_CreateDuplicate(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO accounts`).
		WithAnyArgs().
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_email_key"})

	err := repo.Create(context.Background(), sampleAccount())
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	mock, repo := newMockRepo(t)
	account := sampleAccount()

	rows := pgxmock.NewRows(accountColumns).AddRow(
		account.ID, account.Email, account.Username, account.FullName, "5551234567",
		account.PasswordHash, account.PasswordAlgo, true, true,
		account.CreatedAt, account.UpdatedAt, account.PasswordChangedAt,
	)
	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email = \$1 LIMIT 1`).
		WithArgs("jane@example.com").
		WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "  Jane@Example.com ")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if got.ID != account.ID || got.PhoneNumber != "5551234567" || !got.IsVerified {
		t.Fatalf("unexpected account: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(accountColumns))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountRepository_GetByUsername(t *testing.T) {
	mock, repo := newMockRepo(t)
	account := sampleAccount()

	rows := pgxmock.NewRows(accountColumns).AddRow(
		account.ID, account.Email, account.Username, account.FullName, nil,
		account.PasswordHash, account.PasswordAlgo, true, true,
		account.CreatedAt, account.UpdatedAt, account.PasswordChangedAt,
	)
	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE username = \$1 LIMIT 1`).
		WithArgs(account.Username).
		WillReturnRows(rows)

	got, err := repo.GetByUsername(context.Background(), " "+account.Username+" ")
	if err != nil {
		t.Fatalf("GetByUsername returned error: %v", err)
	}
	if got.ID != account.ID || got.PhoneNumber != "" {
		t.Fatalf("unexpected account: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_Update(t *testing.T) {
	mock, repo := newMockRepo(t)
	account := sampleAccount()
	account.PhoneNumber = "5559876543"

	mock.ExpectExec(`UPDATE accounts SET`).
		WithArgs(
			account.Email,
			account.Username,
			account.FullName,
			account.PhoneNumber,
			account.PasswordHash,
			account.PasswordAlgo,
			true,
			true,
			account.UpdatedAt,
			account.PasswordChangedAt,
			account.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.Update(context.Background(), account); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_UpdateMissing(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec(`UPDATE accounts SET`).
		WithAnyArgs().
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.Update(context.Background(), sampleAccount()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_Delete(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM accounts WHERE id = \$1`).
		WithArgs("acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM accounts WHERE id = \$1`).
		WithArgs("acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "acc-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(context.Background(), "acc-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestAccountRepository_TransportError(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM accounts`).
		WithAnyArgs().
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByEmail(context.Background(), "jane@example.com")
	if err == nil || errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
