package port

import (
	"context"

	"github.com/ssuresh1228/finapp/internal/core/domain"
)

// AccountRepository exposes persistence behaviour for accounts. Lookups that
// miss return repository.ErrNotFound; Create returns repository.ErrDuplicate
// when the email or username unique index rejects the row.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	Update(ctx context.Context, account domain.Account) error
	Delete(ctx context.Context, id string) error
}
