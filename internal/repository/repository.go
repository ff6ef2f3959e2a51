package repository

import (
	"context"
	"errors"

	"github.com/TooLazyToCreate/lap-counter/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

/* Уникальность токена на пользователя проверяет база, а не сервис:
 * два одновременных запроса не смогут создать два токена. */
type AccessTokenRepository interface {
	Create(ctx context.Context, token *model.AccessToken) (*model.AccessToken, error)
	List(ctx context.Context) ([]model.AccessTokenWithOwner, error)
}

type RunnerRepository interface {
	// List returns every runner with its lap count, ordered by number ascending.
	List(ctx context.Context) ([]model.RunnerWithLapCount, error)
	Get(ctx context.Context, number int64) (*model.RunnerWithLapCount, error)
	Create(ctx context.Context, runner *model.Runner) (*model.Runner, error)
	// Delete removes the runner and its laps and returns the removed record.
	Delete(ctx context.Context, number int64) (*model.Runner, error)
}

type LapRepository interface {
	Create(ctx context.Context, runnerNumber int64) (*model.Lap, error)
}
