package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TooLazyToCreate/lap-counter/internal/model"
)

type userRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewUserRepository(logger *zap.Logger, db *sql.DB) UserRepository {
	return &userRepo{
		db:     db,
		logger: logger,
	}
}

const userColumns = `uuid, email, name, role, password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.UUID, &user.Email, &user.Name, &user.Role, &user.PasswordHash, scanTime(&user.CreatedAt))
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *userRepo) Create(ctx context.Context, user *model.User) (created *model.User, err error) {
	ctx, done := startOp(ctx, "users.Create")
	defer func() { done(err) }()

	created = &model.User{
		UUID:         user.UUID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now(),
	}
	if created.UUID == "" {
		created.UUID = uuid.NewString()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		created.UUID, created.Email, created.Name, string(created.Role), created.PasswordHash, created.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	r.logger.Debug("User created", zap.String("user_uuid", created.UUID))
	return created, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (user *model.User, err error) {
	ctx, done := startOp(ctx, "users.GetByEmail")
	defer func() { done(err) }()

	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

type accessTokenRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewAccessTokenRepository(logger *zap.Logger, db *sql.DB) AccessTokenRepository {
	return &accessTokenRepo{
		db:     db,
		logger: logger,
	}
}

func (r *accessTokenRepo) Create(ctx context.Context, token *model.AccessToken) (created *model.AccessToken, err error) {
	ctx, done := startOp(ctx, "accessTokens.Create")
	defer func() { done(err) }()

	created = &model.AccessToken{
		UUID:      uuid.NewString(),
		CreatedAt: now(),
		CreatedBy: token.CreatedBy,
	}
	expiresAt := nullable(token.ExpiresAt)
	if expiresAt.Valid {
		created.ExpiresAt = &expiresAt.Time
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO access_tokens (uuid, created_at, expires_at, created_by) VALUES ($1, $2, $3, $4)`,
		created.UUID, created.CreatedAt, expiresAt, created.CreatedBy)
	if err != nil {
		return nil, translate(err)
	}
	return created, nil
}

func (r *accessTokenRepo) List(ctx context.Context) (result []model.AccessTokenWithOwner, err error) {
	ctx, done := startOp(ctx, "accessTokens.List")
	defer func() { done(err) }()

	rows, err := r.db.QueryContext(ctx, `
		SELECT t.uuid, t.created_at, t.expires_at,
			u.uuid, u.email, u.name, u.role, u.password_hash, u.created_at
		FROM access_tokens t
		JOIN users u ON u.uuid = t.created_by
		ORDER BY t.created_at ASC, t.uuid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result = make([]model.AccessTokenWithOwner, 0, 10)
	for rows.Next() {
		var (
			item      model.AccessTokenWithOwner
			expiresAt nullTime
		)
		err = rows.Scan(&item.UUID, scanTime(&item.CreatedAt), expiresAt.scanner(),
			&item.CreatedBy.UUID, &item.CreatedBy.Email, &item.CreatedBy.Name, &item.CreatedBy.Role,
			&item.CreatedBy.PasswordHash, scanTime(&item.CreatedBy.CreatedAt))
		if err != nil {
			return nil, err
		}
		item.ExpiresAt = expiresAt.ptr()
		result = append(result, item)
	}
	return result, rows.Err()
}

type runnerRepo struct {
	db     *sql.DB
	tx     TxFunc
	logger *zap.Logger
}

func NewRunnerRepository(logger *zap.Logger, db *sql.DB) RunnerRepository {
	return &runnerRepo{
		db:     db,
		tx:     UseDB(db),
		logger: logger,
	}
}

const runnerWithLapsQuery = `
	SELECT r.number, r.first_name, r.last_name, r.grade, r.house, r.created_at, COUNT(l.id)
	FROM runners r
	LEFT JOIN laps l ON l.runner_number = r.number`

const runnerGroupBy = `
	GROUP BY r.number, r.first_name, r.last_name, r.grade, r.house, r.created_at`

func scanRunnerWithLaps(row interface{ Scan(...any) error }) (*model.RunnerWithLapCount, error) {
	runner := &model.RunnerWithLapCount{}
	err := row.Scan(&runner.Number, &runner.FirstName, &runner.LastName, &runner.Grade, &runner.House,
		scanTime(&runner.CreatedAt), &runner.Count.Laps)
	if err != nil {
		return nil, translate(err)
	}
	return runner, nil
}

func (r *runnerRepo) List(ctx context.Context) (result []model.RunnerWithLapCount, err error) {
	ctx, done := startOp(ctx, "runners.List")
	defer func() { done(err) }()

	rows, err := r.db.QueryContext(ctx, runnerWithLapsQuery+runnerGroupBy+` ORDER BY r.number ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result = make([]model.RunnerWithLapCount, 0, 32)
	for rows.Next() {
		runner, err := scanRunnerWithLaps(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *runner)
	}
	return result, rows.Err()
}

func (r *runnerRepo) Get(ctx context.Context, number int64) (runner *model.RunnerWithLapCount, err error) {
	ctx, done := startOp(ctx, "runners.Get")
	defer func() { done(err) }()

	return scanRunnerWithLaps(r.db.QueryRowContext(ctx,
		runnerWithLapsQuery+` WHERE r.number = $1`+runnerGroupBy, number))
}

func (r *runnerRepo) Create(ctx context.Context, runner *model.Runner) (created *model.Runner, err error) {
	ctx, done := startOp(ctx, "runners.Create")
	defer func() { done(err) }()

	created = &model.Runner{
		Number:    runner.Number,
		FirstName: runner.FirstName,
		LastName:  runner.LastName,
		Grade:     runner.Grade,
		House:     runner.House,
		CreatedAt: now(),
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO runners (number, first_name, last_name, grade, house, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		created.Number, created.FirstName, created.LastName, created.Grade, created.House, created.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return created, nil
}

func (r *runnerRepo) Delete(ctx context.Context, number int64) (deleted *model.Runner, err error) {
	ctx, done := startOp(ctx, "runners.Delete")
	defer func() { done(err) }()

	err = r.tx(ctx, TxMulti|TxMutation, func(q DBTX) error {
		runner := &model.Runner{}
		err := q.QueryRowContext(ctx,
			`SELECT number, first_name, last_name, grade, house, created_at FROM runners WHERE number = $1`, number).
			Scan(&runner.Number, &runner.FirstName, &runner.LastName, &runner.Grade, &runner.House, scanTime(&runner.CreatedAt))
		if err != nil {
			return translate(err)
		}
		if _, err = q.ExecContext(ctx, `DELETE FROM laps WHERE runner_number = $1`, number); err != nil {
			return fmt.Errorf("delete laps: %w", err)
		}
		if _, err = q.ExecContext(ctx, `DELETE FROM runners WHERE number = $1`, number); err != nil {
			return fmt.Errorf("delete runner: %w", err)
		}
		deleted = runner
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Runner deleted", zap.Int64("number", number))
	return deleted, nil
}

type lapRepo struct {
	tx     TxFunc
	logger *zap.Logger
}

func NewLapRepository(logger *zap.Logger, db *sql.DB) LapRepository {
	return &lapRepo{
		tx:     UseDB(db),
		logger: logger,
	}
}

func (r *lapRepo) Create(ctx context.Context, runnerNumber int64) (lap *model.Lap, err error) {
	ctx, done := startOp(ctx, "laps.Create")
	defer func() { done(err) }()

	err = r.tx(ctx, TxMulti|TxMutation, func(q DBTX) error {
		var exists int
		err := q.QueryRowContext(ctx, `SELECT 1 FROM runners WHERE number = $1`, runnerNumber).Scan(&exists)
		if err != nil {
			return translate(err)
		}
		created := &model.Lap{
			ID:           uuid.NewString(),
			RunnerNumber: runnerNumber,
			CreatedAt:    now(),
		}
		_, err = q.ExecContext(ctx, `INSERT INTO laps (id, runner_number, created_at) VALUES ($1, $2, $3)`,
			created.ID, created.RunnerNumber, created.CreatedAt)
		if err != nil {
			return translate(err)
		}
		lap = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lap, nil
}
