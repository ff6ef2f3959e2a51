package model

import "time"

type Role string

const (
	RoleHelper     Role = "helper"
	RoleSuperadmin Role = "superadmin"
)

type User struct {
	UUID         string    `json:"uuid"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

/* Токен доступа принадлежит ровно одному пользователю,
 * второй токен для того же пользователя база не пропустит (UNIQUE created_by). */
type AccessToken struct {
	UUID      string     `json:"uuid"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt"`
	CreatedBy string     `json:"createdByUuid"`
}

// AccessTokenWithOwner is the token merged with the full record of its owner.
type AccessTokenWithOwner struct {
	UUID      string     `json:"uuid"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt"`
	CreatedBy User       `json:"createdBy"`
}

func (t AccessToken) WithOwner(owner User) AccessTokenWithOwner {
	return AccessTokenWithOwner{
		UUID:      t.UUID,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
		CreatedBy: owner,
	}
}

type Runner struct {
	Number    int64     `json:"number"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Grade     string    `json:"grade"`
	House     string    `json:"house"`
	CreatedAt time.Time `json:"createdAt"`
}

type LapCount struct {
	Laps int64 `json:"laps"`
}

type RunnerWithLapCount struct {
	Runner
	Count LapCount `json:"_count"`
}

type Lap struct {
	ID           string    `json:"id"`
	RunnerNumber int64     `json:"runnerNumber"`
	CreatedAt    time.Time `json:"createdAt"`
}
