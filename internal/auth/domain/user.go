package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int64
	UUID         string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CartUUID     string
	VerifiedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) Verified() bool {
	return u.VerifiedAt != nil
}
