package domain

import "time"

// User is an account identified by matricula (enrollment number).
// PasswordHash stays inside the service and storage layers; transport
// responses never carry it.
type User struct {
	ID           string
	Matricula    string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	PhotoURL     string
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
}
