package model

// Role of an authenticated actor. Identity and credential management live
// outside this service; the gateway forwards the resolved identity in
// trusted headers.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
