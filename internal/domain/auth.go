package domain

// UserRole is the caller's role within a league
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleFranchise UserRole = "franchise"
)

// AuthClaims are the verified claims carried by a request token. Franchise
// tokens are scoped to one franchise, admin tokens to a whole league.
type AuthClaims struct {
	Subject     string   `json:"subject"`
	LeagueID    string   `json:"league_id"`
	FranchiseID string   `json:"franchise_id,omitempty"`
	Role        UserRole `json:"role"`
}
