package service

import "github.com/noah-isme/hr-onboarding-api/internal/models"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   string
	Role models.UserRole
}

// ActorFromClaims converts validated JWT claims into an Actor.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{ID: claims.UserID, Role: claims.Role}
}

// IsHR reports whether the actor has the HR role.
func (a Actor) IsHR() bool {
	return a.Role == models.RoleHR
}

// CanAccessEmployee reports whether the actor may see employeeID's records.
func (a Actor) CanAccessEmployee(employeeID string) bool {
	return a.IsHR() || (a.ID != "" && a.ID == employeeID)
}
