// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the caller of a protected operation: who they are and the role
// loaded for them on this request.
type Actor struct {
	ID   primitive.ObjectID
	Name string
	Role models.Role
}

// Can reports whether the actor holds capability c.
func (a Actor) Can(c Capability) bool {
	return CanPerform(a.Role, c)
}

// UserCtx returns the user's role, name, Mongo ObjectID, and a found flag.
// If no user is present in context, the role is invalid, or the user ID is
// malformed, it returns "", "", NilObjectID, false. Callers can trust that
// ok=true means an authenticated user with a valid role and ObjectID.
func UserCtx(r *http.Request) (role models.Role, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session; fail closed.
		return "", "", primitive.NilObjectID, false
	}
	role, valid := models.ParseRole(user.Role)
	if !valid {
		return "", "", primitive.NilObjectID, false
	}
	return role, user.Name, userID, true
}

// ActorFrom builds the Actor for the current request.
func ActorFrom(r *http.Request) (Actor, bool) {
	role, name, id, ok := UserCtx(r)
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: id, Name: name, Role: role}, true
}

// Can reports whether the current request's user holds capability c.
// Returns false if no user is signed in.
func Can(r *http.Request, c Capability) bool {
	a, ok := ActorFrom(r)
	return ok && a.Can(c)
}

// Require wraps next so that only users holding c reach it. It delegates
// the signed-out and forbidden responses to the session manager's role gate.
func Require(sm *auth.SessionManager, c Capability) func(http.Handler) http.Handler {
	roles := PermittedRoles(c)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return sm.RequireRole(names...)
}
