// Package identity maps a signed-in principal to a club profile: it picks
// the default role from the email domain and creates the profile on first
// sign-in.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

// Default email domains for the district.
const (
	DefaultStudentDomain = "madisonstudent.org"
	DefaultStaffDomain   = "madison.k12.in.us"
)

// Domains holds the email domains that grant a non-guest default role.
type Domains struct {
	Student string
	Staff   string
}

// DefaultDomains returns the district's domains.
func DefaultDomains() Domains {
	return Domains{Student: DefaultStudentDomain, Staff: DefaultStaffDomain}
}

// Normalized lower-cases both domains and strips a leading "@".
func (d Domains) Normalized() Domains {
	clean := func(s string) string {
		return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "@")
	}
	return Domains{Student: clean(d.Student), Staff: clean(d.Staff)}
}

// Validate reports a configuration error for empty or identical domains.
func (d Domains) Validate() error {
	n := d.Normalized()
	if n.Student == "" || n.Staff == "" {
		return errors.New("student and staff email domains are required")
	}
	if n.Student == n.Staff {
		return fmt.Errorf("student and staff email domains must differ (both %q)", n.Student)
	}
	if strings.Contains(n.Student, "@") || strings.Contains(n.Staff, "@") {
		return errors.New("email domains must not contain '@'")
	}
	return nil
}

// ResolveDefaultRole returns the role a brand-new profile gets for email.
// It is total: malformed or foreign addresses resolve to guest.
func (d Domains) ResolveDefaultRole(email string) models.Role {
	n := d.Normalized()
	switch dom := normalize.Domain(email); {
	case dom == "":
		return models.RoleGuest
	case dom == n.Student:
		return models.RoleStudent
	case dom == n.Staff:
		return models.RoleStaff
	default:
		return models.RoleGuest
	}
}

// Principal is the identity provider's view of a signed-in person.
type Principal struct {
	ID       string
	Email    string
	Name     string
	PhotoURL string
}

// Resolver reads and creates profiles for principals.
type Resolver struct {
	profiles userstore.Profiles
	domains  Domains
	log      *zap.Logger
}

func NewResolver(profiles userstore.Profiles, domains Domains, logger *zap.Logger) *Resolver {
	return &Resolver{profiles: profiles, domains: domains.Normalized(), log: logger}
}

// ResolveDefaultRole applies the resolver's configured domains.
func (r *Resolver) ResolveDefaultRole(email string) models.Role {
	return r.domains.ResolveDefaultRole(email)
}

// GetRole returns the persisted role for principalID, or models.ErrNotFound.
func (r *Resolver) GetRole(ctx context.Context, principalID string) (models.Role, error) {
	u, err := r.profiles.GetByPrincipalID(ctx, principalID)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// EnsureProfile returns the principal's profile, creating it with the
// domain-derived default role when none exists. An existing profile is
// returned untouched; its role always wins over a freshly resolved one.
func (r *Resolver) EnsureProfile(ctx context.Context, p Principal) (*models.User, bool, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, false, fmt.Errorf("%w: principal id is required", models.ErrInvalidInput)
	}

	u, err := r.profiles.GetByPrincipalID(ctx, p.ID)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}

	role := r.ResolveDefaultRole(p.Email)
	u, created, err := r.profiles.CreateIfAbsent(ctx, models.User{
		PrincipalID: p.ID,
		Email:       p.Email,
		DisplayName: p.Name,
		PhotoURL:    p.PhotoURL,
		Role:        role,
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		r.log.Info("profile created",
			zap.String("user_id", u.ID.Hex()),
			zap.String("role", string(u.Role)))
	}
	return u, created, nil
}
