package auth

import "portfolio-api/internal/domain"

// Gates take the principal resolved for a request, nil when there is none.

func Authenticated(p *domain.Principal) error {
	if p == nil {
		return domain.Unauthenticated("Not authenticated")
	}
	return nil
}

func Admin(p *domain.Principal) error {
	if err := Authenticated(p); err != nil {
		return err
	}
	if p.Role != domain.RoleAdmin {
		return domain.Forbidden("Admin access required")
	}
	return nil
}

func BloggerOrAdmin(p *domain.Principal) error {
	if err := Authenticated(p); err != nil {
		return err
	}
	if !p.Role.CanManagePosts() {
		return domain.Forbidden("Blogger or admin access required")
	}
	return nil
}
