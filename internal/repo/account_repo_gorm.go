package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portfolio-api/internal/domain"
)

// otherAdminRemains is true while more than one admin exists. The count sits in a derived
// table so mysql accepts it inside an UPDATE or DELETE of the same table.
const otherAdminRemains = "(SELECT n FROM (SELECT COUNT(*) AS n FROM accounts WHERE role = ?) AS admins) > 1"

type AccountRepo struct{ db *gorm.DB }

func NewAccountRepo(db *gorm.DB) *AccountRepo { return &AccountRepo{db: db} }

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if isDupKey(err) {
			return domain.Conflict("Username or email already exists")
		}
		return err
	}
	return nil
}

func (r *AccountRepo) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *AccountRepo) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *AccountRepo) findOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var a domain.Account
	err := r.db.WithContext(ctx).Where(query, arg).Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List never selects the password hash.
func (r *AccountRepo) List(ctx context.Context) ([]domain.Account, error) {
	accounts := []domain.Account{}
	err := r.db.WithContext(ctx).
		Omit("password_hash").
		Order("created_at ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *AccountRepo) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Account{}).Where("role = ?", role).Count(&n).Error
	return n, err
}

func (r *AccountRepo) Update(ctx context.Context, a *domain.Account) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.Account
		err := forUpdate(tx).Where("id = ?", a.ID).Take(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFound("User not found")
		}
		if err != nil {
			return err
		}
		demote := cur.Role == domain.RoleAdmin && a.Role != domain.RoleAdmin
		if demote {
			n, err := lockAdmins(tx)
			if err != nil {
				return err
			}
			if n <= 1 {
				return domain.LastAdmin()
			}
		}
		q := tx.Model(&domain.Account{}).Where("id = ?", a.ID)
		if demote {
			q = q.Where(otherAdminRemains, domain.RoleAdmin)
		}
		res := q.Updates(map[string]any{
			"username": a.Username,
			"email":    a.Email,
			"role":     a.Role,
		})
		if res.Error != nil {
			if isDupKey(res.Error) {
				return domain.Conflict("Username or email already exists")
			}
			return res.Error
		}
		if demote && res.RowsAffected == 0 {
			return domain.LastAdmin()
		}
		return nil
	})
}

func (r *AccountRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("User not found")
	}
	return nil
}

// Delete locks the admin rows, then deletes with the "another admin remains" condition in
// the statement itself, so two concurrent deletes cannot both pass the check.
func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockAdmins(tx); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).
			Where("(role <> ? OR "+otherAdminRemains+")", domain.RoleAdmin, domain.RoleAdmin).
			Delete(&domain.Account{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		var n int64
		if err := tx.Model(&domain.Account{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.NotFound("User not found")
		}
		return domain.LastAdmin()
	})
}

// lockAdmins takes row locks on every admin and returns how many there are.
func lockAdmins(tx *gorm.DB) (int, error) {
	var ids []string
	err := forUpdate(tx).Model(&domain.Account{}).
		Where("role = ?", domain.RoleAdmin).
		Pluck("id", &ids).Error
	return len(ids), err
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect has it. sqlite has no row locks,
// the guarded statements keep the invariant there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
