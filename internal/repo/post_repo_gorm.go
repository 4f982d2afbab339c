package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"portfolio-api/internal/domain"
)

type PostRepo struct{ db *gorm.DB }

func NewPostRepo(db *gorm.DB) *PostRepo { return &PostRepo{db: db} }

const slugTaken = "A post with this slug already exists"

func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isDupKey(err) {
			return domain.Conflict(slugTaken)
		}
		return err
	}
	return nil
}

func (r *PostRepo) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	var p domain.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepo) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*domain.Post, error) {
	q := r.db.WithContext(ctx).Where("slug = ?", slug)
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var p domain.Post
	err := q.Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns newest first.
func (r *PostRepo) List(ctx context.Context, publishedOnly bool) ([]domain.Post, error) {
	q := r.db.WithContext(ctx).Model(&domain.Post{})
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	posts := []domain.Post{}
	err := q.Order("created_at DESC").Find(&posts).Error
	return posts, err
}

func (r *PostRepo) Update(ctx context.Context, p *domain.Post) error {
	err := r.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", p.ID).Updates(map[string]any{
		"title":      p.Title,
		"content":    p.Content,
		"excerpt":    p.Excerpt,
		"slug":       p.Slug,
		"published":  p.Published,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}).Error
	if err != nil && isDupKey(err) {
		return domain.Conflict(slugTaken)
	}
	return err
}

func (r *PostRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Post{})
	return res.RowsAffected, res.Error
}
