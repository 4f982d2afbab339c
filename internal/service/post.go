package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfolio-api/internal/core/cache"
	"portfolio-api/internal/domain"
	"portfolio-api/pkg/utils"
)

var slugRe = regexp.MustCompile(`^[A-Za-z0-9]+([-_][A-Za-z0-9]+)*$`)

// maxSlugLen matches the width of posts.slug.
const maxSlugLen = 191

const (
	keyPublished  = "posts:published"
	keySlugPrefix = "posts:slug:"
)

// PostInput carries every writable post field. Nil timestamps default to now,
// except CreatedAt on update which keeps the stored value.
type PostInput struct {
	Title     string
	Content   string
	Excerpt   string
	Slug      string
	Published bool
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (in *PostInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	if in.Title == "" || strings.TrimSpace(in.Content) == "" || in.Slug == "" {
		return domain.Validation("Title, content, and slug are required")
	}
	if len(in.Slug) > maxSlugLen {
		return domain.Validation("Slug must be at most 191 characters")
	}
	if !slugRe.MatchString(in.Slug) {
		return domain.Validation("Slug may only contain letters, numbers, hyphens and underscores")
	}
	return nil
}

// PostService implements the public and privileged post views. The public reads go
// through the redis cache when one is configured.
type PostService struct {
	repo  domain.PostRepository
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
	Now   func() time.Time
}

// NewPostService accepts a nil cache or a non-positive ttl to disable caching.
func NewPostService(repo domain.PostRepository, c *cache.Cache, ttl time.Duration, l *zap.Logger) *PostService {
	if l == nil {
		l = zap.NewNop()
	}
	if ttl <= 0 {
		c = nil
	}
	return &PostService{repo: repo, cache: c, ttl: ttl, log: l, Now: time.Now}
}

func (s *PostService) ListPublished(ctx context.Context) ([]domain.Post, error) {
	load := func(ctx context.Context) (*[]domain.Post, error) {
		posts, err := s.repo.List(ctx, true)
		if err != nil {
			return nil, err
		}
		return &posts, nil
	}
	var (
		posts *[]domain.Post
		err   error
	)
	if s.cache != nil {
		posts, err = cache.GetOrLoadJSON(s.cache, ctx, keyPublished, s.ttl, load)
	} else {
		posts, err = load(ctx)
	}
	if err != nil {
		return nil, domain.Storage("Failed to fetch posts", err)
	}
	if posts == nil || *posts == nil {
		return []domain.Post{}, nil
	}
	return *posts, nil
}

// GetPublishedBySlug answers malformed slugs with NotFound before touching the cache or
// the database.
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	if len(slug) > maxSlugLen || !slugRe.MatchString(slug) {
		return nil, domain.NotFound("Post not found")
	}
	load := func(ctx context.Context) (*domain.Post, error) { return s.repo.FindBySlug(ctx, slug, true) }
	var (
		p   *domain.Post
		err error
	)
	if s.cache != nil {
		p, err = cache.GetOrLoadJSON(s.cache, ctx, keySlugPrefix+slug, s.ttl, load)
	} else {
		p, err = load(ctx)
	}
	if err != nil {
		return nil, domain.Storage("Failed to fetch post", err)
	}
	if p == nil {
		return nil, domain.NotFound("Post not found")
	}
	return p, nil
}

func (s *PostService) ListAll(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, domain.Storage("Failed to fetch posts", err)
	}
	return posts, nil
}

func (s *PostService) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Storage("Failed to fetch post", err)
	}
	if p == nil {
		return nil, domain.NotFound("Post not found")
	}
	return p, nil
}

func (s *PostService) ensureSlugFree(ctx context.Context, selfID, slug string) error {
	other, err := s.repo.FindBySlug(ctx, slug, false)
	if err != nil {
		return domain.Storage("Failed to check slug", err)
	}
	if other != nil && other.ID != selfID {
		return domain.Conflict("A post with this slug already exists")
	}
	return nil
}

func (s *PostService) Create(ctx context.Context, in PostInput) (string, error) {
	if err := in.normalize(); err != nil {
		return "", err
	}
	if err := s.ensureSlugFree(ctx, "", in.Slug); err != nil {
		return "", err
	}
	now := s.Now().UTC()
	p := &domain.Post{
		ID:        utils.NewID(),
		Title:     in.Title,
		Content:   in.Content,
		Excerpt:   in.Excerpt,
		Slug:      in.Slug,
		Published: in.Published,
		CreatedAt: orNow(in.CreatedAt, now),
		UpdatedAt: orNow(in.UpdatedAt, now),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return "", domain.Storage("Failed to create post", err)
	}
	s.invalidate(ctx, p.Slug)
	return p.ID, nil
}

func (s *PostService) Update(ctx context.Context, id string, in PostInput) error {
	if err := in.normalize(); err != nil {
		return err
	}
	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Storage("Failed to fetch post", err)
	}
	if cur == nil {
		return domain.NotFound("Post not found")
	}
	if in.Slug != cur.Slug {
		if err := s.ensureSlugFree(ctx, id, in.Slug); err != nil {
			return err
		}
	}
	now := s.Now().UTC()
	next := &domain.Post{
		ID:        id,
		Title:     in.Title,
		Content:   in.Content,
		Excerpt:   in.Excerpt,
		Slug:      in.Slug,
		Published: in.Published,
		CreatedAt: orNow(in.CreatedAt, cur.CreatedAt),
		UpdatedAt: orNow(in.UpdatedAt, now),
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return domain.Storage("Failed to update post", err)
	}
	s.invalidate(ctx, cur.Slug, next.Slug)
	return nil
}

// Delete succeeds whether or not the post exists.
func (s *PostService) Delete(ctx context.Context, id string) error {
	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Storage("Failed to fetch post", err)
	}
	if cur == nil {
		return nil
	}
	if _, err := s.repo.Delete(ctx, id); err != nil {
		return domain.Storage("Failed to delete post", err)
	}
	s.invalidate(ctx, cur.Slug)
	return nil
}

func (s *PostService) invalidate(ctx context.Context, slugs ...string) {
	if s.cache == nil {
		return
	}
	keys := []string{keyPublished}
	for _, sl := range slugs {
		keys = append(keys, keySlugPrefix+sl)
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("post cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func orNow(t *time.Time, def time.Time) time.Time {
	if t == nil || t.IsZero() {
		return def
	}
	return t.UTC()
}
