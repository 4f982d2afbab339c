package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-api/internal/core/cache"
	"portfolio-api/internal/domain"
	"portfolio-api/internal/repo"
)

func TestPost_PublishedVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.posts.Create(ctx, PostInput{Title: "Hi", Content: "<p>hi</p>", Slug: "hi"})
	require.NoError(t, err)

	pub, err := f.posts.ListPublished(ctx)
	require.NoError(t, err)
	assert.Empty(t, pub)
	assert.NotNil(t, pub)

	_, err = f.posts.GetPublishedBySlug(ctx, "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := f.posts.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)

	got, err := f.posts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.Published)
}

func TestPost_CreateDefaultsAndConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.posts.Create(ctx, PostInput{Title: "Hi", Content: "c", Slug: "hi", Published: true})
	require.NoError(t, err)
	p, err := f.posts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, p.CreatedAt.Equal(f.now))
	assert.True(t, p.UpdatedAt.Equal(f.now))
	assert.Equal(t, "", p.Excerpt)

	_, err = f.posts.Create(ctx, PostInput{Title: "Other", Content: "c", Slug: "hi"})
	require.ErrorIs(t, err, domain.ErrConflict)
	all, err := f.posts.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	created := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	id, err = f.posts.Create(ctx, PostInput{Title: "Old", Content: "c", Slug: "old", CreatedAt: &created})
	require.NoError(t, err)
	p, err = f.posts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, p.CreatedAt.Equal(created))
	assert.True(t, p.UpdatedAt.Equal(f.now))
}

func TestPost_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		in   PostInput
	}{
		{"no title", PostInput{Content: "c", Slug: "s"}},
		{"no content", PostInput{Title: "t", Slug: "s"}},
		{"no slug", PostInput{Title: "t", Content: "c"}},
		{"spaces in slug", PostInput{Title: "t", Content: "c", Slug: "a b"}},
		{"slash in slug", PostInput{Title: "t", Content: "c", Slug: "a/b"}},
		{"trailing dash", PostInput{Title: "t", Content: "c", Slug: "ab-"}},
		{"long slug", PostInput{Title: "t", Content: "c", Slug: strings.Repeat("a", 192)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.posts.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestPost_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.posts.Create(ctx, PostInput{Title: "Hi", Content: "c", Slug: "hi"})
	require.NoError(t, err)
	_, err = f.posts.Create(ctx, PostInput{Title: "Taken", Content: "c", Slug: "taken"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.posts.Update(ctx, "missing", PostInput{Title: "x", Content: "c", Slug: "x"}), domain.ErrNotFound)
	assert.ErrorIs(t, f.posts.Update(ctx, id, PostInput{Title: "x", Content: "c", Slug: "taken"}), domain.ErrConflict)

	f.now = f.now.Add(time.Hour)
	require.NoError(t, f.posts.Update(ctx, id, PostInput{Title: "Hello", Content: "c2", Slug: "hello", Published: true}))
	p, err := f.posts.GetPublishedBySlug(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", p.Title)
	assert.True(t, p.UpdatedAt.Equal(f.now))
	assert.True(t, p.CreatedAt.Equal(f.now.Add(-time.Hour)), "createdAt is kept")

	require.NoError(t, f.posts.Delete(ctx, id))
	require.NoError(t, f.posts.Delete(ctx, id), "deleting an absent post succeeds")
	_, err = f.posts.GetByID(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPost_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, slug := range []string{"a", "b", "c"} {
		at := f.now.Add(time.Duration(i) * time.Hour)
		_, err := f.posts.Create(ctx, PostInput{Title: slug, Content: "c", Slug: slug, Published: true, CreatedAt: &at})
		require.NoError(t, err)
	}
	pub, err := f.posts.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, pub, 3)
	assert.Equal(t, "c", pub[0].Slug)
	assert.Equal(t, "a", pub[2].Slug)
}

func TestPost_CacheInvalidation(t *testing.T) {
	f := newFixture(t)
	m := miniredis.RunT(t)
	c := cache.New(m.Addr(), "", 0)
	svc := NewPostService(repo.NewPostRepo(f.db), c, time.Minute, nil)
	ctx := context.Background()

	pub, err := svc.ListPublished(ctx)
	require.NoError(t, err)
	assert.Empty(t, pub)
	assert.True(t, m.Exists("posts:published"))

	_, err = svc.GetPublishedBySlug(ctx, "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, m.Exists("posts:slug:hi"), "misses are cached")

	id, err := svc.Create(ctx, PostInput{Title: "Hi", Content: "c", Slug: "hi", Published: true})
	require.NoError(t, err)
	assert.False(t, m.Exists("posts:published"))
	assert.False(t, m.Exists("posts:slug:hi"))

	pub, err = svc.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, pub, 1)
	p, err := svc.GetPublishedBySlug(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)

	require.NoError(t, svc.Update(ctx, id, PostInput{Title: "Hi", Content: "c", Slug: "hi", Published: false}))
	pub, err = svc.ListPublished(ctx)
	require.NoError(t, err)
	assert.Empty(t, pub)
	_, err = svc.GetPublishedBySlug(ctx, "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPost_MalformedSlugSkipsCache(t *testing.T) {
	f := newFixture(t)
	m := miniredis.RunT(t)
	svc := NewPostService(repo.NewPostRepo(f.db), cache.New(m.Addr(), "", 0), time.Minute, nil)
	ctx := context.Background()

	for _, slug := range []string{"a b", "../etc", "x:y", strings.Repeat("a", 192), ""} {
		_, err := svc.GetPublishedBySlug(ctx, slug)
		assert.ErrorIs(t, err, domain.ErrNotFound, slug)
	}
	assert.Empty(t, m.Keys())
}

// gatedPosts parks the first List call after it has read the database.
type gatedPosts struct {
	domain.PostRepository
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPosts) List(ctx context.Context, publishedOnly bool) ([]domain.Post, error) {
	posts, err := g.PostRepository.List(ctx, publishedOnly)
	if g.entered != nil {
		close(g.entered)
		g.entered = nil
		<-g.release
	}
	return posts, err
}

func TestPost_PublishDuringCachedListLoad(t *testing.T) {
	f := newFixture(t)
	m := miniredis.RunT(t)
	posts := &gatedPosts{PostRepository: repo.NewPostRepo(f.db), entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewPostService(posts, cache.New(m.Addr(), "", 0), time.Minute, nil)
	ctx := context.Background()

	entered := posts.entered
	done := make(chan []domain.Post)
	go func() {
		pub, _ := svc.ListPublished(ctx)
		done <- pub
	}()

	<-entered
	_, err := svc.Create(ctx, PostInput{Title: "Hi", Content: "c", Slug: "hi", Published: true})
	require.NoError(t, err)
	close(posts.release)
	assert.Empty(t, <-done, "the in-flight read saw the old list")

	pub, err := svc.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, pub, 1)
	assert.Equal(t, "hi", pub[0].Slug)
}
