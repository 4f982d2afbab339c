// Package sitemap renders the public site's sitemap.xml.
package sitemap

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/snabb/sitemap"

	"portfolio-api/internal/domain"
)

// PostLister returns the published posts, newest first.
type PostLister interface {
	ListPublished(ctx context.Context) ([]domain.Post, error)
}

type Generator struct {
	BaseURL     string
	StaticPaths []string
	Posts       PostLister
	Now         func() time.Time
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Generator) loc(path string) string {
	return strings.TrimRight(g.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func day(t time.Time) *time.Time {
	d := t.UTC().Truncate(24 * time.Hour)
	return &d
}

// Build renders the static pages followed by one entry per published post.
func (g *Generator) Build(ctx context.Context) ([]byte, error) {
	posts, err := g.Posts.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	sm := sitemap.New()
	today := day(g.now())
	for _, p := range g.StaticPaths {
		var prio float32 = 0.8
		if p == "/" {
			prio = 1
		}
		sm.Add(&sitemap.URL{Loc: g.loc(p), LastMod: today, ChangeFreq: sitemap.Monthly, Priority: prio})
	}
	for _, p := range posts {
		sm.Add(&sitemap.URL{
			Loc:        g.loc("/blog/" + p.Slug),
			LastMod:    day(p.UpdatedAt),
			ChangeFreq: sitemap.Weekly,
			Priority:   0.6,
		})
	}

	var buf bytes.Buffer
	if _, err := sm.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile builds the sitemap and replaces path atomically.
func (g *Generator) WriteFile(ctx context.Context, path string) error {
	b, err := g.Build(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(path, b, 0o644)
}
