package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-api/internal/domain"
	"portfolio-api/internal/service"
	"portfolio-api/internal/transport/http/ez"
	mdw "portfolio-api/internal/transport/http/middleware"
	resp "portfolio-api/internal/transport/http/response"
)

type Posts interface {
	ListPublished(ctx context.Context) ([]domain.Post, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*domain.Post, error)
	ListAll(ctx context.Context) ([]domain.Post, error)
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	Create(ctx context.Context, in service.PostInput) (string, error)
	Update(ctx context.Context, id string, in service.PostInput) error
	Delete(ctx context.Context, id string) error
}

// PostHandler serves the public read view and the blogger/admin write view.
type PostHandler struct{ posts Posts }

func NewPostHandler(p Posts) *PostHandler { return &PostHandler{posts: p} }

type postIn struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Excerpt   string     `json:"excerpt"`
	Slug      string     `json:"slug" binding:"max=191"`
	Published bool       `json:"published"`
	CreatedAt *time.Time `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

func (in *postIn) input() service.PostInput {
	return service.PostInput{
		Title: in.Title, Content: in.Content, Excerpt: in.Excerpt, Slug: in.Slug,
		Published: in.Published, CreatedAt: in.CreatedAt, UpdatedAt: in.UpdatedAt,
	}
}

func (h *PostHandler) MountAPI(api *gin.RouterGroup) {
	ez.Register(api, ez.Action[struct{}, []domain.Post]{
		Method: http.MethodGet,
		Path:   "/posts",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Post, error) {
			return h.posts.ListPublished(c.Request.Context())
		},
	})
	ez.Register(api, ez.Action[struct{}, *domain.Post]{
		Method: http.MethodGet,
		Path:   "/posts/:slug",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Post, error) {
			return h.posts.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
		},
	})
}

func (h *PostHandler) MountAdmin(admin *gin.RouterGroup) {
	g := admin.Group("/posts", mdw.RequireBloggerOrAdmin())

	ez.Register(g, ez.Action[struct{}, []domain.Post]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Post, error) {
			return h.posts.ListAll(c.Request.Context())
		},
	})
	ez.Register(g, ez.Action[struct{}, *domain.Post]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Post, error) {
			return h.posts.GetByID(c.Request.Context(), c.Param("id"))
		},
	})
	ez.Register(g, ez.Action[postIn, resp.CreatedBody]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *postIn) (resp.CreatedBody, error) {
			id, err := h.posts.Create(c.Request.Context(), in.input())
			if err != nil {
				return resp.CreatedBody{}, err
			}
			return resp.CreatedBody{ID: id, Message: "Post created successfully"}, nil
		},
	})
	ez.Register(g, ez.Action[postIn, resp.MessageBody]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *postIn) (resp.MessageBody, error) {
			if err := h.posts.Update(c.Request.Context(), c.Param("id"), in.input()); err != nil {
				return resp.MessageBody{}, err
			}
			return resp.Message("Post updated successfully"), nil
		},
	})
	ez.Register(g, ez.Action[struct{}, resp.MessageBody]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (resp.MessageBody, error) {
			if err := h.posts.Delete(c.Request.Context(), c.Param("id")); err != nil {
				return resp.MessageBody{}, err
			}
			return resp.Message("Post deleted successfully"), nil
		},
	})
}
