package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-api/internal/domain"
	"portfolio-api/internal/transport/http/ez"
	mdw "portfolio-api/internal/transport/http/middleware"
	resp "portfolio-api/internal/transport/http/response"
)

type SitemapBuilder interface {
	Build(ctx context.Context) ([]byte, error)
	WriteFile(ctx context.Context, path string) error
}

type SitemapHandler struct {
	gen  SitemapBuilder
	path string
}

func NewSitemapHandler(gen SitemapBuilder, path string) *SitemapHandler {
	return &SitemapHandler{gen: gen, path: path}
}

type regenerateOut struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

func (h *SitemapHandler) MountAPI(api *gin.RouterGroup) {
	api.GET("/sitemap", func(c *gin.Context) {
		b, err := h.gen.Build(c.Request.Context())
		if err != nil {
			resp.Fail(c, domain.Storage("Failed to generate sitemap", err))
			return
		}
		c.Data(http.StatusOK, "application/xml; charset=utf-8", b)
	})
}

func (h *SitemapHandler) MountAdmin(admin *gin.RouterGroup) {
	ez.Register(admin.Group("", mdw.RequireBloggerOrAdmin()), ez.Action[struct{}, regenerateOut]{
		Method: http.MethodPost,
		Path:   "/regenerate-sitemap",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (regenerateOut, error) {
			if err := h.gen.WriteFile(c.Request.Context(), h.path); err != nil {
				return regenerateOut{}, domain.Storage("Failed to write sitemap", err)
			}
			return regenerateOut{Message: "Sitemap regenerated successfully", Path: h.path}, nil
		},
	})
}
