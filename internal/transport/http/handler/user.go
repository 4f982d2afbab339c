package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-api/internal/domain"
	"portfolio-api/internal/service"
	"portfolio-api/internal/transport/http/ez"
	mdw "portfolio-api/internal/transport/http/middleware"
	resp "portfolio-api/internal/transport/http/response"
)

type Accounts interface {
	List(ctx context.Context) ([]domain.Account, error)
	Get(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, in service.CreateAccountInput) (string, error)
	Update(ctx context.Context, id string, in service.UpdateAccountInput) error
	Delete(ctx context.Context, id string) error
}

// UserHandler exposes account management to admins.
type UserHandler struct{ accounts Accounts }

func NewUserHandler(a Accounts) *UserHandler { return &UserHandler{accounts: a} }

type createUserIn struct {
	Username string  `json:"username" binding:"max=64"`
	Email    *string `json:"email" binding:"omitempty,max=191"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
}

type updateUserIn struct {
	Username string  `json:"username" binding:"max=64"`
	Email    *string `json:"email" binding:"omitempty,max=191"`
	Role     string  `json:"role"`
}

func (h *UserHandler) MountAdmin(admin *gin.RouterGroup) {
	g := admin.Group("/users", mdw.RequireAdmin())

	ez.Register(g, ez.Action[struct{}, []domain.Account]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Account, error) {
			return h.accounts.List(c.Request.Context())
		},
	})

	ez.Register(g, ez.Action[struct{}, *domain.Account]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Account, error) {
			return h.accounts.Get(c.Request.Context(), c.Param("id"))
		},
	})

	ez.Register(g, ez.Action[createUserIn, resp.CreatedBody]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *createUserIn) (resp.CreatedBody, error) {
			id, err := h.accounts.Create(c.Request.Context(), service.CreateAccountInput{
				Username: in.Username, Email: in.Email, Password: in.Password, Role: in.Role,
			})
			if err != nil {
				return resp.CreatedBody{}, err
			}
			return resp.CreatedBody{ID: id, Message: "User created successfully"}, nil
		},
	})

	ez.Register(g, ez.Action[updateUserIn, resp.MessageBody]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *updateUserIn) (resp.MessageBody, error) {
			err := h.accounts.Update(c.Request.Context(), c.Param("id"), service.UpdateAccountInput{
				Username: in.Username, Email: in.Email, Role: in.Role,
			})
			if err != nil {
				return resp.MessageBody{}, err
			}
			return resp.Message("User updated successfully"), nil
		},
	})

	ez.Register(g, ez.Action[struct{}, resp.MessageBody]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (resp.MessageBody, error) {
			if err := h.accounts.Delete(c.Request.Context(), c.Param("id")); err != nil {
				return resp.MessageBody{}, err
			}
			return resp.Message("User deleted successfully"), nil
		},
	})
}
