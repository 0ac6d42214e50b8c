package api

import (
	"errors"
	"strconv"

	"github.com/searchktools/minihttp/core/codec"
	"github.com/searchktools/minihttp/core/http"
)

// Response texts
const (
	msgUserNotFound    = "User not found"
	msgProductNotFound = "Product not found"
	msgVariantNotFound = "Variant not found"
	msgInvalidBody     = "Invalid JSON body"
	msgHello           = "Hello World!"
	msgEcho            = "Echo POST received!"
	legacyUserName     = "John Cena"
)

// Handlers serves the users and products resources.
type Handlers struct {
	users    *UserStore
	products *ProductStore
}

func NewHandlers(users *UserStore, products *ProductStore) *Handlers {
	return &Handlers{users: users, products: products}
}

// CreateUserRequest is the body of POST /users; both fields are optional.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LegacyUser is the body of GET /user/:id.
type LegacyUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handlers) ListUsers(ctx *http.Context) error {
	return ctx.Render(http.StatusOK, h.users.List())
}

func (h *Handlers) GetUser(ctx *http.Context) error {
	id, ok := pathID(ctx)
	if !ok {
		return ctx.Error(http.StatusNotFound, msgUserNotFound)
	}
	u, ok := h.users.Get(id)
	if !ok {
		return ctx.Error(http.StatusNotFound, msgUserNotFound)
	}
	return ctx.Render(http.StatusOK, u)
}

func (h *Handlers) CreateUser(ctx *http.Context) error {
	var in CreateUserRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.Bind(&in); err != nil {
			if errors.Is(err, codec.ErrUnsupportedCodec) {
				return ctx.Error(http.StatusUnsupportedMediaType, http.StatusText(http.StatusUnsupportedMediaType))
			}
			return ctx.Error(http.StatusBadRequest, msgInvalidBody)
		}
	}

	u := h.users.Create(in.Name, in.Email)
	ctx.Logger().Debug().Int("user_id", u.ID).Msg("user created")
	return ctx.Render(http.StatusCreated, u)
}

func (h *Handlers) DeleteUser(ctx *http.Context) error {
	id, ok := pathID(ctx)
	if !ok || !h.users.Delete(id) {
		return ctx.Error(http.StatusNotFound, msgUserNotFound)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (h *Handlers) ListProducts(ctx *http.Context) error {
	return ctx.Render(http.StatusOK, h.products.List())
}

func (h *Handlers) GetProductVariant(ctx *http.Context) error {
	id, ok := pathID(ctx)
	if !ok {
		return ctx.Error(http.StatusNotFound, msgProductNotFound)
	}
	pv, err := h.products.Variant(id, ctx.Param("variant"))
	switch {
	case errors.Is(err, ErrProductNotFound):
		return ctx.Error(http.StatusNotFound, msgProductNotFound)
	case errors.Is(err, ErrVariantNotFound):
		return ctx.Error(http.StatusNotFound, msgVariantNotFound)
	case err != nil:
		return err
	}
	return ctx.Render(http.StatusOK, pv)
}

// LegacyUserHandler answers the singular /user/:id route. The id is echoed back as
// a string without a store lookup.
func LegacyUserHandler(ctx *http.Context) error {
	return ctx.JSON(http.StatusOK, LegacyUser{ID: ctx.Param("id"), Name: legacyUserName})
}

func Hello(ctx *http.Context) error {
	return ctx.String(http.StatusOK, msgHello)
}

// Redirect sends /old to /new.
func Redirect(ctx *http.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/new")
}

// Echo acknowledges a POST of any size.
func Echo(ctx *http.Context) error {
	ctx.Logger().Debug().Int("bytes", len(ctx.Body())).Msg("echo")
	return ctx.String(http.StatusOK, msgEcho)
}

// pathID parses the :id parameter as a positive integer.
func pathID(ctx *http.Context) (int, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
