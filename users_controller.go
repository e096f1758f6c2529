package auth

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterUserRoutes mounts the guarded CRUD surface. Every route runs the
// access guard first; the handlers then apply the access policy against the
// resolved actor.
func RegisterUserRoutes[T any](app router.Router[T], controller *UsersController, guard router.MiddlewareFunc) {
	app.Post("/users", controller.Create, guard).SetName("users.create")
	app.Get("/users", controller.Index, guard).SetName("users.index")
	app.Get("/users/:id", controller.Show, guard).SetName("users.show")
	app.Patch("/users/:id", controller.Update, guard).SetName("users.update")
	app.Delete("/users/:id", controller.Remove, guard).SetName("users.remove")
}

type UsersController struct {
	Logger Logger
	Repo   Users
}

func NewUsersController(repo Users, logger Logger) *UsersController {
	if logger == nil {
		logger = defLogger{}
	}
	if repo == nil {
		panic("Missing users repository in users controller...")
	}
	return &UsersController{
		Logger: logger,
		Repo:   repo,
	}
}

func (c *UsersController) actor(ctx router.Context) (*User, error) {
	actor, ok := CurrentUser(ctx, "")
	if !ok || actor == nil {
		return nil, ErrUnauthorized
	}
	return actor, nil
}

func parseTargetID(ctx router.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid user id")
	}
	return id, nil
}

// CreateUserRequest is the guarded creation payload; unlike registration it
// may carry a role, subject to policy.
type CreateUserRequest struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	Role      string `json:"role" form:"role"`
}

// Validate will validate the payload
func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Role, validation.In(RoleUser, RoleAdmin)),
	)
}

func (c *UsersController) Create(ctx router.Context) error {
	actor, err := c.actor(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	payload := new(CreateUserRequest)
	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("create user parse payload", "error", err)
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	role := UserRole(payload.Role)
	if role == "" {
		role = RoleUser
	}

	if decision := CanCreateUser(actor, role); !decision.Allowed {
		return RespondError(ctx, decision.Err())
	}

	user, err := c.Repo.RegisterUser(ctx.Context(), RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
		Role:      role,
	})
	if err != nil {
		c.Logger.Error("create user", "error", err, "email", payload.Email)
		return RespondError(ctx, err)
	}

	return RespondData(ctx, router.StatusCreated, user.Sanitized())
}

// UserListResult is the paginated index payload
type UserListResult struct {
	Users []*User `json:"users"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}

func (c *UsersController) Index(ctx router.Context) error {
	actor, err := c.actor(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	if decision := CanListUsers(actor); !decision.Allowed {
		return RespondError(ctx, decision.Err())
	}

	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", 10)

	records, total, err := c.Repo.ListUsers(ctx.Context(), page, limit)
	if err != nil {
		c.Logger.Error("list users", "error", err)
		return RespondError(ctx, err)
	}

	sanitized := make([]*User, 0, len(records))
	for _, record := range records {
		sanitized = append(sanitized, record.Sanitized())
	}

	return RespondData(ctx, router.StatusOK, UserListResult{
		Users: sanitized,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (c *UsersController) Show(ctx router.Context) error {
	actor, err := c.actor(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	id, err := parseTargetID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	if decision := CanViewUser(actor, id.String()); !decision.Allowed {
		return RespondError(ctx, decision.Err())
	}

	user, err := c.Repo.GetUser(ctx.Context(), id)
	if err != nil {
		return RespondError(ctx, err)
	}

	return RespondData(ctx, router.StatusOK, user.Sanitized())
}

// UpdateUserRequest is a partial update; absent fields stay untouched
type UpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"is_active"`
}

// Validate will validate the payload
func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.NilOrNotEmpty, validation.Length(8, 100)),
		validation.Field(&r.Role, validation.In(RoleUser, RoleAdmin)),
	)
}

func (c *UsersController) Update(ctx router.Context) error {
	actor, err := c.actor(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	id, err := parseTargetID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	payload := new(UpdateUserRequest)
	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("update user parse payload", "error", err)
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	changes := UserChanges{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
		IsActive:  payload.IsActive,
	}
	if payload.Role != nil {
		role := UserRole(*payload.Role)
		changes.Role = &role
	}

	if decision := CanUpdateUser(actor, id.String(), changes.ChangesRole()); !decision.Allowed {
		return RespondError(ctx, decision.Err())
	}

	user, err := c.Repo.UpdateUser(ctx.Context(), id, changes)
	if err != nil {
		c.Logger.Error("update user", "error", err, "id", id)
		return RespondError(ctx, err)
	}

	return RespondData(ctx, router.StatusOK, user.Sanitized())
}

func (c *UsersController) Remove(ctx router.Context) error {
	actor, err := c.actor(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	id, err := parseTargetID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	if decision := CanDeleteUser(actor, id.String()); !decision.Allowed {
		return RespondError(ctx, decision.Err())
	}

	if err := c.Repo.DeleteUser(ctx.Context(), id); err != nil {
		c.Logger.Error("delete user", "error", err, "id", id)
		return RespondError(ctx, err)
	}

	return RespondData(ctx, router.StatusOK, map[string]bool{"success": true})
}

func queryInt(ctx router.Context, name string, def int) int {
	raw := ctx.Query(name, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 {
		return def
	}
	return val
}
