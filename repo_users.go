package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the store the rest of the service depends on. The unique email
// column is the authority for duplicate-email races; registration relies on
// the store's atomic check-and-insert instead of locking.
type Users interface {
	repository.Repository[*User]

	GetUser(ctx context.Context, id uuid.UUID) (*User, error)

	RegisterUser(ctx context.Context, msg RegisterUserMessage) (*User, error)
	RegisterUserTx(ctx context.Context, tx bun.IDB, msg RegisterUserMessage) (*User, error)

	ListUsers(ctx context.Context, page, limit int) ([]*User, int, error)
	UpdateUser(ctx context.Context, id uuid.UUID, changes UserChanges) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// UserChanges is a partial update; nil fields are left untouched. Password
// is re-hashed before it reaches the store.
type UserChanges struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Role      *UserRole
	IsActive  *bool
}

// ChangesRole reports whether the update touches the role field
func (c UserChanges) ChangesRole() bool {
	return c.Role != nil
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
	_ UserStore                    = (*users)(nil)
	_ AccountRegistrerer           = (*users)(nil)
)

// NewUsersRepository builds the bun-backed users store
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := a.db.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("?TableAlias.email = ?", strings.ToLower(strings.TrimSpace(identifier))).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"identifier": identifier,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return record, nil
}

func (a *users) RegisterUser(ctx context.Context, msg RegisterUserMessage) (*User, error) {
	return a.RegisterUserTx(ctx, a.db, msg)
}

// RegisterUserTx hashes the password and inserts the record. The pre-insert
// lookup gives a friendly conflict for the common case; the unique index is
// what settles concurrent registrations of the same email.
func (a *users) RegisterUserTx(ctx context.Context, tx bun.IDB, msg RegisterUserMessage) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(msg.Email))

	if existing, err := a.GetByIdentifier(ctx, email); err == nil && existing != nil {
		return nil, ErrDuplicateEmail
	} else if err != nil && !repository.IsRecordNotFound(err) {
		return nil, err
	}

	hash, err := HashPassword(msg.Password)
	if err != nil {
		return nil, err
	}

	role := UserRole(msg.Role)
	if role == "" {
		role = RoleUser
	}
	if !IsValidRole(role) {
		return nil, goerrors.New("unknown or invalid role", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"role": msg.Role})
	}

	record := &User{
		FirstName:    msg.FirstName,
		LastName:     msg.LastName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	prepareUserDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	return created, nil
}

func (a *users) ListUsers(ctx context.Context, page, limit int) ([]*User, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var records []*User
	total, err := a.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		ScanAndCount(ctx)

	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (a *users) UpdateUser(ctx context.Context, id uuid.UUID, changes UserChanges) (*User, error) {
	record, err := a.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if changes.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*changes.Email))
		if email != record.Email {
			if existing, err := a.GetByIdentifier(ctx, email); err == nil && existing != nil && existing.ID != id {
				return nil, ErrDuplicateEmail
			} else if err != nil && !repository.IsRecordNotFound(err) {
				return nil, err
			}
		}
		record.Email = email
	}

	if changes.FirstName != nil {
		record.FirstName = *changes.FirstName
	}
	if changes.LastName != nil {
		record.LastName = *changes.LastName
	}
	if changes.Role != nil {
		if !IsValidRole(*changes.Role) {
			return nil, goerrors.New("unknown or invalid role", goerrors.CategoryValidation).
				WithMetadata(map[string]any{"role": *changes.Role})
		}
		record.Role = *changes.Role
	}
	if changes.IsActive != nil {
		record.IsActive = *changes.IsActive
	}
	if changes.Password != nil {
		hash, err := HashPassword(*changes.Password)
		if err != nil {
			return nil, err
		}
		record.PasswordHash = hash
	}

	updated, err := a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(id.String()))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return updated, nil
}

func (a *users) DeleteUser(ctx context.Context, id uuid.UUID) error {
	record, err := a.GetUser(ctx, id)
	if err != nil {
		return err
	}

	return a.Repository.DeleteTx(ctx, a.db, record)
}

func prepareUserDefaults(record *User) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = RoleUser
	}
}

// isUniqueViolation matches the constraint errors sqlite and postgres emit
// for the email unique index.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
