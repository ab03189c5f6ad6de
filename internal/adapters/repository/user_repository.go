package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/ports"
)

const userColumns = `id, email, username, password_hash, first_name, last_name, is_active, created_at, updated_at`

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, first_name, last_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash,
		user.FirstName, user.LastName, user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepositoryImpl) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepositoryImpl) getBy(ctx context.Context, column string, value interface{}) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)

	var user entities.User
	if err := r.db.Conn(ctx).GetContext(ctx, &user, query, value); err != nil {
		return nil, notFound(err, entities.ErrUserNotFound, "get user by "+column)
	}

	return &user, nil
}

// GetByIDs silently skips ids that do not exist.
func (r *UserRepositoryImpl) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = ANY($1::uuid[])`, userColumns)

	var found []*entities.User
	if err := r.db.Conn(ctx).SelectContext(ctx, &found, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}

	// keep the caller's order
	byID := make(map[uuid.UUID]*entities.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	users := make([]*entities.User, 0, len(found))
	for _, id := range entities.Unique(ids) {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}
