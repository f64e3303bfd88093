package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"wodbooker-go/internal/domain/user"
)

// UserRepository handles CRUD operations for users in Postgres.
type UserRepository struct {
	BaseRepository[user.User]
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{BaseRepository: NewBaseRepository[user.User](db, "users")}
}

// Create inserts a new user and returns its generated ID.
func (r *UserRepository) Create(ctx context.Context, u user.User) (string, error) {
	id := r.GenerateID()
	query := `
		INSERT INTO users (id, email, cookie, force_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id
	`
	err := r.GetDB().QueryRowContext(ctx, query, id, u.Email, u.Cookie, u.ForceLogin).Scan(&id)
	return id, HandleSQLError(err)
}

// UpdatePreferences persists a user's notification preference flags,
// set through the admin API's /api/users/{id}/preferences endpoint.
func (r *UserRepository) UpdatePreferences(ctx context.Context, u user.User) error {
	query := `
		UPDATE users SET
			push_enabled=$1, push_success=$2, push_failure=$3,
			push_remind_60=$4, push_remind_30=$5, push_remind_15=$6,
			mail_enabled=$7, mail_success=$8, mail_failure=$9,
			updated_at=NOW()
		WHERE id=$10
		RETURNING id
	`
	var id string
	err := r.GetDB().QueryRowContext(ctx, query,
		u.PushEnabled, u.PushSuccess, u.PushFailure,
		u.PushRemind60, u.PushRemind30, u.PushRemind15,
		u.MailEnabled, u.MailSuccess, u.MailFailure,
		u.ID,
	).Scan(&id)
	return HandleSQLError(err)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	query := `SELECT * FROM users WHERE email=$1`
	err := r.GetDB().GetContext(ctx, &u, query, email)
	return u, HandleSQLError(err)
}

// UpdateCookie persists a refreshed session cookie after a successful
// login, clearing ForceLogin.
func (r *UserRepository) UpdateCookie(ctx context.Context, userID, cookie string) error {
	query := `UPDATE users SET cookie=$1, force_login=false, updated_at=NOW() WHERE id=$2 RETURNING id`
	var id string
	err := r.GetDB().QueryRowContext(ctx, query, cookie, userID).Scan(&id)
	return HandleSQLError(err)
}

// RequirePassword flags a user as needing a fresh password login, set
// when the cached cookie is rejected by the portal.
func (r *UserRepository) RequirePassword(ctx context.Context, userID string) error {
	query := `UPDATE users SET force_login=true, updated_at=NOW() WHERE id=$1 RETURNING id`
	var id string
	err := r.GetDB().QueryRowContext(ctx, query, userID).Scan(&id)
	return HandleSQLError(err)
}
