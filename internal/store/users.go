package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ayush/simple-blog/backend/internal/models"
)

var userColumns = []string{"id", "username", "email", "password_hash", "is_active", "created_at", "updated_at"}

// CreateUser inserts a new user. The password must already be hashed by the
// caller. Returns ErrConflict if the username or email is taken.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (u *models.User, err error) {
	ctx, done := s.instrument(ctx, "users.create")
	defer func() { done(err) }()

	now := time.Now().UTC()
	query, args, err := s.sb.Insert("users").
		Columns("username", "email", "password_hash", "is_active", "created_at", "updated_at").
		Values(username, email, passwordHash, true, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, err
	}

	u = &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = s.db.QueryRowContext(ctx, query, args...).Scan(&u.ID); err != nil {
		err = mapErr(err)
		return nil, err
	}
	return u, nil
}

// GetUser returns the user with the given id, or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "users.get", sq.Eq{"id": id})
}

// GetUserByUsername returns the user with the given username, or ErrNotFound.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "users.get_by_username", sq.Eq{"username": username})
}

// GetUserByEmail returns the user with the given email, or ErrNotFound.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "users.get_by_email", sq.Eq{"email": email})
}

func (s *Store) getUser(ctx context.Context, op string, pred sq.Eq) (u *models.User, err error) {
	ctx, done := s.instrument(ctx, op)
	defer func() { done(err) }()

	query, args, err := s.sb.Select(userColumns...).From("users").Where(pred).ToSql()
	if err != nil {
		return nil, err
	}
	u = &models.User{}
	if err = s.db.GetContext(ctx, u, query, args...); err != nil {
		err = mapErr(err)
		return nil, err
	}
	return u, nil
}

// ListUsers returns a page of users in minimal public form, ordered by id.
func (s *Store) ListUsers(ctx context.Context, skip, limit int) (users []models.PublicUser, err error) {
	ctx, done := s.instrument(ctx, "users.list")
	defer func() { done(err) }()

	query, args, err := s.sb.Select("id", "username").From("users").
		OrderBy("id").
		Offset(uint64(skip)).Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	users = []models.PublicUser{}
	if err = s.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser applies the non-nil fields of patch to the user and refreshes
// updated_at. Returns ErrNotFound if the user doesn't exist and ErrConflict
// if a new username or email is already taken.
func (s *Store) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (u *models.User, err error) {
	ctx, done := s.instrument(ctx, "users.update")
	defer func() { done(err) }()

	b := s.sb.Update("users").
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})
	if patch.Username != nil {
		b = b.Set("username", *patch.Username)
	}
	if patch.Email != nil {
		b = b.Set("email", *patch.Email)
	}
	if patch.PasswordHash != nil {
		b = b.Set("password_hash", *patch.PasswordHash)
	}
	if patch.IsActive != nil {
		b = b.Set("is_active", *patch.IsActive)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		err = mapErr(err)
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return nil, err
	}
	return s.getUser(ctx, "users.get", sq.Eq{"id": id})
}

// DeleteUser removes the user and, by cascade, all owned posts. The deleted
// record is returned; ErrNotFound if no such user exists.
func (s *Store) DeleteUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	ctx, done := s.instrument(ctx, "users.delete")
	defer func() { done(err) }()

	query, args, err := s.sb.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	return u, nil
}
