package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ayush/simple-blog/backend/internal/models"
)

// Post reads join the minimal owner so responses can embed it directly.
var postColumns = []string{
	"p.id", "p.title", "p.content", "p.owner_id", "p.created_at", "p.updated_at",
	`u.id AS "owner.id"`, `u.username AS "owner.username"`,
}

func (s *Store) selectPosts() sq.SelectBuilder {
	return s.sb.Select(postColumns...).
		From("posts p").
		Join("users u ON u.id = p.owner_id")
}

// CreatePost inserts a new post owned by ownerID. The caller guarantees
// ownerID is the authenticated user's own id.
func (s *Store) CreatePost(ctx context.Context, title, content string, ownerID int64) (p *models.Post, err error) {
	ctx, done := s.instrument(ctx, "posts.create")
	defer func() { done(err) }()

	now := time.Now().UTC()
	query, args, err := s.sb.Insert("posts").
		Columns("title", "content", "owner_id", "created_at", "updated_at").
		Values(title, content, ownerID, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var id int64
	if err = s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		err = mapErr(err)
		return nil, err
	}
	return s.GetPost(ctx, id)
}

// GetPost returns the post with the given id and its owner, or ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id int64) (p *models.Post, err error) {
	ctx, done := s.instrument(ctx, "posts.get")
	defer func() { done(err) }()

	query, args, err := s.selectPosts().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	p = &models.Post{}
	if err = s.db.GetContext(ctx, p, query, args...); err != nil {
		err = mapErr(err)
		return nil, err
	}
	return p, nil
}

// ListPosts returns a page of posts, newest first. Ties on created_at break
// by id so offset pagination partitions without gaps or duplicates.
func (s *Store) ListPosts(ctx context.Context, skip, limit int) ([]models.Post, error) {
	return s.listPosts(ctx, "posts.list", s.selectPosts(), skip, limit)
}

// ListPostsByOwner returns a page of one owner's posts, newest first.
func (s *Store) ListPostsByOwner(ctx context.Context, ownerID int64, skip, limit int) ([]models.Post, error) {
	return s.listPosts(ctx, "posts.list_by_owner",
		s.selectPosts().Where(sq.Eq{"p.owner_id": ownerID}), skip, limit)
}

func (s *Store) listPosts(ctx context.Context, op string, b sq.SelectBuilder, skip, limit int) (posts []models.Post, err error) {
	ctx, done := s.instrument(ctx, op)
	defer func() { done(err) }()

	query, args, err := b.
		OrderBy("p.created_at DESC", "p.id DESC").
		Offset(uint64(skip)).Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	posts = []models.Post{}
	if err = s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost applies the non-nil fields of patch and refreshes updated_at.
// Ownership must already be authorized by the caller.
func (s *Store) UpdatePost(ctx context.Context, id int64, patch models.PostUpdate) (p *models.Post, err error) {
	ctx, done := s.instrument(ctx, "posts.update")
	defer func() { done(err) }()

	b := s.sb.Update("posts").
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})
	if patch.Title != nil {
		b = b.Set("title", *patch.Title)
	}
	if patch.Content != nil {
		b = b.Set("content", *patch.Content)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return nil, err
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes the post. Ownership must already be authorized by the
// caller. Returns ErrNotFound if no such post exists.
func (s *Store) DeletePost(ctx context.Context, id int64) (err error) {
	ctx, done := s.instrument(ctx, "posts.delete")
	defer func() { done(err) }()

	query, args, err := s.sb.Delete("posts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}
