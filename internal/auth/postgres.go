package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	_ UserStore       = (*PGUserStore)(nil)
	_ PermissionStore = (*PGPermissionStore)(nil)
)

// PGUserStore implements UserStore using PostgreSQL.
type PGUserStore struct {
	db *sql.DB
}

func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, role, enabled, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.Role, &u.Enabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *PGUserStore) Find(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *PGUserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username=$1`, username)
	return scanUser(row)
}

func (s *PGUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where username=$1)`, username).Scan(&exists)
	return exists, err
}

func (s *PGUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where email=$1)`, email).Scan(&exists)
	return exists, err
}

func (s *PGUserStore) Save(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, username, email, password_hash, first_name, last_name, role, enabled, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 on conflict (id) do update set
		   email=excluded.email, password_hash=excluded.password_hash,
		   first_name=excluded.first_name, last_name=excluded.last_name,
		   role=excluded.role, enabled=excluded.enabled, updated_at=excluded.updated_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.Role, u.Enabled, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (s *PGUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PGPermissionStore implements PermissionStore using PostgreSQL.
type PGPermissionStore struct {
	db *sql.DB
}

func NewPGPermissionStore(db *sql.DB) *PGPermissionStore {
	return &PGPermissionStore{db: db}
}

func (s *PGPermissionStore) Ensure(ctx context.Context, perms []Permission) error {
	for _, p := range perms {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		_, err := s.db.ExecContext(ctx,
			`insert into permissions(id, resource, action, description)
			 values($1,$2,$3,$4) on conflict (resource, action) do nothing`,
			p.ID, p.Resource, p.Action, p.Description,
		)
		if err != nil {
			return fmt.Errorf("auth: ensure permission %s: %w", p.Key(), err)
		}
	}
	return nil
}

func (s *PGPermissionStore) List(ctx context.Context) ([]Permission, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, resource, action, description, created_at from permissions order by resource, action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Resource, &p.Action, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
