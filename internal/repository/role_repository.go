package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/YildirimDemir/social-platform/internal/model"
)

// DefaultRoleName is assigned when registration names no roles.
const DefaultRoleName = "user"

type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// Resolve returns a role per requested name, creating missing ones lazily.
// Names are lower-cased and deduplicated; an empty request resolves to the
// default role.
func (r *RoleRepo) Resolve(ctx context.Context, names []string) ([]model.Role, error) {
	normalized := normalizeRoleNames(names)
	if len(normalized) == 0 {
		normalized = []string{DefaultRoleName}
	}

	roles := make([]model.Role, 0, len(normalized))
	for _, name := range normalized {
		role, err := r.ensure(ctx, name)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func (r *RoleRepo) ensure(ctx context.Context, name string) (model.Role, error) {
	role, err := r.getByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.Role{}, err
	}

	res, err := r.DB.ExecContext(ctx, "INSERT INTO roles (name) VALUES (?)", name)
	if err != nil {
		// Lost a creation race; the winner's row serves just as well.
		if isDuplicateKey(err) {
			return r.getByName(ctx, name)
		}
		return model.Role{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Role{}, err
	}
	return model.Role{ID: uint64(id), Name: name}, nil
}

func (r *RoleRepo) getByName(ctx context.Context, name string) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name FROM roles WHERE name=? LIMIT 1", name).
		Scan(&role.ID, &role.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Role{}, ErrNotFound
	}
	if err != nil {
		return model.Role{}, err
	}
	return role, nil
}

func normalizeRoleNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
