package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/YildirimDemir/social-platform/internal/model"
)

type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountColumns = "id,username,email,password_hash,created_at,updated_at"

// GetByEmail fetches an account and its roles by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getBy(ctx, "email=?", email)
}

// GetByUsername fetches an account and its roles by username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (model.Account, error) {
	return r.getBy(ctx, "username=?", strings.TrimSpace(username))
}

// GetByID fetches an account and its roles by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	return r.getBy(ctx, "id=?", id)
}

func (r *AccountRepo) getBy(ctx context.Context, where string, arg interface{}) (model.Account, error) {
	var a model.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE "+where+" LIMIT 1",
		arg).Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	roles, err := r.rolesOf(ctx, a.ID)
	if err != nil {
		return model.Account{}, err
	}
	a.Roles = roles
	return a, nil
}

// Create inserts the account row and its role links in one transaction so
// an account is never observable without its hash or roles. A unique-key
// violation on email or username surfaces as ErrDuplicate.
func (r *AccountRepo) Create(ctx context.Context, username, email, passwordHash string, roles []model.Role) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Account{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO accounts (username, email, password_hash) VALUES (?,?,?)",
		username, email, passwordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Account{}, ErrDuplicate
		}
		return model.Account{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Account{}, err
	}
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO account_roles (account_id, role_id) VALUES (?,?)",
			uint64(id), role.ID); err != nil {
			return model.Account{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		if isDuplicateKey(err) {
			return model.Account{}, ErrDuplicate
		}
		return model.Account{}, err
	}

	return r.GetByID(ctx, uint64(id))
}

// Delete removes the account row. Role links go with it via ON DELETE
// CASCADE. Returns ErrNotFound when no row matched.
func (r *AccountRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM accounts WHERE id=?", id)
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

func (r *AccountRepo) rolesOf(ctx context.Context, accountID uint64) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT r.id, r.name FROM roles r JOIN account_roles ar ON ar.role_id=r.id WHERE ar.account_id=? ORDER BY r.id",
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// MySQL error 1062 = ER_DUP_ENTRY.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
