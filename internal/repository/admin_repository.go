package repository

import (
	"context"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepository handles staff account data access.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// GetByUsername retrieves a staff account with its role and the permission
// codes the role grants.
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	a := &model.Admin{}
	err := r.pool.QueryRow(ctx,
		`SELECT a.id, a.username, a.full_name, a.password_hash, a.role_id,
		        ro.name,
		        COALESCE(ARRAY_AGG(p.code ORDER BY p.code)
		                 FILTER (WHERE p.code IS NOT NULL), '{}')
		 FROM admins a
		 JOIN roles ro ON ro.id = a.role_id
		 LEFT JOIN role_permissions rp ON rp.role_id = ro.id
		 LEFT JOIN permissions p ON p.id = rp.permission_id
		 WHERE a.username = $1
		 GROUP BY a.id, ro.name`, username,
	).Scan(&a.ID, &a.Username, &a.FullName, &a.PasswordHash, &a.RoleID,
		&a.RoleName, &a.Permissions)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a staff account under the named role. The role must exist.
func (r *AdminRepository) Create(ctx context.Context, username, fullName, passwordHash, roleName string) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO admins (username, full_name, password_hash, role_id)
		 SELECT $1, $2, $3, id FROM roles WHERE name = $4
		 RETURNING id`,
		username, fullName, passwordHash, roleName).Scan(&id)
	return id, err
}

// UsernameExists reports whether a staff username is taken.
func (r *AdminRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE username = $1)`,
		username).Scan(&exists)
	return exists, err
}
