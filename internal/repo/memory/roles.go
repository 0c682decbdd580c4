package memory

import (
	"context"

	"github.com/geocoder89/todolist/internal/domain/user"
)

type RolesRepo struct {
	db *DB
}

func NewRolesRepo(db *DB) *RolesRepo {
	return &RolesRepo{db: db}
}

func (r *RolesRepo) EnsureRole(_ context.Context, name string) error {
	r.db.mu.Lock()
	r.db.roles[name] = true
	r.db.mu.Unlock()
	return nil
}

// AddToRole is a no-op for roles that were never ensured, like the SQL join.
func (r *RolesRepo) AddToRole(_ context.Context, userID, role string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[userID]; !ok {
		return user.ErrNotFound
	}
	if !r.db.roles[role] {
		return nil
	}

	if r.db.userRoles[userID] == nil {
		r.db.userRoles[userID] = make(map[string]bool)
	}
	r.db.userRoles[userID][role] = true
	return nil
}
