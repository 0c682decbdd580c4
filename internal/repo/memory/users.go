package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/google/uuid"
)

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := user.NormalizeEmail(u.Email)
	if _, taken := r.db.byEmail[key]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Roles = nil

	r.db.users[u.ID] = u
	r.db.byEmail[key] = u.ID
	r.db.userOrder = append(r.db.userOrder, u.ID)

	return r.db.withRolesLocked(u), nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.db.withRolesLocked(r.db.users[id]), nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.db.withRolesLocked(u), nil
}

func (r *UsersRepo) List(_ context.Context) ([]user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]user.User, 0, len(r.db.userOrder))
	for _, id := range r.db.userOrder {
		out = append(out, r.db.withRolesLocked(r.db.users[id]))
	}
	return out, nil
}

func (r *UsersRepo) ListByRole(_ context.Context, role string) ([]user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]user.User, 0)
	for _, id := range r.db.userOrder {
		if r.db.userRoles[id][role] {
			out = append(out, r.db.withRolesLocked(r.db.users[id]))
		}
	}
	return out, nil
}

func (r *UsersRepo) UpdateProfile(_ context.Context, id, firstName, lastName, email string) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	newKey := user.NormalizeEmail(email)
	oldKey := user.NormalizeEmail(u.Email)
	if owner, taken := r.db.byEmail[newKey]; taken && owner != id {
		return user.User{}, user.ErrEmailTaken
	}

	delete(r.db.byEmail, oldKey)
	r.db.byEmail[newKey] = id

	u.FirstName = firstName
	u.LastName = lastName
	u.Email = email
	u.UserName = email
	u.UpdatedAt = time.Now().UTC()
	r.db.users[id] = u

	return r.db.withRolesLocked(u), nil
}

func (r *UsersRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	r.db.users[id] = u
	return nil
}

func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if !r.db.deleteUserLocked(id) {
		return user.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) Ping(context.Context) error {
	return nil
}

func (db *DB) withRolesLocked(u user.User) user.User {
	roles := make([]string, 0, len(db.userRoles[u.ID]))
	for name := range db.userRoles[u.ID] {
		roles = append(roles, name)
	}
	sort.Strings(roles)
	u.Roles = roles
	return u
}
