// Package memory is a process-local store with the same semantics as the
// postgres repos. It backs STORE=memory and the HTTP tests.
package memory

import (
	"sync"

	"github.com/geocoder89/todolist/internal/domain/task"
	"github.com/geocoder89/todolist/internal/domain/user"
)

// DB is shared by the repos so deletes can cascade across them.
type DB struct {
	mu sync.RWMutex

	users     map[string]user.User
	userOrder []string
	byEmail   map[string]string // normalized email -> id
	roles     map[string]bool
	userRoles map[string]map[string]bool

	tasks      map[int64]task.Task
	nextTaskID int64

	resets map[string]user.PasswordReset // token hash -> row
}

func NewDB() *DB {
	return &DB{
		users:     make(map[string]user.User),
		byEmail:   make(map[string]string),
		roles:     make(map[string]bool),
		userRoles: make(map[string]map[string]bool),
		tasks:     make(map[int64]task.Task),
		resets:    make(map[string]user.PasswordReset),
	}
}

// deleteUserLocked drops the user and everything hanging off it. Caller holds mu.
func (db *DB) deleteUserLocked(id string) bool {
	u, ok := db.users[id]
	if !ok {
		return false
	}

	delete(db.users, id)
	delete(db.byEmail, user.NormalizeEmail(u.Email))
	delete(db.userRoles, id)

	for i, uid := range db.userOrder {
		if uid == id {
			db.userOrder = append(db.userOrder[:i], db.userOrder[i+1:]...)
			break
		}
	}

	for tid, t := range db.tasks {
		if t.UserID == id {
			delete(db.tasks, tid)
		}
	}

	for h, r := range db.resets {
		if r.UserID == id {
			delete(db.resets, h)
		}
	}

	return true
}
