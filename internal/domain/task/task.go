package task

import (
	"errors"
	"time"
)

// DateLayout is how due dates travel through forms and CSV.
const DateLayout = "2006-01-02"

var (
	ErrNotFound      = errors.New("task not found")
	ErrOwnerNotFound = errors.New("task owner does not exist")
	ErrDueDatePast   = errors.New("due date cannot be in the past")
)

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	IsActive    bool      `json:"isActive"` // true for active, false for completed
	UserID      string    `json:"userId"`
}

func (t Task) Status() string {
	if t.IsActive {
		return "Active"
	}
	return "Completed"
}

type CreateTaskRequest struct {
	Title       string    `json:"title" form:"Title" binding:"required,max=100"`
	Description string    `json:"description" form:"Description" binding:"max=500"`
	DueDate     time.Time `json:"dueDate" form:"DueDate" time_format:"2006-01-02" binding:"required"`
	IsActive    bool      `json:"isActive" form:"IsActive"`
}

// a full overwrite of the editable fields
type UpdateTaskRequest struct {
	Title       string    `json:"title" form:"Title" binding:"required,max=100"`
	Description string    `json:"description" form:"Description" binding:"max=500"`
	DueDate     time.Time `json:"dueDate" form:"DueDate" time_format:"2006-01-02" binding:"required"`
	IsActive    bool      `json:"isActive" form:"IsActive"`
}

// ValidateDueDate rejects dates before the day containing now.
func ValidateDueDate(due, now time.Time) error {
	if TruncateDate(due).Before(TruncateDate(now)) {
		return ErrDueDatePast
	}
	return nil
}

// TruncateDate drops the clock part, keeping the calendar day as seen in t's location.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
