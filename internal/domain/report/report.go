package report

import (
	"time"

	"github.com/geocoder89/todolist/internal/domain/task"
)

// Flat projections for the admin CSV exports; csv tags name the header cells.

type UserTaskSummary struct {
	UserID    string `csv:"UserId" json:"userId"`
	UserName  string `csv:"UserName" json:"userName"`
	Email     string `csv:"Email" json:"email"`
	FirstName string `csv:"FirstName" json:"firstName"`
	LastName  string `csv:"LastName" json:"lastName"`
	TaskCount int    `csv:"TaskCount" json:"taskCount"`
}

type TaskWithOwner struct {
	TaskID        int64  `csv:"TaskId" json:"taskId"`
	Title         string `csv:"Title" json:"title"`
	Description   string `csv:"Description" json:"description"`
	DueDate       Date   `csv:"DueDate" json:"dueDate"`
	IsActive      bool   `csv:"IsActive" json:"isActive"`
	OwnerFullName string `csv:"Owner_FullName" json:"ownerFullName"`
	OwnerEmail    string `csv:"OwnerEmail" json:"ownerEmail"`
}

// Date is a calendar day. CSV cells carry yyyy-mm-dd; JSON keeps the
// embedded time's encoding.
type Date struct {
	time.Time
}

func (d Date) MarshalCSV() (string, error) {
	if d.IsZero() {
		return "", nil
	}
	return d.Format(task.DateLayout), nil
}
