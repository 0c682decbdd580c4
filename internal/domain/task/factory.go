package task

func NewFromCreateRequest(userID string, req CreateTaskRequest) Task {
	return Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     TruncateDate(req.DueDate),
		IsActive:    req.IsActive,
		UserID:      userID,
	}
}

// ApplyUpdate overwrites every editable field; ID and owner stay put.
func (t Task) ApplyUpdate(req UpdateTaskRequest) Task {
	t.Title = req.Title
	t.Description = req.Description
	t.DueDate = TruncateDate(req.DueDate)
	t.IsActive = req.IsActive
	return t
}
