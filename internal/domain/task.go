package domain

// Field limits, mirrored by the tasks table column widths.
const (
	MaxTitleLength       = 256
	MaxDescriptionLength = 1024
)

// Task is the work item managed by the API.
type Task struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title" validate:"required,max=256"`
	Description  *string `json:"description" validate:"omitempty,max=1024"`
	DueDate      *Date   `json:"due_date"`
	CreationDate *Date   `json:"creation_date"`
	Status       *Status `json:"status"`
}

// TaskFilter selects tasks by due date range and status set.
// Nil bounds are open; an empty Statuses matches every status.
type TaskFilter struct {
	Start    *Date
	End      *Date
	Statuses []Status
}

// Bounds returns the inclusive range with open sides replaced by
// MinDate and MaxDate. The range is not reordered.
func (f TaskFilter) Bounds() (Date, Date) {
	start, end := MinDate, MaxDate
	if f.Start != nil {
		start = *f.Start
	}
	if f.End != nil {
		end = *f.End
	}
	return start, end
}
