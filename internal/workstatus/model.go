package workstatus

import (
	"time"

	"github.com/uptrace/bun"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
)

type WorkItem struct {
	bun.BaseModel `bun:"table:work_status,alias:ws"`

	ID            int        `bun:"id,pk,autoincrement" json:"id"`
	Task          string     `bun:"task,notnull" json:"task"`
	Status        Status     `bun:"status,notnull,default:'pending'" json:"status"`
	StartDate     *time.Time `bun:"start_date,nullzero" json:"startDate,omitempty"`
	Deadline      time.Time  `bun:"deadline,notnull" json:"deadline"`
	CompletedDate *time.Time `bun:"completed_date,nullzero" json:"completedDate,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

type CreateRequest struct {
	Task      string `json:"task" validate:"required"`
	Status    string `json:"status" validate:"omitempty,oneof=pending started completed"`
	StartDate string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	Deadline  string `json:"deadline" validate:"required,datetime=2006-01-02"`
}

type UpdateRequest struct {
	Status        string `json:"status" validate:"required,oneof=pending started completed"`
	CompletedDate string `json:"completedDate" validate:"omitempty,datetime=2006-01-02"`
}
