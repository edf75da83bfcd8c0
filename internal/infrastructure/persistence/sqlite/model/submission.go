package model

type Submission struct {
	SubmissionID uint64 `gorm:"column:submission_id;primaryKey;autoIncrement"`
	UserID       string `gorm:"column:user_id;type:text;not null;index"`
	JobID        string `gorm:"column:job_id;type:text;not null"`
	JobTaskID    string `gorm:"column:job_task_id;type:text;not null;uniqueIndex"`
	Status       string `gorm:"column:status;type:text;not null"`
	CreatedAt    string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt    string `gorm:"column:updated_at;type:text;not null"`
}

func (Submission) TableName() string {
	return "submissions"
}
