package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("job not found")

const (
	JobStatusOK      = "ok"
	JobStatusPartial = "partial"
	JobStatusFailed  = "failed"
)

// Job records one upload and the outcome of its compression.
type Job struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Token          string    `gorm:"uniqueIndex;size:36" json:"token"`
	Owner          string    `gorm:"index" json:"owner"`
	OriginalName   string    `json:"original_name"`
	CompressedName string    `json:"compressed_name"`
	Preset         string    `json:"preset"`
	OriginalSize   int64     `json:"original_size"`
	CompressedSize int64     `json:"compressed_size"`
	Images         int       `json:"images"`
	FailedImages   int       `json:"failed_images"`
	Status         string    `json:"status"`
	Error          string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (j Job) OriginalKiB() int64 {
	return j.OriginalSize / 1024
}

func (j Job) CompressedKiB() int64 {
	return j.CompressedSize / 1024
}

// Downloadable reports whether the job left a compressed file behind.
func (j Job) Downloadable() bool {
	return j.Status != JobStatusFailed && j.CompressedName != ""
}

func (d *Database) CreateJob(job *Job) error {
	return d.db.Create(job).Error
}

// GetJob returns the job of token if it belongs to owner.
func (d *Database) GetJob(token, owner string) (*Job, error) {
	var job Job
	result := d.db.Where("token = ? AND owner = ?", token, owner).First(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, result.Error
	}
	return &job, nil
}

// RecentJobs lists the latest jobs of owner, newest first.
func (d *Database) RecentJobs(owner string, limit int) ([]Job, error) {
	var jobs []Job
	err := d.db.Where("owner = ?", owner).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}
