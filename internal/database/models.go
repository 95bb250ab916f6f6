package database

import "time"

// User is an account identified by email. Deleting a user removes every
// resume it owns, and through those every revision.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Resumes      []Resume `gorm:"constraint:OnDelete:CASCADE"`
}

// Resume is the current state of a document. Version starts at 1 and grows
// by exactly one on every mutation; prior states live in resume_revisions.
type Resume struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `gorm:"size:255"`
	Content   string `gorm:"type:text"`
	UserID    uint   `gorm:"index;not null"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Version   int    `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Revisions []ResumeRevision `gorm:"constraint:OnDelete:CASCADE"`
}

// ResumeRevision is an immutable snapshot of a resume as it was at Version,
// taken just before the mutation that replaced it. Rows are only appended;
// the unique (resume_id, version) pair keeps the history gapless.
type ResumeRevision struct {
	ID        uint   `gorm:"primaryKey"`
	ResumeID  uint   `gorm:"not null;uniqueIndex:uq_resume_revisions_resume_id_version"`
	Resume    Resume `gorm:"constraint:OnDelete:CASCADE"`
	Version   int    `gorm:"not null;uniqueIndex:uq_resume_revisions_resume_id_version"`
	Content   string `gorm:"type:text"`
	CreatedAt time.Time
}
