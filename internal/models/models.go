package models

import (
	"time"
)

type ApplicationStatus string

const (
	StatusApplied     ApplicationStatus = "Applied"
	StatusInterviewed ApplicationStatus = "Interviewed"
	StatusOffered     ApplicationStatus = "Offered"
	StatusRejected    ApplicationStatus = "Rejected"
)

// AllStatuses is the order the status picker shows them in.
var AllStatuses = []ApplicationStatus{StatusApplied, StatusInterviewed, StatusOffered, StatusRejected}

func (s ApplicationStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Application is one tracked job application as the remote tracker API sends and receives it.
type Application struct {
	// Assigned by the server on create, so absent on the way in.
	ApplicationID  string            `json:"application_id,omitempty"`
	Username       string            `json:"username"`
	CompanyName    string            `json:"companyName"`
	Position       string            `json:"position"`
	JobDescription string            `json:"jobDescription"`
	AppliedDate    string            `json:"appliedDate"`
	Status         ApplicationStatus `json:"status"`
	ResumeFileURL  string            `json:"resumeFileUrl,omitempty"`

	// PDFFile is the base64 resume payload, only present on create/update submissions.
	PDFFile string `json:"pdfFile,omitempty"`
}

type SimilarityResult struct {
	SimilarityScore       float64  `json:"similarity_score"`
	ResumePhrases         []string `json:"resume_phrases"`
	JobDescriptionPhrases []string `json:"job_description_phrases"`
}

// SessionEntry is one persisted key/value pair of a browser session ("idToken", "username").
type SessionEntry struct {
	SessionKey string `gorm:"primaryKey;size:64"`
	Name       string `gorm:"primaryKey;size:32"`
	Value      string `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MailCursor remembers where the Gmail sync left off for one tracker user.
type MailCursor struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Username      string    `gorm:"uniqueIndex;not null" json:"username"`
	LastHistoryID uint64    `json:"last_history_id"`
}

type ProcessedEmail struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
}
