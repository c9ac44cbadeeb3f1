package dtos

// ApplicationForm is what the edit popup posts. Field names match the inputs in home.tmpl.
type ApplicationForm struct {
	ApplicationID  string `form:"application_id"`
	CompanyName    string `form:"companyName" binding:"required"`
	Position       string `form:"position" binding:"required"`
	JobDescription string `form:"jobDescription" binding:"required"`
	AppliedDate    string `form:"appliedDate" binding:"required,datetime=2006-01-02"`
	Status         string `form:"status" binding:"required,oneof=Applied Interviewed Offered Rejected"`

	// Optional Fields
	ExistingResumeURL string `form:"existingResumeUrl"`
}

type SimilarityForm struct {
	ApplicationID string `form:"application_id" binding:"required"`
	ResumeFileURL string `form:"resumeFileUrl"`
}

// SimilarityRequest is the body of POST /findSimilarity.
type SimilarityRequest struct {
	ResumeFileURL string `json:"resumeFileUrl"`
	ApplicationID string `json:"application_id"`
}

type ExtractionForm struct {
	RawPosting string `form:"rawPosting" binding:"required"`
}

// ExtractedApplication is the subset of a job posting the LLM fills the Create popup with.
type ExtractedApplication struct {
	CompanyName    string `json:"company_name"`
	Position       string `json:"role_title"`
	JobDescription string `json:"description"`
}
