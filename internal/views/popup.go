package views

import (
	"errors"
	"strings"
	"time"

	"github.com/justsurfingit/job-tracker-web/internal/dtos"
	"github.com/justsurfingit/job-tracker-web/internal/models"
)

const dateLayout = "2006-01-02"

type PopupMode int

const (
	CreateMode PopupMode = iota
	EditMode
)

// Popup is the add/edit dialog. Form holds exactly what the inputs show.
type Popup struct {
	Mode        PopupMode
	Form        dtos.ApplicationForm
	FieldErrors map[string]string
	Err         string
}

// NewPopup opens the dialog empty when app is nil and pre-filled from app otherwise.
func NewPopup(app *models.Application) *Popup {
	if app == nil {
		return &Popup{Mode: CreateMode}
	}
	return &Popup{
		Mode: EditMode,
		Form: dtos.ApplicationForm{
			ApplicationID:     app.ApplicationID,
			CompanyName:       app.CompanyName,
			Position:          app.Position,
			JobDescription:    app.JobDescription,
			AppliedDate:       NormalizeDate(app.AppliedDate),
			Status:            string(app.Status),
			ExistingResumeURL: app.ResumeFileURL,
		},
	}
}

// PrefilledPopup opens the Create dialog with what was extracted from a job posting.
func PrefilledPopup(ext dtos.ExtractedApplication) *Popup {
	return &Popup{
		Mode: CreateMode,
		Form: dtos.ApplicationForm{
			CompanyName:    ext.CompanyName,
			Position:       ext.Position,
			JobDescription: ext.JobDescription,
			Status:         string(models.StatusApplied),
		},
	}
}

// PopupFromForm reopens the dialog with the values the user submitted and what went wrong.
func PopupFromForm(form dtos.ApplicationForm, err error) *Popup {
	p := &Popup{Mode: CreateMode, Form: form}
	if form.ApplicationID != "" {
		p.Mode = EditMode
	}
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		p.FieldErrors = verr.Fields
	case err != nil:
		p.Err = err.Error()
	}
	return p
}

func (p *Popup) IsEdit() bool { return p.Mode == EditMode }

func (p *Popup) Title() string {
	if p.IsEdit() {
		return "Edit Company"
	}
	return "Add Company"
}

func (p *Popup) SubmitLabel() string {
	if p.IsEdit() {
		return "Update"
	}
	return "Save"
}

func (p *Popup) Statuses() []models.ApplicationStatus {
	return models.AllStatuses
}

// NormalizeDate turns whatever date the API stored into the YYYY-MM-DD value a date input expects.
// Timestamps are converted to UTC first. Unrecognised values are returned as they are.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Format(dateLayout)
	}
	for _, layout := range []string{dateLayout, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout)
		}
	}
	return s
}
