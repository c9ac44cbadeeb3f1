package views

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/justsurfingit/job-tracker-web/internal/dtos"
	"github.com/justsurfingit/job-tracker-web/internal/models"
)

const MaxResumeSize = 5 << 20

var (
	ErrResumeTooLarge = errors.New("resume is larger than 5 MiB")
	ErrNotPDF         = errors.New("resume must be a PDF")
)

// EncodeResume reads the whole upload and returns its bytes as standard base64, without a data URL prefix.
func EncodeResume(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxResumeSize+1))
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	if len(data) > MaxResumeSize {
		return "", ErrResumeTooLarge
	}
	if mt := mimetype.Detect(data); !mt.Is("application/pdf") {
		return "", fmt.Errorf("%w (got %s)", ErrNotPDF, mt.String())
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// BuildRecord turns a submitted form into the record sent to the API.
// A new resume is encoded in full before the record exists, and replaces any existing URL.
// Without one, the existing URL is passed through as submitted.
func BuildRecord(form dtos.ApplicationForm, username string, resume io.Reader) (models.Application, error) {
	var payload string
	if resume != nil {
		var err error
		if payload, err = EncodeResume(resume); err != nil {
			return models.Application{}, err
		}
	}

	app := models.Application{
		ApplicationID:  form.ApplicationID,
		Username:       username,
		CompanyName:    form.CompanyName,
		Position:       form.Position,
		JobDescription: form.JobDescription,
		AppliedDate:    form.AppliedDate,
		Status:         models.ApplicationStatus(form.Status),
	}
	if payload != "" {
		app.PDFFile = payload
	} else {
		app.ResumeFileURL = form.ExistingResumeURL
	}
	return app, nil
}
