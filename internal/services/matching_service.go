package services

import (
	"net/mail"
	"strings"

	"github.com/justsurfingit/job-tracker-web/internal/models"
)

type MatcherService struct{}

func NewMatcherService() *MatcherService {
	return &MatcherService{}
}

// FindApplicationsFromEmail returns the company an email is from and the user's
// applications there that can still change status. It returns "" and nil when no
// tracked company matches.
func (s *MatcherService) FindApplicationsFromEmail(apps []models.Application, subject, rawSender string) (string, []models.Application) {
	// "Stripe Recruiting <jobs@stripe.com>" -> name="stripe recruiting", addr="jobs@stripe.com"
	senderName, senderAddr := "", strings.ToLower(rawSender)
	if parsed, err := mail.ParseAddress(rawSender); err == nil {
		senderName = strings.ToLower(parsed.Name)
		senderAddr = strings.ToLower(parsed.Address)
	}
	domain := ""
	if at := strings.LastIndex(senderAddr, "@"); at >= 0 {
		domain = senderAddr[at+1:]
	}
	subjectLower := strings.ToLower(subject)

	company := ""
	for _, app := range apps {
		name := strings.ToLower(strings.TrimSpace(app.CompanyName))
		// Very short names like "X" would match everything.
		if len(name) < 3 {
			continue
		}
		compact := strings.ReplaceAll(name, " ", "")
		if strings.Contains(subjectLower, name) ||
			(senderName != "" && strings.Contains(senderName, name)) ||
			(domain != "" && strings.Contains(domain, compact)) {
			company = app.CompanyName
			break
		}
	}
	if company == "" {
		return "", nil
	}

	var active []models.Application
	for _, app := range apps {
		if !strings.EqualFold(app.CompanyName, company) {
			continue
		}
		if app.Status == models.StatusOffered || app.Status == models.StatusRejected {
			continue
		}
		active = append(active, app)
	}
	return company, active
}
