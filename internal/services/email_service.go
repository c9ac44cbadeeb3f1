package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/justsurfingit/job-tracker-web/internal/models"
	"github.com/justsurfingit/job-tracker-web/internal/session"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"gorm.io/gorm"
)

const bootstrapQuery = "subject:(application OR interview OR update OR offer OR rejected OR status) newer_than:7d"

// EmailAnalyzer classifies recruiting emails. *LLMService implements it.
type EmailAnalyzer interface {
	AnalyzeEmailStatus(ctx context.Context, company, subject, body string) (*EmailAnalysis, error)
	IdentifyApplication(ctx context.Context, positions []string, subject, body string) (int, error)
}

// SessionSource signs the sync user in. It is called once per cycle so the token is always fresh.
type SessionSource func(ctx context.Context) (session.Session, error)

// EmailService reads the user's Gmail and moves applications forward when a recruiter writes.
// The sync cursor and the processed-message ledger live in Postgres; applications live in the tracker API.
type EmailService struct {
	DB             *gorm.DB
	Analyzer       EmailAnalyzer
	MatcherService *MatcherService
	GmailClient    *gmail.Service
	Tracker        ApplicationAPI
	SignIn         SessionSource
}

func NewEmailService(db *gorm.DB, analyzer EmailAnalyzer, gmailClient *gmail.Service, matcher *MatcherService, tracker ApplicationAPI, signIn SessionSource) *EmailService {
	return &EmailService{
		DB:             db,
		Analyzer:       analyzer,
		GmailClient:    gmailClient,
		MatcherService: matcher,
		Tracker:        tracker,
		SignIn:         signIn,
	}
}

// Watch syncs immediately and then every interval until ctx is done.
func (s *EmailService) Watch(ctx context.Context, interval time.Duration) {
	if s.GmailClient == nil {
		log.Println("⚠️ Gmail Watcher disabled (no client). Check credentials.")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.SyncEmails(ctx); err != nil {
			log.Printf("❌ Sync failed: %v", err)
		}
		select {
		case <-ctx.Done():
			log.Println("📴 Email Watcher stopped.")
			return
		case <-ticker.C:
		}
	}
}

// SyncEmails runs one cycle. A failed cycle leaves the cursor where it was.
func (s *EmailService) SyncEmails(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	log.Println("📧 Email Watcher: Starting Sync Cycle...")

	sess, err := s.SignIn(ctx)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	cursor := models.MailCursor{Username: sess.Username}
	if err := s.DB.Where(models.MailCursor{Username: sess.Username}).FirstOrCreate(&cursor).Error; err != nil {
		return fmt.Errorf("load mail cursor: %w", err)
	}

	var messages []*gmail.Message
	var newHistoryID uint64
	if cursor.LastHistoryID == 0 {
		log.Println("🆕 First run detected. Running Full Bootstrap Sync...")
		messages, newHistoryID, err = s.performFullSync(ctx)
	} else {
		messages, newHistoryID, err = s.performIncrementalSync(ctx, cursor.LastHistoryID)
		// Google keeps history for about a week.
		if err != nil && isHistoryExpiredError(err) {
			log.Println("⚠️ History ID expired (too old). Falling back to Full Sync.")
			messages, newHistoryID, err = s.performFullSync(ctx)
		}
	}
	if err != nil {
		return err
	}

	if len(messages) == 0 {
		log.Println("✅ No new relevant emails found.")
		return s.advanceCursor(&cursor, newHistoryID)
	}

	apps, err := s.Tracker.List(ctx, sess)
	if err != nil {
		return fmt.Errorf("fetch applications: %w", err)
	}

	log.Printf("📥 Processing %d candidate emails...", len(messages))
	for _, msg := range messages {
		var count int64
		if err := s.DB.Model(&models.ProcessedEmail{}).Where("id = ?", msg.Id).Count(&count).Error; err != nil {
			return fmt.Errorf("check processed email: %w", err)
		}
		if count > 0 {
			continue
		}

		if updated := s.processSingleEmail(ctx, sess, apps, msg); updated != nil {
			for i := range apps {
				if apps[i].ApplicationID == updated.ApplicationID {
					apps[i] = *updated
				}
			}
		}

		if err := s.DB.Create(&models.ProcessedEmail{ID: msg.Id}).Error; err != nil {
			return fmt.Errorf("mark email processed: %w", err)
		}
	}

	return s.advanceCursor(&cursor, newHistoryID)
}

func (s *EmailService) advanceCursor(cursor *models.MailCursor, newHistoryID uint64) error {
	if newHistoryID <= cursor.LastHistoryID {
		return nil
	}
	if err := s.DB.Model(cursor).Update("last_history_id", newHistoryID).Error; err != nil {
		return fmt.Errorf("save mail cursor: %w", err)
	}
	log.Printf("🔖 History updated to %d", newHistoryID)
	return nil
}

// performFullSync scans the last 7 days and anchors the cursor at the mailbox's current history id.
func (s *EmailService) performFullSync(ctx context.Context) ([]*gmail.Message, uint64, error) {
	resp, err := s.GmailClient.Users.Messages.List("me").Q(bootstrapQuery).MaxResults(50).Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}

	profile, err := s.GmailClient.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("get profile: %w", err)
	}

	messages, err := s.expandMessages(ctx, resp.Messages)
	if err != nil {
		return nil, 0, err
	}
	return messages, profile.HistoryId, nil
}

// performIncrementalSync asks Google only for messages added since startID, across every
// history page. The new cursor is the history id of the last page.
func (s *EmailService) performIncrementalSync(ctx context.Context, startID uint64) ([]*gmail.Message, uint64, error) {
	var added []*gmail.Message
	var newHistoryID uint64
	err := s.GmailClient.Users.History.List("me").
		StartHistoryId(startID).
		HistoryTypes("messageAdded").
		Pages(ctx, func(page *gmail.ListHistoryResponse) error {
			for _, h := range page.History {
				for _, m := range h.MessagesAdded {
					if m.Message != nil {
						added = append(added, m.Message)
					}
				}
			}
			newHistoryID = page.HistoryId
			return nil
		})
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}

	messages, err := s.expandMessages(ctx, added)
	if err != nil {
		return nil, 0, err
	}
	return messages, newHistoryID, nil
}

// expandMessages fetches full messages. Any failed fetch fails the whole cycle so the cursor
// stays put; messages deleted since they were listed (404) are skipped.
func (s *EmailService) expandMessages(ctx context.Context, headers []*gmail.Message) ([]*gmail.Message, error) {
	var full []*gmail.Message
	for _, h := range headers {
		msg, err := s.GmailClient.Users.Messages.Get("me", h.Id).Context(ctx).Do()
		if err != nil {
			var gErr *googleapi.Error
			if errors.As(err, &gErr) && gErr.Code == 404 {
				log.Printf("⚠️ Message %s is gone, skipping.", h.Id)
				continue
			}
			return nil, fmt.Errorf("get message %s: %w", h.Id, err)
		}
		full = append(full, msg)
	}
	return full, nil
}

// processSingleEmail matches one email to an application and, if the analyzer sees a new status,
// sends the change to the tracker. It returns the updated application, or nil.
func (s *EmailService) processSingleEmail(ctx context.Context, sess session.Session, apps []models.Application, msg *gmail.Message) *models.Application {
	headers := parseHeaders(msg)
	subject := headers["Subject"]
	sender := headers["From"]

	shortSub := subject
	if len(shortSub) > 20 {
		shortSub = shortSub[:20] + "..."
	}
	logPrefix := fmt.Sprintf("[Email: %s]", shortSub)
	log.Printf("%s 📥 START processing from: %s", logPrefix, sender)

	body := getEmailBody(msg)

	company, candidates := s.MatcherService.FindApplicationsFromEmail(apps, subject, sender)
	if company == "" {
		log.Printf("%s ❌ SKIPPED: no tracked company matches the sender or subject.", logPrefix)
		return nil
	}
	if len(candidates) == 0 {
		log.Printf("%s ❌ SKIPPED: no open applications at %s.", logPrefix, company)
		return nil
	}

	target := candidates[0]
	if len(candidates) > 1 {
		positions := make([]string, len(candidates))
		for i, c := range candidates {
			positions[i] = c.Position
		}
		log.Printf("%s ⚠️ Ambiguous: %d applications at %s (%v). Asking LLM to pick...", logPrefix, len(candidates), company, positions)
		idx, err := s.Analyzer.IdentifyApplication(ctx, positions, subject, body)
		if err != nil || idx < 0 || idx >= len(candidates) {
			log.Printf("%s ❌ SKIPPED: could not tell which application this is about (%v).", logPrefix, err)
			return nil
		}
		target = candidates[idx]
	}
	log.Printf("%s 🎯 Linked to %s at %s", logPrefix, target.Position, company)

	analysis, err := s.Analyzer.AnalyzeEmailStatus(ctx, company, subject, body)
	if err != nil {
		log.Printf("%s ❌ SKIPPED: LLM Analysis Error: %v", logPrefix, err)
		return nil
	}
	log.Printf("%s 🧠 LLM Decision: Status=%s | Summary=%s", logPrefix, analysis.Status, analysis.Summary)

	status, ok := mapStatus(analysis.Status)
	if !ok {
		log.Printf("%s ⏹️  No update needed (status is %s).", logPrefix, analysis.Status)
		return nil
	}
	if status == target.Status {
		log.Printf("%s ⏹️  Status is already %s. Ignoring.", logPrefix, status)
		return nil
	}

	log.Printf("%s ⚡ UPDATING: %s -> %s", logPrefix, target.Status, status)
	target.Status = status
	target.Username = sess.Username
	target.PDFFile = ""
	if err := s.Tracker.Update(ctx, sess, target); err != nil {
		log.Printf("%s ❌ Update failed: %v", logPrefix, err)
		return nil
	}
	log.Printf("%s ✅ Success!", logPrefix)
	return &target
}

// mapStatus turns the analyzer's answer into an application status. NO_CHANGE and UNKNOWN map to nothing.
func mapStatus(s string) (models.ApplicationStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case EmailInterview:
		return models.StatusInterviewed, true
	case EmailOffer:
		return models.StatusOffered, true
	case EmailRejected:
		return models.StatusRejected, true
	default:
		return "", false
	}
}

func isHistoryExpiredError(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == 404
}

func parseHeaders(msg *gmail.Message) map[string]string {
	res := make(map[string]string)
	if msg.Payload == nil {
		return res
	}
	for _, h := range msg.Payload.Headers {
		res[h.Name] = h.Value
	}
	return res
}

// getEmailBody prefers the top-level body, then a text/plain part, then a text/html part.
func getEmailBody(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		return decodeBody(msg.Payload.Body.Data)
	}
	for _, mime := range []string{"text/plain", "text/html"} {
		for _, part := range msg.Payload.Parts {
			if part.MimeType == mime && part.Body != nil && part.Body.Data != "" {
				return decodeBody(part.Body.Data)
			}
		}
	}
	return ""
}

// Gmail bodies are base64url, usually without padding.
func decodeBody(data string) string {
	d, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(d)
}
