package services

import (
	"context"

	"github.com/justsurfingit/job-tracker-web/internal/models"
	"github.com/justsurfingit/job-tracker-web/internal/session"
)

// ApplicationAPI is the remote tracker as the landing page uses it. *TrackerClient implements it.
type ApplicationAPI interface {
	List(ctx context.Context, sess session.Session) ([]models.Application, error)
	Create(ctx context.Context, sess session.Session, app models.Application) error
	Update(ctx context.Context, sess session.Session, app models.Application) error
	Delete(ctx context.Context, sess session.Session, applicationID string) error
	CheckSimilarity(ctx context.Context, sess session.Session, resumeURL, applicationID string) (*models.SimilarityResult, error)
}

// LandingService holds the landing page's rules. It never patches a local copy of the
// list: callers re-read it with Applications after every successful mutation.
type LandingService struct {
	API ApplicationAPI
}

func NewLandingService(api ApplicationAPI) *LandingService {
	return &LandingService{API: api}
}

func (s *LandingService) Applications(ctx context.Context, sess session.Session) ([]models.Application, error) {
	return s.API.List(ctx, sess)
}

// Find re-reads the list and returns the application with the given id, or nil.
func (s *LandingService) Find(ctx context.Context, sess session.Session, applicationID string) (*models.Application, error) {
	apps, err := s.API.List(ctx, sess)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if apps[i].ApplicationID == applicationID {
			return &apps[i], nil
		}
	}
	return nil, nil
}

// Save creates the application when it has no id yet and updates it otherwise.
// The owner is always the signed-in user.
func (s *LandingService) Save(ctx context.Context, sess session.Session, app models.Application) error {
	app.Username = sess.Username
	if app.ApplicationID == "" {
		return s.API.Create(ctx, sess, app)
	}
	return s.API.Update(ctx, sess, app)
}

func (s *LandingService) Delete(ctx context.Context, sess session.Session, applicationID string) error {
	return s.API.Delete(ctx, sess, applicationID)
}

func (s *LandingService) CheckSimilarity(ctx context.Context, sess session.Session, resumeURL, applicationID string) (*models.SimilarityResult, error) {
	return s.API.CheckSimilarity(ctx, sess, resumeURL, applicationID)
}
