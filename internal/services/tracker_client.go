package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/justsurfingit/job-tracker-web/internal/dtos"
	"github.com/justsurfingit/job-tracker-web/internal/models"
	"github.com/justsurfingit/job-tracker-web/internal/session"
	"golang.org/x/oauth2"
)

var (
	// ErrNoSession is returned before any request is made when the caller is not signed in.
	ErrNoSession            = errors.New("not signed in")
	ErrMissingApplicationID = errors.New("application id is required")
)

// APIError is a non-success answer from the tracker API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tracker api: %d %s", e.Status, e.Message)
}

// TrackerClient talks to the remote job application tracker API.
type TrackerClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewTrackerClient(baseURL string, httpClient *http.Client) *TrackerClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TrackerClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: httpClient,
	}
}

// List returns every application owned by the session's user.
func (c *TrackerClient) List(ctx context.Context, sess session.Session) ([]models.Application, error) {
	var apps []models.Application
	path := "/fetchApplications/" + url.PathEscape(sess.Username)
	if err := c.do(ctx, sess, http.MethodGet, path, nil, &apps); err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return apps, nil
}

func (c *TrackerClient) Create(ctx context.Context, sess session.Session, app models.Application) error {
	app.ApplicationID = ""
	return c.do(ctx, sess, http.MethodPost, "/createApplication", app, nil)
}

func (c *TrackerClient) Update(ctx context.Context, sess session.Session, app models.Application) error {
	if app.ApplicationID == "" {
		return ErrMissingApplicationID
	}
	return c.do(ctx, sess, http.MethodPost, "/editApplication", app, nil)
}

func (c *TrackerClient) Delete(ctx context.Context, sess session.Session, applicationID string) error {
	if applicationID == "" {
		return ErrMissingApplicationID
	}
	return c.do(ctx, sess, http.MethodDelete, "/deleteApplication/"+url.PathEscape(applicationID), nil, nil)
}

// CheckSimilarity asks the API to score the resume at resumeURL against the application's job description.
func (c *TrackerClient) CheckSimilarity(ctx context.Context, sess session.Session, resumeURL, applicationID string) (*models.SimilarityResult, error) {
	if applicationID == "" {
		return nil, ErrMissingApplicationID
	}
	req := dtos.SimilarityRequest{ResumeFileURL: resumeURL, ApplicationID: applicationID}
	var res models.SimilarityResult
	if err := c.do(ctx, sess, http.MethodPost, "/findSimilarity", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// authorized wraps the base client so every request carries the session token as a bearer credential.
func (c *TrackerClient) authorized(ctx context.Context, sess session.Session) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: sess.IDToken,
		TokenType:   "Bearer",
	}))
}

func (c *TrackerClient) do(ctx context.Context, sess session.Session, method, path string, body, out any) error {
	if !sess.Valid() {
		return ErrNoSession
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.authorized(ctx, sess).Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(respBody, resp.Status)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage pulls a readable message out of the lambdas' {"message"} / {"error"} bodies.
func errorMessage(body []byte, status string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "" && payload.Message != "":
			return payload.Message + ": " + payload.Error
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return status
}
