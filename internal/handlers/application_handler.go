package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-tracker-web/internal/dtos"
	"github.com/justsurfingit/job-tracker-web/internal/services"
	"github.com/justsurfingit/job-tracker-web/internal/views"
)

// Extractor pulls application details out of a pasted job posting. *services.LLMService implements it.
type Extractor interface {
	ExtractApplicationDetails(ctx context.Context, rawPosting string) (*dtos.ExtractedApplication, error)
}

// ApplicationHandler serves the landing page. Every page it renders comes from a fresh list fetch,
// and every successful change redirects back to GET /home.
type ApplicationHandler struct {
	Landing *services.LandingService
	// Extractor may be nil, which hides posting extraction.
	Extractor Extractor
}

func NewApplicationHandler(landing *services.LandingService, extractor Extractor) *ApplicationHandler {
	return &ApplicationHandler{Landing: landing, Extractor: extractor}
}

func (h *ApplicationHandler) Home(c *gin.Context) {
	h.render(c, http.StatusOK, views.HomePage{})
}

func (h *ApplicationHandler) New(c *gin.Context) {
	h.render(c, http.StatusOK, views.HomePage{Popup: views.NewPopup(nil)})
}

func (h *ApplicationHandler) Edit(c *gin.Context) {
	sess := currentSession(c)
	app, err := h.Landing.Find(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		log.Printf("❌ Could not load application %s: %v", c.Param("id"), err)
		h.render(c, http.StatusBadGateway, views.HomePage{Error: userMessage(err)})
		return
	}
	if app == nil {
		h.render(c, http.StatusNotFound, views.HomePage{Error: "Application not found."})
		return
	}
	h.render(c, http.StatusOK, views.HomePage{Popup: views.NewPopup(app)})
}

// Save is POST /home/applications, for both new and existing applications.
func (h *ApplicationHandler) Save(c *gin.Context) {
	var form dtos.ApplicationForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Printf("⚠️ Rejected application form over %d bytes", tooLarge.Limit)
			h.render(c, http.StatusRequestEntityTooLarge, views.HomePage{Popup: failedPopup(form, "The upload is larger than 5 MiB.")})
			return
		}
		h.render(c, http.StatusBadRequest, views.HomePage{Popup: views.PopupFromForm(form, views.NewValidationError(err))})
		return
	}

	var resume io.Reader
	fh, err := c.FormFile("resume")
	switch {
	case err == nil && fh.Size > 0:
		f, err := fh.Open()
		if err != nil {
			h.render(c, http.StatusBadRequest, views.HomePage{Popup: failedPopup(form, "Could not read the uploaded resume.")})
			return
		}
		defer f.Close()
		resume = f
	case err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		h.render(c, http.StatusBadRequest, views.HomePage{Popup: failedPopup(form, "Could not read the uploaded resume.")})
		return
	}

	sess := currentSession(c)
	app, err := views.BuildRecord(form, sess.Username, resume)
	if err != nil {
		h.render(c, http.StatusBadRequest, views.HomePage{Popup: views.PopupFromForm(form, err)})
		return
	}

	if err := h.Landing.Save(c.Request.Context(), sess, app); err != nil {
		log.Printf("❌ Could not save application for %s: %v", sess.Username, err)
		h.render(c, http.StatusBadGateway, views.HomePage{Popup: failedPopup(form, userMessage(err))})
		return
	}

	log.Printf("✅ Saved application %q at %s for %s", app.Position, app.CompanyName, sess.Username)
	c.Redirect(http.StatusSeeOther, "/home")
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
	sess := currentSession(c)
	id := c.Param("id")
	if err := h.Landing.Delete(c.Request.Context(), sess, id); err != nil {
		log.Printf("❌ Could not delete application %s: %v", id, err)
		h.render(c, http.StatusBadGateway, views.HomePage{Error: "Could not delete the application: " + userMessage(err)})
		return
	}
	log.Printf("🗑️ Deleted application %s for %s", id, sess.Username)
	c.Redirect(http.StatusSeeOther, "/home")
}

// Similarity runs one check and renders the page with the overlay showing its outcome.
// The browser shows the loading state while this request is in flight.
func (h *ApplicationHandler) Similarity(c *gin.Context) {
	overlay := &views.Overlay{}
	overlay.Begin()

	var form dtos.SimilarityForm
	if err := c.ShouldBind(&form); err != nil {
		overlay.Resolve(nil, err)
		h.render(c, http.StatusBadRequest, views.HomePage{Overlay: overlay})
		return
	}

	res, err := h.Landing.CheckSimilarity(c.Request.Context(), currentSession(c), form.ResumeFileURL, form.ApplicationID)
	if err != nil {
		log.Printf("❌ Similarity check for %s failed: %v", form.ApplicationID, err)
	}
	overlay.Resolve(res, err)
	h.render(c, http.StatusOK, views.HomePage{Overlay: overlay})
}

// Extract opens the Create popup pre-filled from a pasted job posting.
func (h *ApplicationHandler) Extract(c *gin.Context) {
	if h.Extractor == nil {
		h.render(c, http.StatusNotFound, views.HomePage{Error: "Posting extraction is not configured."})
		return
	}

	var form dtos.ExtractionForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, views.HomePage{Error: "Paste a job posting to extract from."})
		return
	}

	ext, err := h.Extractor.ExtractApplicationDetails(c.Request.Context(), form.RawPosting)
	if err != nil {
		log.Printf("❌ AI extraction failed: %v", err)
		h.render(c, http.StatusBadGateway, views.HomePage{Error: "Could not extract details from the posting."})
		return
	}
	h.render(c, http.StatusOK, views.HomePage{Popup: views.PrefilledPopup(*ext)})
}

// render fetches the list and draws the landing page around whatever page already carries.
func (h *ApplicationHandler) render(c *gin.Context, status int, page views.HomePage) {
	sess := currentSession(c)
	apps, err := h.Landing.Applications(c.Request.Context(), sess)
	if err != nil {
		log.Printf("❌ Could not fetch applications for %s: %v", sess.Username, err)
		if page.Error == "" {
			page.Error = "Could not load your applications: " + userMessage(err)
		}
		if status == http.StatusOK {
			status = http.StatusBadGateway
		}
	}

	page.Username = sess.Username
	page.List = views.NewListView(apps, c.Query("menu"))
	page.CanExtract = h.Extractor != nil
	c.HTML(status, "home.tmpl", page)
}

// failedPopup reopens the popup with what the user entered and a message above the form.
func failedPopup(form dtos.ApplicationForm, msg string) *views.Popup {
	p := views.PopupFromForm(form, nil)
	p.Err = msg
	return p
}

func userMessage(err error) string {
	var apiErr *services.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, services.ErrNoSession):
		return "Your session has ended. Please sign in again."
	case errors.Is(err, services.ErrMissingApplicationID):
		return "The application has no id."
	default:
		return "The tracker could not be reached. Please try again."
	}
}
