package views

import (
	"fmt"
	"net/url"

	"github.com/justsurfingit/job-tracker-web/internal/models"
)

// ListView renders the applications exactly as the last fetch returned them.
type ListView struct {
	Applications []models.Application
	// OpenMenu is the id of the row whose action menu is open, if any.
	OpenMenu string
}

// NewListView keeps openMenu only when it names a row that exists.
func NewListView(apps []models.Application, openMenu string) *ListView {
	v := &ListView{Applications: apps}
	for _, app := range apps {
		if openMenu != "" && app.ApplicationID == openMenu {
			v.OpenMenu = openMenu
			break
		}
	}
	return v
}

func (v *ListView) Empty() bool { return len(v.Applications) == 0 }

func (v *ListView) MenuOpen(id string) bool {
	return v.OpenMenu != "" && v.OpenMenu == id
}

// MenuHref toggles a row's menu. Opening one closes any other.
func (v *ListView) MenuHref(id string) string {
	if v.MenuOpen(id) {
		return "/home"
	}
	return "/home?menu=" + url.QueryEscape(id)
}

type OverlayState int

const (
	OverlayClosed OverlayState = iota
	OverlayLoading
	OverlayReady
	OverlayFailed
)

const similarityFailed = "Failed to check similarity. Please try again."

// Overlay holds one similarity check from the moment it is requested until it is closed.
type Overlay struct {
	State  OverlayState
	Result *models.SimilarityResult
	Err    string
}

// Begin opens the overlay in its loading state and drops whatever the last check showed.
func (o *Overlay) Begin() {
	o.State = OverlayLoading
	o.Result = nil
	o.Err = ""
}

// Resolve shows the result, or the error, of the pending check.
func (o *Overlay) Resolve(res *models.SimilarityResult, err error) {
	if o.State != OverlayLoading {
		return
	}
	if err != nil || res == nil {
		o.State = OverlayFailed
		o.Err = similarityFailed
		return
	}
	o.State = OverlayReady
	o.Result = res
}

func (o *Overlay) Close() {
	*o = Overlay{}
}

func (o *Overlay) Open() bool    { return o.State != OverlayClosed }
func (o *Overlay) Loading() bool { return o.State == OverlayLoading }
func (o *Overlay) Failed() bool  { return o.State == OverlayFailed }
func (o *Overlay) Ready() bool   { return o.State == OverlayReady }

// ScorePercent formats the score as a percentage with two decimals, e.g. 0.4213 -> "42.13%".
func (o *Overlay) ScorePercent() string {
	if o.Result == nil {
		return ""
	}
	return fmt.Sprintf("%.2f%%", o.Result.SimilarityScore*100)
}
