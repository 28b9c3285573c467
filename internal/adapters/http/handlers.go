package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// Controller composes the page-level surface: the dashboard wizard actions
// and the mountable meeting view.
type Controller struct {
	reg      *app.Registry
	provider core.SessionProvider
	baseURL  string
}

func NewController(reg *app.Registry, provider core.SessionProvider, baseURL string) *Controller {
	return &Controller{reg: reg, provider: provider, baseURL: baseURL}
}

func clientToken(c *gin.Context) app.ClientToken {
	return app.ClientToken(c.GetString("client_token"))
}

// wizardFor returns the per-client wizard, creating it on first use.
func (ctl *Controller) wizardFor(token app.ClientToken) (*app.Wizard, *uiBridge) {
	if entry, ok := ctl.reg.WizardOf(token); ok {
		return entry.Wizard, entry.UI.(*uiBridge)
	}
	bridge := newUIBridge(nil)
	identity := &tokenIdentity{reg: ctl.reg, token: token}
	wizard := app.NewWizard(identity, ctl.provider, bridge, bridge, bridge, ctl.baseURL)
	ctl.reg.BindWizard(token, &app.WizardEntry{Wizard: wizard, UI: bridge})
	return wizard, bridge
}

func (ctl *Controller) pageFor(c *gin.Context) (*app.Page, *uiBridge, bool) {
	token := clientToken(c)
	id := domain.CleanMeetingID(c.Param("id"))
	entry, ok := ctl.reg.PageOf(token, id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "meeting not mounted"})
		return nil, nil, false
	}
	return entry.Page, entry.UI.(*uiBridge), true
}

type wizardResponse struct {
	Mode    app.WizardMode `json:"mode"`
	Link    string         `json:"link,omitempty"`
	Share   bool           `json:"share"`
	Effects UIEffects      `json:"effects"`
}

func wizardState(w *app.Wizard, b *uiBridge) wizardResponse {
	return wizardResponse{
		Mode:    w.Mode(),
		Link:    w.Link(),
		Share:   w.ShareVisible(),
		Effects: b.drain(),
	}
}

type meetingResponse struct {
	State   app.PageState `json:"state"`
	Effects UIEffects     `json:"effects"`
}

// WhoAmI reports the resolved identity, picking up a display name persisted
// in the cookie session.
func (ctl *Controller) WhoAmI(c *gin.Context) {
	token := clientToken(c)
	user := ctl.reg.GetOrCreateUser(token)
	sess := sessions.Default(c)
	if name, ok := sess.Get("username").(string); ok && name != "" && user.Username == "guest" {
		_ = ctl.reg.UpdateUsername(token, name)
	}
	c.JSON(http.StatusOK, user)
}

func (ctl *Controller) Rename(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	token := clientToken(c)
	if err := ctl.reg.UpdateUsername(token, req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess := sessions.Default(c)
	sess.Set("username", req.Name)
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
	}
	c.JSON(http.StatusOK, ctl.reg.GetOrCreateUser(token))
}

func (ctl *Controller) DashboardState(c *gin.Context) {
	wizard, _ := ctl.wizardFor(clientToken(c))
	c.JSON(http.StatusOK, gin.H{
		"mode":  wizard.Mode(),
		"link":  wizard.Link(),
		"share": wizard.ShareVisible(),
		"user":  ctl.reg.GetOrCreateUser(clientToken(c)),
	})
}

type createRequest struct {
	Description string `json:"description"`
	StartsAt    string `json:"starts_at"`
}

// create runs the wizard create flow for a mode and maps the error taxonomy
// onto status codes. Precondition failures and provider failures both carry
// their notices in the drained effects.
func (ctl *Controller) create(c *gin.Context, mode app.WizardMode) {
	wizard, bridge := ctl.wizardFor(clientToken(c))

	var req createRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
			return
		}
	}

	wizard.Open(mode)
	draft := app.Draft{Description: req.Description}
	if req.StartsAt != "" {
		startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "starts_at must be RFC 3339"})
			return
		}
		draft.StartsAt = startsAt
	} else if mode == app.ModeInstant {
		draft.StartsAt = time.Now()
	}
	wizard.SetDraft(draft)

	err := wizard.Create(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, wizardState(wizard, bridge))
	case errors.Is(err, app.ErrNoIdentity), errors.Is(err, app.ErrNoProvider), errors.Is(err, app.ErrDateRequired):
		c.JSON(http.StatusUnprocessableEntity, wizardState(wizard, bridge))
	default:
		c.JSON(http.StatusBadGateway, wizardState(wizard, bridge))
	}
}

func (ctl *Controller) StartInstant(c *gin.Context) {
	ctl.create(c, app.ModeInstant)
}

func (ctl *Controller) Schedule(c *gin.Context) {
	ctl.create(c, app.ModeScheduling)
}

func (ctl *Controller) JoinByLink(c *gin.Context) {
	var req struct {
		Link string `json:"link"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	wizard, bridge := ctl.wizardFor(clientToken(c))
	wizard.Open(app.ModeJoining)
	wizard.SetDraft(app.Draft{Link: req.Link})
	wizard.JoinByLink()
	c.JSON(http.StatusOK, wizardState(wizard, bridge))
}

func (ctl *Controller) OpenRecordings(c *gin.Context) {
	wizard, bridge := ctl.wizardFor(clientToken(c))
	wizard.OpenRecordings()
	c.JSON(http.StatusOK, wizardState(wizard, bridge))
}

func (ctl *Controller) CopyLink(c *gin.Context) {
	wizard, bridge := ctl.wizardFor(clientToken(c))
	if err := wizard.CopyLink(); err != nil {
		if errors.Is(err, app.ErrNoSession) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, wizardState(wizard, bridge))
		return
	}
	c.JSON(http.StatusOK, wizardState(wizard, bridge))
}

func (ctl *Controller) CloseWizard(c *gin.Context) {
	wizard, bridge := ctl.wizardFor(clientToken(c))
	wizard.Close()
	c.JSON(http.StatusOK, wizardState(wizard, bridge))
}

// MountMeeting mounts (or re-reads) the meeting view for this client. The
// raw id may arrive with the encoding artifact; the page normalizes it.
func (ctl *Controller) MountMeeting(c *gin.Context) {
	token := clientToken(c)
	rawID := c.Param("id")
	id := domain.CleanMeetingID(rawID)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty meeting id"})
		return
	}

	entry, ok := ctl.reg.PageOf(token, id)
	if !ok {
		bridge := newUIBridge(c.Request.URL.Query())
		page := app.NewPage(app.PageDeps{
			Identity: &tokenIdentity{reg: ctl.reg, token: token},
			Provider: ctl.provider,
			UI:       bridge,
		}, rawID)
		entry = &app.PageEntry{Page: page, UI: bridge}
		ctl.reg.BindPage(token, id, entry)
	}

	c.JSON(http.StatusOK, meetingResponse{
		State:   entry.Page.State(c.Request.Context()),
		Effects: entry.UI.(*uiBridge).drain(),
	})
}

func (ctl *Controller) UnmountMeeting(c *gin.Context) {
	token := clientToken(c)
	id := domain.CleanMeetingID(c.Param("id"))
	ctl.reg.UnbindPage(token, id)
	c.Status(http.StatusNoContent)
}

// ConfirmSetup passes the setup gate, then asks the provider to connect.
func (ctl *Controller) ConfirmSetup(c *gin.Context) {
	page, bridge, ok := ctl.pageFor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := page.Setup.Confirm(ctx); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.provider.Join(ctx, page.Lookup.ID()); err != nil {
		bridge.Notify("Failed to join the meeting")
		log.Error().Err(err).Str("module", "adapters.http").Str("meeting", string(page.Lookup.ID())).Msg("provider join failed")
		c.JSON(http.StatusBadGateway, meetingResponse{State: page.State(ctx), Effects: bridge.drain()})
		return
	}
	c.JSON(http.StatusOK, meetingResponse{State: page.State(ctx), Effects: bridge.drain()})
}

func (ctl *Controller) SetLayout(c *gin.Context) {
	page, bridge, ok := ctl.pageFor(c)
	if !ok {
		return
	}
	var req struct {
		Layout string `json:"layout"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	layout, err := core.ParseLayout(req.Layout)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page.Room.SetLayout(layout)
	c.JSON(http.StatusOK, meetingResponse{State: page.State(c.Request.Context()), Effects: bridge.drain()})
}

func (ctl *Controller) ToggleParticipants(c *gin.Context) {
	page, bridge, ok := ctl.pageFor(c)
	if !ok {
		return
	}
	page.Room.ToggleParticipants()
	c.JSON(http.StatusOK, meetingResponse{State: page.State(c.Request.Context()), Effects: bridge.drain()})
}

func (ctl *Controller) Leave(c *gin.Context) {
	page, bridge, ok := ctl.pageFor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := page.Room.Leave(ctx); err != nil {
		c.JSON(http.StatusBadGateway, meetingResponse{State: page.State(ctx), Effects: bridge.drain()})
		return
	}
	c.JSON(http.StatusOK, meetingResponse{State: page.State(ctx), Effects: bridge.drain()})
}

func (ctl *Controller) End(c *gin.Context) {
	page, bridge, ok := ctl.pageFor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	err := page.Room.End(ctx)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, meetingResponse{State: page.State(ctx), Effects: bridge.drain()})
	case errors.Is(err, app.ErrPersonalRoom):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, meetingResponse{State: page.State(ctx), Effects: bridge.drain()})
	}
}
