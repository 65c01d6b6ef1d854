package submission

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"webformular/internal/config"
	"webformular/internal/pkg/response"
)

// Handler serves the public form and the admin pages.
type Handler struct {
	service *Service
	log     *zap.Logger
}

// NewHandler creates submission handler
func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, log: log}
}

type formPage struct {
	Action  string
	Token   string
	Values  SubmitInput
	Errors  map[string]string
	Message string
	Success bool
}

type messagePage struct {
	Title   string
	Message string
	BackURL string
}

type thanksPage struct {
	NextURL string
	Seconds int
	Refresh string
}

// SubmitResponse is the JSON body of an accepted submission.
type SubmitResponse struct {
	ID          int64  `json:"id"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Message     string `json:"message,omitempty"`
}

// ShowForm handles GET /
func (h *Handler) ShowForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, formPage{})
}

// Submit handles POST /
//
// Browsers get a redirect or an inline page depending on FORM_MODE. Clients
// that ask for JSON get the usual response envelope.
func (h *Handler) Submit(c *gin.Context) {
	var in SubmitInput
	if err := c.ShouldBindWith(&in, binding.Form); err != nil {
		if wantsJSON(c) {
			response.Error(c, http.StatusBadRequest, "INVALID_FORM", "Invalid form body")
			return
		}
		h.renderMessage(c, http.StatusBadRequest, "Invalid request", "The form could not be read.")
		return
	}

	if fh, err := c.FormFile("attachment"); err == nil {
		in.Attachment = fh
	}

	outcome, err := h.service.Submit(c.Request.Context(), &in)
	if err != nil {
		h.submitFailed(c, &in, err)
		return
	}

	if wantsJSON(c) {
		response.Success(c, http.StatusCreated, SubmitResponse{
			ID:          outcome.Submission.ID,
			RedirectURL: outcome.RedirectURL,
			Message:     outcome.Message,
		})
		return
	}

	if outcome.RedirectURL == "" {
		h.renderForm(c, http.StatusOK, formPage{Message: outcome.Message, Success: true})
		return
	}
	if outcome.RefreshURL != "" {
		c.Header("Refresh", refreshValue(outcome.RefreshDelay, outcome.RefreshURL))
	}
	c.Redirect(http.StatusSeeOther, outcome.RedirectURL)
}

func (h *Handler) submitFailed(c *gin.Context, in *SubmitInput, err error) {
	var verr *ValidationError

	switch {
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrSpamDetected):
		code, msg := "INVALID_FORM_TOKEN", "The form has expired or was already submitted. Please try again."
		if errors.Is(err, ErrSpamDetected) {
			code, msg = "SPAM_DETECTED", "Your message could not be accepted."
		}
		if wantsJSON(c) {
			response.Error(c, http.StatusForbidden, code, msg)
			return
		}
		if h.service.Mode() == config.FormModeInline {
			h.renderForm(c, http.StatusOK, formPage{Message: msg})
			return
		}
		h.renderMessage(c, http.StatusForbidden, "Submission rejected", msg)

	case errors.As(err, &verr):
		if wantsJSON(c) {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid submission", verr.Fields)
			return
		}
		h.renderForm(c, http.StatusBadRequest, formPage{
			Values:  SubmitInput{FirstName: in.FirstName, LastName: in.LastName, Email: in.Email, Message: in.Message},
			Errors:  fieldMessages(verr.Fields),
			Message: "Please correct the highlighted fields.",
		})

	default:
		h.log.Error("submission failed", zap.Error(err))
		reportError(c, err)
		if wantsJSON(c) {
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Submission could not be saved")
			return
		}
		h.renderMessage(c, http.StatusInternalServerError, "Something went wrong", "Your message could not be saved. Please try again later.")
	}
}

// Thanks handles GET /thanks, the first stop of the two-stage redirect.
func (h *Handler) Thanks(c *gin.Context) {
	next, delay := h.service.SecondRedirect()

	page := thanksPage{NextURL: next, Seconds: seconds(delay)}
	if next != "" {
		page.Refresh = refreshValue(delay, next)
		c.Header("Refresh", page.Refresh)
	}
	c.HTML(http.StatusOK, "thanks.html", page)
}

// renderForm renders the form with a fresh token; every rendered form can be
// submitted exactly once.
func (h *Handler) renderForm(c *gin.Context, status int, page formPage) {
	token, err := h.service.IssueToken(FormID)
	if err != nil {
		h.log.Error("failed to issue form token", zap.Error(err))
		h.renderMessage(c, http.StatusInternalServerError, "Something went wrong", "The form is not available right now.")
		return
	}

	page.Token = token
	page.Action = c.Request.URL.Path
	c.HTML(status, "form.html", page)
}

func (h *Handler) renderMessage(c *gin.Context, status int, title, msg string) {
	c.HTML(status, "message.html", messagePage{Title: title, Message: msg, BackURL: "/"})
}

// reportError forwards unexpected failures to Sentry when the request carries
// a hub.
func reportError(c *gin.Context, err error) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}

func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func refreshValue(delay time.Duration, url string) string {
	return fmt.Sprintf("%d; url=%s", seconds(delay), url)
}

func seconds(d time.Duration) int {
	return int(d.Round(time.Second) / time.Second)
}

var ruleMessages = map[string]string{
	"required": "This field is required.",
	"email":    "Please enter a valid email address.",
	"max":      "This value is too long.",
}

func fieldMessages(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for field, rule := range fields {
		msg, ok := ruleMessages[rule]
		if !ok {
			msg = "This value is invalid."
		}
		out[field] = msg
	}
	return out
}
