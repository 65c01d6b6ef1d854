package submission

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"webformular/internal/config"
	"webformular/internal/domain/upload"
	"webformular/internal/mailer"
	"webformular/internal/pkg/metrics"
	"webformular/internal/pkg/validator"
)

// Token scopes.
const (
	FormID      = "contact"
	AdminFormID = "admin-submissions"
)

const (
	operatorSubject  = "New contact form submission"
	submitterSubject = "Copy of your contact form submission"
	successMessage   = "Thank you, your message has been sent."
)

// Settings holds the per-deployment behaviour of the pipeline.
type Settings struct {
	Mode              string // config.FormModeRedirect or config.FormModeInline
	OperatorEmail     string
	FirstRedirectURL  string
	SecondRedirectURL string
	RedirectDelay     time.Duration
}

// SettingsFromConfig picks the pipeline settings out of the app config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Mode:              cfg.FormMode,
		OperatorEmail:     cfg.OperatorEmail,
		FirstRedirectURL:  cfg.FirstRedirectURL,
		SecondRedirectURL: cfg.SecondRedirectURL,
		RedirectDelay:     cfg.RedirectDelay,
	}
}

// Outcome tells the caller how to finish a successful submission: either
// redirect (RedirectURL set, optionally followed by RefreshURL after
// RefreshDelay) or show Message inline.
type Outcome struct {
	Submission   *Submission
	RedirectURL  string
	RefreshURL   string
	RefreshDelay time.Duration
	Message      string
}

// Service runs the submission pipeline and the admin operations.
type Service struct {
	repo     Repository
	uploads  Uploader
	tokens   TokenService
	mail     mailer.Sender
	settings Settings
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, uploads Uploader, tokens TokenService, mail mailer.Sender, settings Settings, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if settings.Mode == "" {
		settings.Mode = config.FormModeRedirect
	}
	return &Service{
		repo:     repo,
		uploads:  uploads,
		tokens:   tokens,
		mail:     mail,
		settings: settings,
		log:      log,
		now:      time.Now,
	}
}

// Mode returns the deployment completion mode.
func (s *Service) Mode() string {
	return s.settings.Mode
}

// IssueToken returns a fresh anti-forgery token for formID.
func (s *Service) IssueToken(formID string) (string, error) {
	return s.tokens.Issue(formID)
}

// VerifyToken spends token for formID.
func (s *Service) VerifyToken(ctx context.Context, token, formID string) bool {
	return s.tokens.Verify(ctx, token, formID)
}

// Submit processes one form submission. It returns ErrInvalidToken,
// ErrSpamDetected or a *ValidationError without side effects; any other
// error means the submission could not be stored. Upload and mail failures
// are logged and do not fail the call.
func (s *Service) Submit(ctx context.Context, in *SubmitInput) (*Outcome, error) {
	if !s.tokens.Verify(ctx, in.Token, FormID) {
		metrics.Submissions.WithLabelValues(metrics.OutcomeInvalidToken).Inc()
		return nil, ErrInvalidToken
	}

	if in.Honeypot != "" {
		metrics.Submissions.WithLabelValues(metrics.OutcomeSpam).Inc()
		s.log.Info("honeypot filled, submission dropped")
		return nil, ErrSpamDetected
	}

	clean := SubmitInput{
		FirstName: sanitizeTextField(in.FirstName),
		LastName:  sanitizeTextField(in.LastName),
		Email:     sanitizeEmail(in.Email),
		Message:   sanitizeTextarea(in.Message),
	}
	if fields := validator.Validate(&clean); fields != nil {
		metrics.Submissions.WithLabelValues(metrics.OutcomeInvalidFields).Inc()
		return nil, &ValidationError{Fields: fields}
	}

	stored := s.storeAttachment(ctx, in)

	sub := &Submission{
		FirstName: clean.FirstName,
		LastName:  clean.LastName,
		Email:     clean.Email,
		Message:   clean.Message,
		CreatedAt: s.now().UTC(),
	}
	if stored != nil {
		sub.AttachmentURL = sql.NullString{String: stored.URL, Valid: true}
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		metrics.Submissions.WithLabelValues(metrics.OutcomeFailed).Inc()
		if stored != nil {
			if rmErr := s.uploads.Remove(stored.Path); rmErr != nil {
				s.log.Warn("failed to remove orphaned attachment", zap.String("path", stored.Path), zap.Error(rmErr))
			}
		}
		return nil, fmt.Errorf("save submission: %w", err)
	}

	metrics.Submissions.WithLabelValues(metrics.OutcomeAccepted).Inc()
	s.log.Info("submission stored",
		zap.Int64("id", sub.ID),
		zap.Bool("attachment", stored != nil),
	)

	s.notify(ctx, sub, stored)

	return s.outcome(sub), nil
}

func (s *Service) storeAttachment(ctx context.Context, in *SubmitInput) *upload.StoredFile {
	if in.Attachment == nil {
		return nil
	}

	stored, err := s.uploads.Store(ctx, in.Attachment)
	if err != nil {
		metrics.UploadFailures.WithLabelValues(uploadFailureReason(err)).Inc()
		s.log.Warn("attachment dropped",
			zap.String("filename", in.Attachment.Filename),
			zap.Int64("size", in.Attachment.Size),
			zap.Error(err),
		)
		return nil
	}
	return stored
}

func uploadFailureReason(err error) string {
	switch err {
	case upload.ErrEmptyFile:
		return "empty"
	case upload.ErrFileTooLarge:
		return "too_large"
	case upload.ErrInvalidMimeType:
		return "type"
	default:
		return "storage"
	}
}

// notify sends the operator notification and the submitter's copy. Failures
// are logged and counted only.
func (s *Service) notify(ctx context.Context, sub *Submission, stored *upload.StoredFile) {
	body := NotificationBody(sub)

	var attachments []string
	if stored != nil {
		attachments = []string{stored.Path}
	}

	for _, m := range []struct {
		recipient string
		msg       mailer.Message
	}{
		{"operator", mailer.Message{To: s.settings.OperatorEmail, Subject: operatorSubject, Body: body, Attachments: attachments}},
		{"submitter", mailer.Message{To: sub.Email, Subject: submitterSubject, Body: body, Attachments: attachments}},
	} {
		if err := s.mail.Send(ctx, m.msg); err != nil {
			metrics.MailFailures.WithLabelValues(m.recipient).Inc()
			s.log.Error("notification email failed",
				zap.Int64("submission_id", sub.ID),
				zap.String("recipient", m.recipient),
				zap.String("to", m.msg.To),
				zap.Error(err),
			)
		}
	}
}

// NotificationBody is the plain-text body shared by both notification emails.
func NotificationBody(sub *Submission) string {
	return fmt.Sprintf("First name: %s\nLast name: %s\nEmail: %s\n\nMessage:\n%s",
		sub.FirstName, sub.LastName, sub.Email, sub.Message)
}

func (s *Service) outcome(sub *Submission) *Outcome {
	if s.settings.Mode == config.FormModeInline {
		return &Outcome{Submission: sub, Message: successMessage}
	}
	return &Outcome{
		Submission:   sub,
		RedirectURL:  s.settings.FirstRedirectURL,
		RefreshURL:   s.settings.SecondRedirectURL,
		RefreshDelay: s.settings.RedirectDelay,
	}
}

// List returns submissions matching f, newest first. f is expected to be
// normalized already.
func (s *Service) List(ctx context.Context, f Filter) ([]Submission, error) {
	return s.repo.List(ctx, f)
}

// Delete removes the given submissions and returns how many existed.
func (s *Service) Delete(ctx context.Context, ids []int64) (int64, error) {
	n, err := s.repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete submissions: %w", err)
	}
	metrics.Deleted.Add(float64(n))
	s.log.Info("submissions deleted", zap.Int("requested", len(ids)), zap.Int64("deleted", n))
	return n, nil
}

// SecondRedirect returns where the thank-you page sends the browser next.
func (s *Service) SecondRedirect() (string, time.Duration) {
	return s.settings.SecondRedirectURL, s.settings.RedirectDelay
}
