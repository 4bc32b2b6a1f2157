// Package notify renders and dispatches the workflow's email notifications
// and records them in the notice log.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"digitalsight/config"
	"digitalsight/logger"
	"digitalsight/model"
	"digitalsight/repository"
)

// Sender delivers a rendered message to one recipient.
type Sender interface {
	SendEmail(ctx context.Context, to string, msg *Message) error
}

// SMTPSender sends mail over plain SMTP.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPSender builds an SMTP sender from config. Returns nil when no SMTP
// host is configured, which turns dispatch into log-only mode.
func NewSMTPSender(cfg *config.Config) *SMTPSender {
	if cfg.SMTPHost == "" {
		return nil
	}
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPSender{
		addr: cfg.SMTPHost + ":" + cfg.SMTPPort,
		from: cfg.SMTPFrom,
		auth: auth,
	}
}

func (s *SMTPSender) SendEmail(ctx context.Context, to string, msg *Message) error {
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, msg.Subject, msg.HTML)
	return smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(body))
}

// Service implements the lifecycle notifier plus the account mails.
type Service struct {
	sender    Sender
	labels    repository.LabelRepository
	notices   repository.NoticeRepository
	templates *templateSet
	watcher   *fsnotify.Watcher
	baseURL   string
}

// NewService wires the notification service. sender may be nil (log-only).
func NewService(cfg *config.Config, sender Sender, labels repository.LabelRepository, notices repository.NoticeRepository) (*Service, error) {
	templates, err := newTemplateSet(cfg.MailTemplateDir)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		sender:    sender,
		labels:    labels,
		notices:   notices,
		templates: templates,
		baseURL:   cfg.DashboardBaseURL,
	}

	if cfg.MailTemplateDir != "" {
		watcher, err := templates.watchDir(cfg.MailTemplateDir)
		if err != nil {
			logger.Warn("template hot-reload disabled", logger.ErrorField(err))
		} else {
			svc.watcher = watcher
		}
	}

	return svc, nil
}

// Close stops the template watcher.
func (s *Service) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *Service) releaseLink(releaseID string) string {
	return fmt.Sprintf("%s/releases/%s", s.baseURL, releaseID)
}

// labelEmail resolves the notification recipient for a release.
func (s *Service) labelEmail(ctx context.Context, labelID string) string {
	label, err := s.labels.GetLabelByID(ctx, labelID)
	if err != nil {
		logger.Warn("no recipient for notification",
			logger.String("labelId", labelID),
			logger.ErrorField(err))
		return ""
	}
	return label.Email
}

// dispatch renders, sends and records one notification. Never returns an
// error: notification failure must not affect the committed transition.
func (s *Service) dispatch(ctx context.Context, kind Kind, to string, data interface{}, releaseID, labelID string) {
	if to == "" {
		return
	}

	msg, err := s.templates.render(kind, data)
	if err != nil {
		logger.Error("failed to render notification",
			logger.String("kind", string(kind)),
			logger.ErrorField(err))
		return
	}

	if s.sender != nil {
		if err := s.sender.SendEmail(ctx, to, msg); err != nil {
			logger.Error("failed to send notification",
				logger.String("kind", string(kind)),
				logger.String("to", to),
				logger.ErrorField(err))
			return
		}
	} else {
		logger.Info("mail sender not configured, logging notification only",
			logger.String("kind", string(kind)),
			logger.String("to", to),
			logger.String("subject", msg.Subject))
	}

	notice := &repository.Notice{
		ID:        uuid.NewString(),
		Recipient: to,
		Subject:   msg.Subject,
		Kind:      string(kind),
		ReleaseID: releaseID,
		LabelID:   labelID,
		SentAt:    time.Now(),
	}
	if err := s.notices.RecordNotice(ctx, notice); err != nil {
		logger.Warn("failed to record notice", logger.ErrorField(err))
	}
}

// CorrectionData feeds the correction-notice template.
type CorrectionData struct {
	Title     string
	UPC       string
	CreatedAt string
	Message   string
	ReleaseID string
	Link      string
}

// PublicationData feeds the publication-notice template.
type PublicationData struct {
	Title       string
	UPC         string
	ReleaseDate string
	LabelName   string
	ReleaseID   string
	Link        string
}

// ReleaseReturned sends the correction notice.
func (s *Service) ReleaseReturned(ctx context.Context, release *model.Release, note model.InteractionNote) {
	s.dispatch(ctx, KindCorrection, s.labelEmail(ctx, release.LabelID), CorrectionData{
		Title:     release.Title,
		UPC:       release.UPC,
		CreatedAt: release.CreatedAt.Format("2006-01-02"),
		Message:   note.Message,
		ReleaseID: release.ID,
		Link:      s.releaseLink(release.ID),
	}, release.ID, release.LabelID)
}

// ReleasePublished sends the publication notice.
func (s *Service) ReleasePublished(ctx context.Context, release *model.Release) {
	labelName := ""
	if label, err := s.labels.GetLabelByID(ctx, release.LabelID); err == nil {
		labelName = label.Name
	}
	s.dispatch(ctx, KindPublication, s.labelEmail(ctx, release.LabelID), PublicationData{
		Title:       release.Title,
		UPC:         release.UPC,
		ReleaseDate: release.ReleaseDate,
		LabelName:   labelName,
		ReleaseID:   release.ID,
		Link:        s.releaseLink(release.ID),
	}, release.ID, release.LabelID)
}

// ReleaseRejected sends the rejection notice.
func (s *Service) ReleaseRejected(ctx context.Context, release *model.Release, note model.InteractionNote) {
	s.dispatch(ctx, KindRejection, s.labelEmail(ctx, release.LabelID), CorrectionData{
		Title:     release.Title,
		UPC:       release.UPC,
		CreatedAt: release.CreatedAt.Format("2006-01-02"),
		Message:   note.Message,
		ReleaseID: release.ID,
		Link:      s.releaseLink(release.ID),
	}, release.ID, release.LabelID)
}

// RegistrationData feeds the label-registration template.
type RegistrationData struct {
	LabelName string
	Email     string
}

// LabelRegistered sends the registration acknowledgement.
func (s *Service) LabelRegistered(ctx context.Context, label *model.Label) {
	s.dispatch(ctx, KindRegistration, label.Email, RegistrationData{
		LabelName: label.Name,
		Email:     label.Email,
	}, "", label.ID)
}

// WelcomeData feeds the welcome template.
type WelcomeData struct {
	Name  string
	Email string
	Link  string
}

// UserWelcomed sends the account welcome mail.
func (s *Service) UserWelcomed(ctx context.Context, user *model.User) {
	s.dispatch(ctx, KindWelcome, user.Email, WelcomeData{
		Name:  user.Name,
		Email: user.Email,
		Link:  s.baseURL,
	}, "", user.LabelID)
}

// PasswordResetData feeds the password-reset template.
type PasswordResetData struct {
	Name      string
	ResetLink string
}

// PasswordReset sends the password-reset mail.
func (s *Service) PasswordReset(ctx context.Context, user *model.User, resetToken string) {
	s.dispatch(ctx, KindPasswordReset, user.Email, PasswordResetData{
		Name:      user.Name,
		ResetLink: fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, resetToken),
	}, "", user.LabelID)
}
