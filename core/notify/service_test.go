package notify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitalsight/config"
	"digitalsight/model"
	"digitalsight/repository"
	"digitalsight/store"
)

type capturedMail struct {
	to  string
	msg *Message
}

type fakeSender struct {
	sent []capturedMail
}

func (f *fakeSender) SendEmail(ctx context.Context, to string, msg *Message) error {
	f.sent = append(f.sent, capturedMail{to: to, msg: msg})
	return nil
}

type notifyFixture struct {
	service *Service
	sender  *fakeSender
	notices repository.NoticeRepository
	labels  repository.LabelRepository
}

func newNotifyFixture(t *testing.T) *notifyFixture {
	t.Helper()
	docs := store.NewMemoryStore()
	labels := repository.NewDocLabelRepository(docs)
	notices := repository.NewDocNoticeRepository(docs)
	sender := &fakeSender{}

	require.NoError(t, labels.CreateLabel(context.Background(), &model.Label{
		ID:    "label-1",
		Name:  "Nova Records",
		Email: "label@example.com",
	}))

	cfg := &config.Config{DashboardBaseURL: "https://dash.example.com"}
	service, err := NewService(cfg, sender, labels, notices)
	require.NoError(t, err)
	t.Cleanup(service.Close)

	return &notifyFixture{service: service, sender: sender, notices: notices, labels: labels}
}

func testRelease() *model.Release {
	return &model.Release{
		ID:        "rel-1",
		LabelID:   "label-1",
		Title:     "Midnight Sessions",
		UPC:       "190295001234",
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestReleaseReturnedNotice(t *testing.T) {
	f := newNotifyFixture(t)
	ctx := context.Background()

	note := model.InteractionNote{Message: "Artwork resolution too low"}
	f.service.ReleaseReturned(ctx, testRelease(), note)

	require.Len(t, f.sender.sent, 1)
	mail := f.sender.sent[0]
	assert.Equal(t, "label@example.com", mail.to)
	assert.Contains(t, mail.msg.Subject, "Midnight Sessions")
	assert.Contains(t, mail.msg.HTML, "Artwork resolution too low")
	assert.Contains(t, mail.msg.HTML, "https://dash.example.com/releases/rel-1")
	assert.Contains(t, mail.msg.Text, "Artwork resolution too low")

	notices, err := f.notices.GetNoticesByLabel(ctx, "label-1")
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, string(KindCorrection), notices[0].Kind)
	assert.Equal(t, "rel-1", notices[0].ReleaseID)
	assert.Equal(t, "label@example.com", notices[0].Recipient)
}

func TestReleasePublishedNotice(t *testing.T) {
	f := newNotifyFixture(t)

	f.service.ReleasePublished(context.Background(), testRelease())

	require.Len(t, f.sender.sent, 1)
	mail := f.sender.sent[0]
	assert.Contains(t, mail.msg.Subject, "Midnight Sessions")
	assert.Contains(t, mail.msg.HTML, "Nova Records")
	assert.Contains(t, mail.msg.HTML, "190295001234")
}

func TestReleaseRejectedNotice(t *testing.T) {
	f := newNotifyFixture(t)

	f.service.ReleaseRejected(context.Background(), testRelease(),
		model.InteractionNote{Message: "Rights not cleared"})

	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0].msg.HTML, "Rights not cleared")
}

func TestMissingRecipientSendsNothing(t *testing.T) {
	f := newNotifyFixture(t)

	release := testRelease()
	release.LabelID = "label-unknown"
	f.service.ReleaseReturned(context.Background(), release, model.InteractionNote{Message: "note"})

	assert.Empty(t, f.sender.sent)
}

func TestPasswordResetMail(t *testing.T) {
	f := newNotifyFixture(t)

	user := &model.User{ID: "user-1", Name: "Pat", Email: "pat@example.com"}
	f.service.PasswordReset(context.Background(), user, "token-123")

	require.Len(t, f.sender.sent, 1)
	mail := f.sender.sent[0]
	assert.Equal(t, "pat@example.com", mail.to)
	assert.Contains(t, mail.msg.HTML, "reset-password?token=token-123")
}

func TestRenderDefaults(t *testing.T) {
	templates, err := newTemplateSet("")
	require.NoError(t, err)

	msg, err := templates.render(KindWelcome, WelcomeData{
		Name:  "Pat",
		Email: "pat@example.com",
		Link:  "https://dash.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Digitalsight, Pat", msg.Subject)
	assert.Contains(t, msg.HTML, "pat@example.com")
	assert.NotEmpty(t, msg.Text)
}

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestTemplateOverrides(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "welcome.html", "<p>Custom hello {{.Name}}</p>")

	templates, err := newTemplateSet(dir)
	require.NoError(t, err)

	msg, err := templates.render(KindWelcome, WelcomeData{Name: "Pat"})
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "Custom hello Pat")
}
