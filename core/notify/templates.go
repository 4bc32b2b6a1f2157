package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/fsnotify/fsnotify"

	"digitalsight/logger"
)

// Kind names one of the fixed notification templates.
type Kind string

const (
	KindCorrection    Kind = "correction"
	KindPublication   Kind = "publication"
	KindRejection     Kind = "rejection"
	KindRegistration  Kind = "registration"
	KindWelcome       Kind = "welcome"
	KindPasswordReset Kind = "password_reset"
)

// Message is one rendered notification.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

var subjectTemplates = map[Kind]string{
	KindCorrection:    "Action needed on your release: {{.Title}}",
	KindPublication:   "Your release {{.Title}} is live",
	KindRejection:     "Your release {{.Title}} was not accepted",
	KindRegistration:  "Label registration received: {{.LabelName}}",
	KindWelcome:       "Welcome to Digitalsight, {{.Name}}",
	KindPasswordReset: "Reset your Digitalsight password",
}

var defaultHTML = map[Kind]string{
	KindCorrection: `<p>Hello,</p>
<p>Our review team needs changes before <strong>{{.Title}}</strong> (UPC {{.UPC}}, submitted {{.CreatedAt}}) can go out:</p>
<blockquote>{{.Message}}</blockquote>
<p><a href="{{.Link}}">Open the release</a> to make the corrections and resubmit.</p>`,
	KindPublication: `<p>Hello,</p>
<p><strong>{{.Title}}</strong> by {{.LabelName}} has been approved and published with UPC {{.UPC}}.</p>
<p>Release date: {{.ReleaseDate}}. <a href="{{.Link}}">View the release</a>.</p>`,
	KindRejection: `<p>Hello,</p>
<p>After review, <strong>{{.Title}}</strong> was not accepted for distribution:</p>
<blockquote>{{.Message}}</blockquote>
<p>The release record stays available from your dashboard: <a href="{{.Link}}">view it here</a>.</p>`,
	KindRegistration: `<p>Hello {{.LabelName}},</p>
<p>Your label registration has been received. Our team will review it and get back to {{.Email}}.</p>`,
	KindWelcome: `<p>Hello {{.Name}},</p>
<p>Your Digitalsight account is ready. <a href="{{.Link}}">Sign in</a> with {{.Email}} to get started.</p>`,
	KindPasswordReset: `<p>Hello {{.Name}},</p>
<p><a href="{{.ResetLink}}">Click here</a> to reset your password. If you did not request this, ignore this message.</p>`,
}

var defaultText = map[Kind]string{
	KindCorrection: `Our review team needs changes before {{.Title}} (UPC {{.UPC}}, submitted {{.CreatedAt}}) can go out:

{{.Message}}

Open the release to make the corrections and resubmit: {{.Link}}`,
	KindPublication: `{{.Title}} by {{.LabelName}} has been approved and published with UPC {{.UPC}}.
Release date: {{.ReleaseDate}}. View the release: {{.Link}}`,
	KindRejection: `After review, {{.Title}} was not accepted for distribution:

{{.Message}}

The release record stays available from your dashboard: {{.Link}}`,
	KindRegistration: `Hello {{.LabelName}},
Your label registration has been received. Our team will review it and get back to {{.Email}}.`,
	KindWelcome: `Hello {{.Name}},
Your Digitalsight account is ready. Sign in with {{.Email}} to get started: {{.Link}}`,
	KindPasswordReset: `Hello {{.Name}},
Reset your password here: {{.ResetLink}}
If you did not request this, ignore this message.`,
}

// templateSet holds the parsed subject, html and text templates for every
// kind. Reloadable from a template directory.
type templateSet struct {
	mu      sync.RWMutex
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

// newTemplateSet parses the built-in templates and, when dir is set, any
// overrides found there.
func newTemplateSet(dir string) (*templateSet, error) {
	ts := &templateSet{}
	if err := ts.load(dir); err != nil {
		return nil, err
	}
	return ts, nil
}

// load parses defaults and then file overrides named <kind>.html / <kind>.txt.
func (ts *templateSet) load(dir string) error {
	subject := texttemplate.New("subjects")
	html := htmltemplate.New("html")
	text := texttemplate.New("text")

	for kind, tmpl := range subjectTemplates {
		if _, err := subject.New(string(kind)).Parse(tmpl); err != nil {
			return fmt.Errorf("failed to parse subject template %s: %w", kind, err)
		}
	}
	for kind, tmpl := range defaultHTML {
		if _, err := html.New(string(kind)).Parse(tmpl); err != nil {
			return fmt.Errorf("failed to parse html template %s: %w", kind, err)
		}
	}
	for kind, tmpl := range defaultText {
		if _, err := text.New(string(kind)).Parse(tmpl); err != nil {
			return fmt.Errorf("failed to parse text template %s: %w", kind, err)
		}
	}

	if dir != "" {
		for kind := range subjectTemplates {
			htmlPath := filepath.Join(dir, string(kind)+".html")
			if data, err := os.ReadFile(htmlPath); err == nil {
				if _, err := html.New(string(kind)).Parse(string(data)); err != nil {
					return fmt.Errorf("failed to parse %s: %w", htmlPath, err)
				}
			}
			textPath := filepath.Join(dir, string(kind)+".txt")
			if data, err := os.ReadFile(textPath); err == nil {
				if _, err := text.New(string(kind)).Parse(string(data)); err != nil {
					return fmt.Errorf("failed to parse %s: %w", textPath, err)
				}
			}
		}
	}

	ts.mu.Lock()
	ts.subject = subject
	ts.html = html
	ts.text = text
	ts.mu.Unlock()
	return nil
}

// render produces the full message for a kind.
func (ts *templateSet) render(kind Kind, data interface{}) (*Message, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	var subject, html, text bytes.Buffer
	if err := ts.subject.ExecuteTemplate(&subject, string(kind), data); err != nil {
		return nil, fmt.Errorf("failed to render subject for %s: %w", kind, err)
	}
	if err := ts.html.ExecuteTemplate(&html, string(kind), data); err != nil {
		return nil, fmt.Errorf("failed to render html for %s: %w", kind, err)
	}
	if err := ts.text.ExecuteTemplate(&text, string(kind), data); err != nil {
		return nil, fmt.Errorf("failed to render text for %s: %w", kind, err)
	}

	return &Message{
		Subject: strings.TrimSpace(subject.String()),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

// watchDir reloads templates whenever files in dir change. Returns the
// watcher so the caller can close it on shutdown.
func (ts *templateSet) watchDir(dir string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
					continue
				}
				if err := ts.load(dir); err != nil {
					logger.Error("failed to reload mail templates", logger.ErrorField(err))
					continue
				}
				logger.Info("mail templates reloaded", logger.String("trigger", event.Name))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("template watcher error", logger.ErrorField(err))
			}
		}
	}()

	return watcher, nil
}
