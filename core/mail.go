package core

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	"path/filepath"
	"strings"
	texttmpl "text/template"
)

type (
	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		ReplyTo     *mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData is the root object every email template renders against.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}

	emailTemplate struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
)

var templates map[string]*emailTemplate

// Render resolves the message body: BodyStr wins, otherwise the named
// template pair is executed into TextContent/HTMLContent.
func (m *EmailMessage) Render(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	tmpl, ok := templates[m.TemplateName]
	if m.TemplateName == "" || !ok {
		return nil
	}

	data := ContextData{FrontendBaseURL: conf.FrontendBaseURL, Data: m.TemplateData}

	if tmpl.text != nil {
		var buf bytes.Buffer
		if err := tmpl.text.Execute(&buf, data); err != nil {
			return err
		}
		m.TextContent = buf.String()
	}
	if tmpl.html != nil {
		var buf bytes.Buffer
		if err := tmpl.html.Execute(&buf, data); err != nil {
			return err
		}
		m.HTMLContent = buf.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseEmailTemplates loads and caches all email templates found in
// assets/templates/email. Templates starting with "_" are layouts, parsed
// together with each content template. Call once at app start-up.
func ParseEmailTemplates(conf *Config, logger Logger) {
	templates = make(map[string]*emailTemplate)

	dir := filepath.Join(conf.WorkDir, "assets", "templates", "email")
	paths, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		logger.Error(fmt.Sprintf("listing email templates: %v", err), err)
		return
	}

	strict := conf.Debug || conf.TestMode

	for _, fp := range paths {
		fname := filepath.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		ext := filepath.Ext(fname)
		name := strings.TrimSuffix(fname, ext)

		entry := templates[name]
		if entry == nil {
			entry = &emailTemplate{}
			templates[name] = entry
		}

		switch ext {
		case ".txt":
			tmpl, err := texttmpl.ParseFiles(filepath.Join(dir, "_base.txt"), fp)
			if err != nil {
				logger.Error(fmt.Sprintf("parsing email template %s: %v", fname, err), err)
				continue
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry.text = tmpl
		case ".gohtml":
			tmpl, err := htmltmpl.ParseFiles(filepath.Join(dir, "_base.gohtml"), fp)
			if err != nil {
				logger.Error(fmt.Sprintf("parsing email template %s: %v", fname, err), err)
				continue
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry.html = tmpl
		}
	}
}
