package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template names
const (
	TemplateVerifyEmail    = "verify_email"
	TemplatePasswordReset  = "password_reset"
	TemplateWelcome        = "welcome"
	TemplateAccountBlocked = "account_blocked"
)

// Message is a rendered email
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Render renders <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl
func Render(name string, data map[string]any) (Message, error) {
	subject, err := renderText(name+".subject.tmpl", data)
	if err != nil {
		return Message{}, err
	}
	text, err := renderText(name+".text.tmpl", data)
	if err != nil {
		return Message{}, err
	}
	html, err := renderHTML(name+".html.tmpl", data)
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: subject, Text: text, HTML: html}, nil
}

func renderText(file string, data any) (string, error) {
	tpl, err := texttpl.New(file).Option("missingkey=zero").ParseFS(templateFS, "templates/"+file)
	if err != nil {
		return "", fmt.Errorf("parse template %q: %w", file, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec template %q: %w", file, err)
	}
	return buf.String(), nil
}

func renderHTML(file string, data any) (string, error) {
	tpl, err := htmltpl.New(file).Option("missingkey=zero").ParseFS(templateFS, "templates/"+file)
	if err != nil {
		return "", fmt.Errorf("parse template %q: %w", file, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec template %q: %w", file, err)
	}
	return buf.String(), nil
}
