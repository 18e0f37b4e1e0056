// Package mailer sends transactional email (welcome, password reset)
// over SMTP.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	mail "github.com/xhit/go-simple-mail/v2"
)

//go:embed "templates"
var templateFS embed.FS

// Mailer connects to an SMTP server and renders named templates. Each
// template file defines "subject", "plainBody" and "htmlBody" blocks.
type Mailer struct {
	server *mail.SMTPServer
	sender string
}

// New creates a Mailer for the given SMTP server and sender address.
func New(host string, port int, username, password, sender string) Mailer {
	server := mail.NewSMTPClient()
	server.Host = host
	server.Port = port
	server.Username = username
	server.Password = password
	server.KeepAlive = false
	server.ConnectTimeout = 5 * time.Second
	server.SendTimeout = 5 * time.Second

	return Mailer{server: server, sender: sender}
}

// Enabled reports whether the mailer has an SMTP host configured.
// Password reset requires mail; signup works without it.
func (m Mailer) Enabled() bool {
	return m.server != nil && m.server.Host != ""
}

// Send renders templateFile with data and emails it to recipient.
func (m Mailer) Send(recipient, templateFile string, data any) error {
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return fmt.Errorf("parsing template %s: %w", templateFile, err)
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return err
	}

	plainBody := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(plainBody, "plainBody", data); err != nil {
		return err
	}

	htmlBody := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(htmlBody, "htmlBody", data); err != nil {
		return err
	}

	email := mail.NewMSG()
	email.SetFrom(m.sender)
	email.AddTo(recipient)
	email.SetSubject(subject.String())
	email.SetBody(mail.TextPlain, plainBody.String())
	email.AddAlternative(mail.TextHTML, htmlBody.String())

	client, err := m.server.Connect()
	if err != nil {
		return fmt.Errorf("connecting to SMTP server: %w", err)
	}
	if err := email.Send(client); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
