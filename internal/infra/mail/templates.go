package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

type message struct {
	Subject string
	Text    string
	HTML    []byte
}

var (
	verificationTmpl = template.Must(template.New("verify").Parse(
		`<p>Welcome to finapp.</p><p>Confirm your email address by following <a href="{{.URL}}">this link</a>. The link expires shortly.</p>`))
	resetTmpl = template.Must(template.New("reset").Parse(
		`<p>A password reset was requested for your finapp account.</p><p><a href="{{.URL}}">Choose a new password</a>. If you did not ask for this, ignore this email.</p>`))
	changedTmpl = template.Must(template.New("changed").Parse(
		`<p>Your finapp password was changed.</p><p>If this was not you, reset your password immediately.</p>`))
)

func render(tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}
	return buf.Bytes(), nil
}

func verificationMessage(link string) (message, error) {
	html, err := render(verificationTmpl, struct{ URL string }{link})
	if err != nil {
		return message{}, err
	}
	return message{
		Subject: "Verify your finapp account",
		Text:    "Confirm your email address: " + link,
		HTML:    html,
	}, nil
}

func passwordResetMessage(link string) (message, error) {
	html, err := render(resetTmpl, struct{ URL string }{link})
	if err != nil {
		return message{}, err
	}
	return message{
		Subject: "Reset your finapp password",
		Text:    "Choose a new password: " + link,
		HTML:    html,
	}, nil
}

func passwordChangedMessage() (message, error) {
	html, err := render(changedTmpl, nil)
	if err != nil {
		return message{}, err
	}
	return message{
		Subject: "Your finapp password was changed",
		Text:    "Your finapp password was changed. If this was not you, reset your password immediately.",
		HTML:    html,
	}, nil
}
