package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

var (
	passwordResetTmpl = template.Must(template.New("reset").Parse(
		`<div><p>We received a request to reset your password.</p>` +
			`<p><a href="{{.Link}}">Reset Link</a></p>` +
			`<p>The link expires in {{.Expires}}.</p></div>`))

	reporterInviteTmpl = template.Must(template.New("invite").Parse(
		`<div><p>You have been invited to join as a reporter.</p>` +
			`<p><a href="{{.Link}}">Accept Invite</a></p>` +
			`<p>The invite expires in {{.Expires}}.</p></div>`))

	reporterCredentialsTmpl = template.Must(template.New("credentials").Parse(
		`<div>Your temporary password: <strong>{{.Password}}</strong></div>` +
			`<div>Please log in using <a href="{{.Link}}">this link</a>.</div>`))
)

type linkData struct {
	Link     string
	Expires  string
	Password string
}

func render(t *template.Template, data linkData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// PasswordReset builds the reset-link email.
func PasswordReset(to, link, expires string) (Message, error) {
	html, err := render(passwordResetTmpl, linkData{Link: link, Expires: expires})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Reset Password", HTML: html}, nil
}

// ReporterInvite builds the invitation email sent by an admin.
func ReporterInvite(to, link, expires string) (Message, error) {
	html, err := render(reporterInviteTmpl, linkData{Link: link, Expires: expires})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Invitation to join as a reporter", HTML: html}, nil
}

// ReporterCredentials builds the temporary-password email for an accepted
// invite. userID is the pending account to confirm on delivery.
func ReporterCredentials(to, password, loginLink, userID string) (Message, error) {
	html, err := render(reporterCredentialsTmpl, linkData{Link: loginLink, Password: password})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:            to,
		Subject:       "Thank you for confirming your reporter account",
		HTML:          html,
		ConfirmUserID: userID,
	}, nil
}
