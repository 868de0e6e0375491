// Copyright 2025 The Fluxa Authors, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/xmreur/Fluxa/internal/config"
	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/pkg/loop"
	"gopkg.in/gomail.v2"
)

// Sender delivers one plain text e-mail.
type Sender interface {
	Send(to, subject, body string) error
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender sends through the configured SMTP relay.
func NewSMTPSender(cfg config.SMTPConfig) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}

type logSender struct {
	log *log.Logger
}

// NewLogSender only logs; used when no SMTP relay is configured.
func NewLogSender() Sender {
	return &logSender{log: log.GetLogger("mailer")}
}

func (s *logSender) Send(to, subject, _ string) error {
	s.log.Verbosef("mail to %s not sent, smtp disabled: %s", to, subject)
	return nil
}

var inviteTemplate = template.Must(template.New("invite").Parse(
	`Hi,

{{.Inviter}} invited you to join the {{.Kind}} "{{.Name}}" on Fluxa as {{.Role}}.

Open your inbox to accept or decline: {{.InboxURL}}
`))

// InviteMail describes one invitation e-mail.
type InviteMail struct {
	Invite  *model.Invite
	Name    string
	Inviter string
}

// Mailer renders and queues invitation e-mails.
type Mailer struct {
	log     *log.Logger
	loop    *loop.TaskLoop
	sender  Sender
	baseURL string
}

func NewMailer(l *loop.TaskLoop, sender Sender, baseURL string) *Mailer {
	return &Mailer{
		log:     log.GetLogger("mailer"),
		loop:    l,
		sender:  sender,
		baseURL: baseURL,
	}
}

func (m *Mailer) render(mail InviteMail) (subject, body string, err error) {
	var buf bytes.Buffer
	err = inviteTemplate.Execute(&buf, map[string]string{
		"Inviter":  mail.Inviter,
		"Kind":     string(mail.Invite.Container().Kind),
		"Name":     mail.Name,
		"Role":     string(mail.Invite.Role),
		"InboxURL": m.baseURL + "/inbox",
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("You have been invited to %s", mail.Name), buf.String(), nil
}

// InviteCreated queues the invitation e-mail for the invitee.
func (m *Mailer) InviteCreated(mail InviteMail) {
	subject, body, err := m.render(mail)
	if err != nil {
		m.log.Error("render invite mail", err, "invite", mail.Invite.ID)
		return
	}
	to := mail.Invite.InviteeEmail
	err = m.loop.TryAddTask("invite-mail", func(ctx context.Context) error {
		return m.sender.Send(to, subject, body)
	})
	if err != nil {
		m.log.Warningf("drop invite mail to %s: %v", to, err)
	}
}
