package mail

import (
	"context"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Mailer envoie les e-mails transactionnels (réinitialisation de mot de
// passe). L'API reste volontairement minimale.
type Mailer interface {
	Send(ctx context.Context, destinataire, sujet, corps string) error
}

// SMTPMailer envoie via un relais SMTP classique.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPMailer construit un mailer SMTP. addr est hôte:port.
func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		host := addr
		if i := strings.IndexByte(addr, ':'); i >= 0 {
			host = addr[:i]
		}
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{addr: addr, from: from, auth: auth}
}

func (m *SMTPMailer) Send(_ context.Context, destinataire, sujet, corps string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + destinataire,
		"Subject: " + sujet,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		corps,
	}, "\r\n")
	return smtp.SendMail(m.addr, m.auth, m.from, []string{destinataire}, []byte(msg))
}

// LogMailer trace l'e-mail au lieu de l'envoyer. Utilisé quand aucun relais
// SMTP n'est configuré (développement, tests).
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, destinataire, sujet, _ string) error {
	log.Info().
		Str("destinataire", destinataire).
		Str("sujet", sujet).
		Msg("e-mail simulé (SMTP non configuré)")
	return nil
}
