package services

import (
	"context"
	"fmt"

	"github.com/artpro/wealthtrack/pkg/config"
	"github.com/artpro/wealthtrack/pkg/models"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends account emails through SendGrid
type Mailer struct {
	apiKey string
	from   string
	logger zerolog.Logger
}

// NewMailer creates a new mailer
func NewMailer(cfg *config.Config, logger zerolog.Logger) *Mailer {
	return &Mailer{
		apiKey: cfg.SendGridAPIKey,
		from:   cfg.MailFrom,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

// Enabled reports whether an API key is configured
func (m *Mailer) Enabled() bool {
	return m.apiKey != "" && m.from != ""
}

// SendWelcome greets a newly registered user
func (m *Mailer) SendWelcome(ctx context.Context, user *models.User) error {
	if !m.Enabled() {
		m.logger.Warn().Msg("SendGrid API key not configured, skipping email")
		return nil
	}

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.SendWithContext(ctx, welcomeMessage(m.from, user))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 300 {
		return fmt.Errorf("email service returned status %d", response.StatusCode)
	}

	m.logger.Info().Str("user_id", user.ID).Msg("Welcome email sent")
	return nil
}

func welcomeMessage(from string, user *models.User) *mail.SGMailV3 {
	sender := mail.NewEmail("WealthTrack", from)
	to := mail.NewEmail("", user.Email)

	subject := "Welcome to WealthTrack"

	plainTextContent := fmt.Sprintf(
		"Your account %s is ready.\n\nPortfolio values are shown in %s. You can change this in your settings.",
		user.Email,
		user.PreferredCurrency,
	)

	htmlContent := fmt.Sprintf(`
		<html>
		<body>
			<h2>Welcome to WealthTrack</h2>
			<p>Your account <strong>%s</strong> is ready.</p>
			<p>Portfolio values are shown in <strong>%s</strong>. You can change this in your settings.</p>
		</body>
		</html>
	`, user.Email, user.PreferredCurrency)

	return mail.NewSingleEmail(sender, subject, to, plainTextContent, htmlContent)
}
