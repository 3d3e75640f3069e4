package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/vbonduro/lostfound/internal/domain"
)

// Notifier tells a finder that an item they reported was claimed.
type Notifier interface {
	ItemClaimed(ctx context.Context, item *domain.Item) error
}

// Noop discards notifications.
type Noop struct{}

func (Noop) ItemClaimed(context.Context, *domain.Item) error { return nil }

type sender interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGrid emails the finder through the SendGrid v3 API. Finders whose
// contact is not an email address are skipped.
type SendGrid struct {
	client sender
	from   *sgmail.Email
	logger *slog.Logger
}

func NewSendGrid(apiKey, fromName, fromEmail string, logger *slog.Logger) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
}

func (s *SendGrid) ItemClaimed(ctx context.Context, item *domain.Item) error {
	to, ok := emailAddress(item.FinderContact)
	if !ok {
		s.logger.Debug("finder contact is not an email, skipping notification", "item_id", item.ID)
		return nil
	}

	resp, err := s.client.SendWithContext(ctx, claimMessage(s.from, sgmail.NewEmail(item.FinderName, to), item))
	if err != nil {
		return fmt.Errorf("failed to send claim email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send claim email: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	s.logger.Info("claim notification sent", "item_id", item.ID, "status", resp.StatusCode)
	return nil
}

func claimMessage(from, to *sgmail.Email, item *domain.Item) *sgmail.SGMailV3 {
	subject := fmt.Sprintf("Lost & Found: %q has been claimed", item.Title)

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\nThe item you reported, %q, found at %s, has been claimed.\n", item.FinderName, item.Title, item.Location)
	if item.Claim != nil {
		fmt.Fprintf(&text, "\nClaimed by: %s\n", item.Claim.Name)
		if item.Claim.Contact != "" {
			fmt.Fprintf(&text, "Contact: %s\n", item.Claim.Contact)
		}
		if item.Claim.Message != "" {
			fmt.Fprintf(&text, "Message: %s\n", item.Claim.Message)
		}
	}
	text.WriteString("\nThank you for handing it in.\n")

	message := sgmail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = subject

	p := sgmail.NewPersonalization()
	p.AddTos(to)
	message.AddPersonalizations(p)

	message.AddContent(sgmail.NewContent("text/plain", text.String()))
	return message
}

// emailAddress reports whether contact is a bare email address.
func emailAddress(contact string) (string, bool) {
	addr, err := mail.ParseAddress(strings.TrimSpace(contact))
	if err != nil || addr.Name != "" {
		return "", false
	}
	return addr.Address, true
}
