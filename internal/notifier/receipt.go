// internal/notifier/receipt.go
package notifier

import (
	"context"
	"fmt"
	"strings"

	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/common/validation"
	postingsubmission "skillmatch/internal/dashboard/posting-submission"
)

// Sender delivers a plain-text email and returns the provider message ID.
type Sender interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

// ReceiptNotifier emails the submitting company a summary of an accepted
// posting.
type ReceiptNotifier struct {
	sender Sender
	logger logger.Logger
}

func NewReceiptNotifier(sender Sender, log logger.Logger) *ReceiptNotifier {
	return &ReceiptNotifier{
		sender: sender,
		logger: log.WithFields(map[string]interface{}{"component": "receipt-notifier"}),
	}
}

func (n *ReceiptNotifier) SendReceipt(ctx context.Context, receipt postingsubmission.Receipt) error {
	to := strings.TrimSpace(receipt.CompanyEmail)
	if !validation.ValidateEmail(to) {
		return errors.NewValidationError("companyEmail", fmt.Sprintf("invalid recipient address %q", receipt.CompanyEmail))
	}

	messageID, err := n.sender.SendText(ctx, to, receiptSubject(receipt), receiptBody(receipt))
	if err != nil {
		return errors.NewNetworkFailureError("email", err)
	}

	n.logger.Info("submission receipt sent", map[string]interface{}{
		"company":   receipt.CompanyName,
		"messageId": messageID,
	})
	return nil
}

func receiptSubject(r postingsubmission.Receipt) string {
	return fmt.Sprintf("Your %s posting is live", r.Role)
}

func receiptBody(r postingsubmission.Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", r.CompanyName)
	fmt.Fprintf(&b, "Your posting for %s has been received.\n\n", r.Role)
	fmt.Fprintf(&b, "Hiring type: %s\n", r.HiringType)
	fmt.Fprintf(&b, "Work mode:   %s\n", r.WorkMode)

	switch r.MatchCount {
	case 0:
		b.WriteString("\nNo candidates match yet. We will keep looking as new résumés arrive.\n")
	case 1:
		b.WriteString("\n1 candidate matches this posting.\n")
	default:
		fmt.Fprintf(&b, "\n%d candidates match this posting.\n", r.MatchCount)
	}

	b.WriteString("\nOpen your dashboard to review them.\n")
	return b.String()
}
