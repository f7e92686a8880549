package notification

import (
	"context"
	"log/slog"
)

const (
	// KindWalletCreated announces a freshly provisioned wallet.
	KindWalletCreated = "wallet_created"
	// KindDeposit announces minted funds arriving in a wallet.
	KindDeposit = "deposit"
	// KindTransferReceived announces an incoming transfer.
	KindTransferReceived = "transfer_received"
	// KindWithdrawal confirms a completed burn.
	KindWithdrawal = "withdrawal"
)

// Message describes an outbound notification. To is the recipient email.
type Message struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

// Notifier delivers notifications to wallet owners. Delivery is best effort:
// settlement never fails because a notification could not be sent.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger. Used in
// development mode and as the fallback when no mail provider is configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send logs the message instead of delivering it.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"to", message.To,
		"subject", message.Subject)
	return nil
}
