// services/notifier.go
package services

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"nft-mint-service/models"
)

// MintNotifier emails users when their mint confirms. Entirely optional:
// without an API key every call is a no-op, and send failures never affect
// the mint outcome.
type MintNotifier struct {
	apiKey      string
	fromName    string
	fromAddress string
	log         *logrus.Logger
}

func NewMintNotifier(apiKey, fromName, fromAddress string, log *logrus.Logger) *MintNotifier {
	return &MintNotifier{
		apiKey:      apiKey,
		fromName:    fromName,
		fromAddress: fromAddress,
		log:         log,
	}
}

func (n *MintNotifier) Enabled() bool {
	return n.apiKey != ""
}

// NotifyMinted sends a confirmation mail for a completed mint.
func (n *MintNotifier) NotifyMinted(email string, result *models.MintResult) {
	if !n.Enabled() {
		return
	}

	subject := fmt.Sprintf("Your NFT on %s is minted", result.Blockchain)
	body := fmt.Sprintf(
		"Your NFT was minted without any gas fees.\n\nToken ID: %s\nTransaction: %s\nWallet: %s\nMetadata: %s\n",
		result.TokenID, result.TxHash, result.WalletAddress, result.MetadataURI,
	)

	from := mail.NewEmail(n.fromName, n.fromAddress)
	to := mail.NewEmail("", email)
	message := mail.NewSingleEmail(from, subject, to, body, fmt.Sprintf("<pre>%s</pre>", body))

	client := sendgrid.NewSendClient(n.apiKey)
	response, err := client.Send(message)
	if err != nil {
		n.log.WithError(err).WithField("email", email).Warn("mint notification failed")
		return
	}
	if response.StatusCode >= 400 {
		n.log.WithFields(logrus.Fields{
			"email":  email,
			"status": response.StatusCode,
		}).Warn("mint notification rejected")
		return
	}

	n.log.WithField("email", email).Info("mint notification sent")
}
