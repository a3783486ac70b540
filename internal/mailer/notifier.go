package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/takopi/backend/internal/metrics"
	"github.com/takopi/backend/internal/models"
)

const defaultSendTimeout = 15 * time.Second

// Notifier renders the transactional templates and sends them in the background.
type Notifier struct {
	sender  Sender
	baseURL string
	log     logrus.FieldLogger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotifier(sender Sender, baseURL string, log logrus.FieldLogger) *Notifier {
	return &Notifier{
		sender:  sender,
		baseURL: baseURL,
		log:     log,
		timeout: defaultSendTimeout,
	}
}

// Wait blocks until every queued send has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) Welcome(user *models.User) {
	n.dispatch(TemplateWelcome, user.Email, subject(TemplateWelcome), map[string]interface{}{
		"Name":     user.Name(),
		"Username": user.Username,
		"BaseURL":  n.baseURL,
	})
}

func (n *Notifier) PurchaseReceipt(buyer *models.User, content *models.Content, purchase *models.Purchase) {
	n.dispatch(TemplatePurchaseReceipt, buyer.Email, subject(TemplatePurchaseReceipt, content.Title), map[string]interface{}{
		"Name":      buyer.Name(),
		"Title":     content.Title,
		"Amount":    FormatPrice(purchase.Price, purchase.Currency),
		"Reference": purchase.Reference,
		"ContentID": content.ID.Hex(),
		"BaseURL":   n.baseURL,
	})
}

func (n *Notifier) SaleNotification(seller, buyer *models.User, content *models.Content, purchase *models.Purchase) {
	n.dispatch(TemplateSale, seller.Email, subject(TemplateSale, content.Title), map[string]interface{}{
		"Name":      seller.Name(),
		"Buyer":     buyer.Username,
		"Title":     content.Title,
		"Amount":    FormatPrice(purchase.Price, purchase.Currency),
		"Reference": purchase.Reference,
	})
}

func (n *Notifier) NewFollower(target, follower *models.User) {
	n.dispatch(TemplateNewFollower, target.Email, subject(TemplateNewFollower, follower.Username), map[string]interface{}{
		"Name":       target.Name(),
		"Follower":   follower.Username,
		"FollowerID": follower.ID,
		"BaseURL":    n.baseURL,
	})
}

func (n *Notifier) GenerationReady(user *models.User, gen *models.Generation) {
	n.dispatch(TemplateGenerationReady, user.Email, subject(TemplateGenerationReady), map[string]interface{}{
		"Name":         user.Name(),
		"Prompt":       gen.Prompt,
		"GenerationID": gen.ID.Hex(),
		"BaseURL":      n.baseURL,
	})
}

func (n *Notifier) dispatch(tmpl, to, subj string, data map[string]interface{}) {
	entry := n.log.WithFields(logrus.Fields{"template": tmpl, "to": to})

	html, err := render(tmpl, data)
	if err != nil {
		entry.WithError(err).Error("failed to render email")
		metrics.RecordEmail(tmpl, err)
		return
	}
	msg := Message{To: []string{to}, Subject: subj, HTML: html}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		// the request context may already be gone when this runs
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		err := n.sender.Send(ctx, msg)
		metrics.RecordEmail(tmpl, err)
		if err != nil {
			entry.WithError(err).Warn("failed to send email")
			return
		}
		entry.Debug("email sent")
	}()
}
