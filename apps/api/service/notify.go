package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"go-storefront/apps/api/model"
	"go-storefront/pkg/mail"

	"gorm.io/gorm"
)

// MailJob is the message placed on the mail queue. Bodies are rebuilt by
// the worker from current data, so the job only carries identity.
type MailJob struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
}

// Enqueuer hands a mail job to the queue. The queue side is fire and
// forget: enqueue failures are logged by callers and never propagated.
type Enqueuer interface {
	Enqueue(ctx context.Context, job MailJob) error
}

// QueueEnqueuer adapts a raw message publisher to mail jobs.
type QueueEnqueuer struct {
	Publisher interface {
		Publish(ctx context.Context, body []byte) error
	}
}

func (q *QueueEnqueuer) Enqueue(ctx context.Context, job MailJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.Publisher.Publish(ctx, body)
}

// Notifier is the mail worker: it consumes jobs, attempts delivery through
// the transport and records the outcome in the email log. A delivery
// failure ends as a FAILED log row, never as an error for the operation
// that triggered the mail.
type Notifier struct {
	db        *gorm.DB
	transport mail.Transport
}

func NewNotifier(db *gorm.DB, transport mail.Transport) *Notifier {
	return &Notifier{db: db, transport: transport}
}

// HandleMessage is the queue-consumer callback.
func (n *Notifier) HandleMessage(ctx context.Context, body []byte) error {
	var job MailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("bad mail job: %w", err)
	}

	switch job.Type {
	case model.EmailTypeWelcome:
		return n.SendWelcome(ctx, job.UserID)
	case model.EmailTypeLowStockAlert:
		return n.SendLowStockAlert(ctx, job.UserID)
	default:
		return fmt.Errorf("unknown mail job type %q", job.Type)
	}
}

// SendWelcome greets a newly registered user.
func (n *Notifier) SendWelcome(ctx context.Context, userID int64) error {
	var u model.User
	if err := n.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return err
	}

	subject := "Welcome to our store"
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome aboard! Your %s account has been created.\n\nStart browsing our products and enjoy your shopping experience.",
		u.Username, strings.ToLower(u.Role),
	)

	n.deliver(ctx, &u, model.EmailTypeWelcome, subject, body)
	return nil
}

// SendLowStockAlert mails a seller the list of all their low-stock active
// products.
func (n *Notifier) SendLowStockAlert(ctx context.Context, sellerID int64) error {
	var seller model.User
	if err := n.db.WithContext(ctx).First(&seller, sellerID).Error; err != nil {
		return err
	}

	var products []model.Product
	err := n.db.WithContext(ctx).
		Where("seller_id = ? AND stock_quantity <= ? AND is_active = ?", sellerID, model.LowStockThreshold, true).
		Find(&products).Error
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}

	var lines []string
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s: %d left (SKU: %s)", p.Name, p.StockQuantity, p.Sku))
	}

	subject := "Low Stock Alert - Action Required"
	body := fmt.Sprintf(
		"Hi %s,\n\nThe following products are running low on stock:\n\n%s\n\nPlease consider restocking to avoid missed sales.",
		seller.Username, strings.Join(lines, "\n"),
	)

	n.deliver(ctx, &seller, model.EmailTypeLowStockAlert, subject, body)
	return nil
}

// deliver attempts delivery and writes the terminal log row. PENDING rows
// only ever move to SENT or FAILED here; BOUNCED arrives via provider
// callbacks outside this worker.
func (n *Notifier) deliver(ctx context.Context, u *model.User, emailType, subject, body string) {
	entry := model.EmailLog{
		RecipientEmail:  u.Email,
		RecipientUserID: &u.ID,
		EmailType:       emailType,
		Subject:         subject,
		Status:          model.EmailStatusPending,
	}

	if err := n.transport.Send(u.Email, subject, body); err != nil {
		entry.Status = model.EmailStatusFailed
		entry.ErrorMessage = err.Error()
		log.Printf("mail delivery failed to %s (%s): %v", u.Email, emailType, err)
	} else {
		now := time.Now()
		entry.Status = model.EmailStatusSent
		entry.SentAt = &now
	}

	if err := n.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("email log write failed for %s: %v", u.Email, err)
	}
}
