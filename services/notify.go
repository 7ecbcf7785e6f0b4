package services

import (
	"fmt"
	"log"
	"os"
	"time"

	"beautybiz-backend/models"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

type NotifyService struct {
	db     *gorm.DB
	client *twilio.RestClient
}

func NewNotifyService(db *gorm.DB) *NotifyService {
	// Initialize Twilio client
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &NotifyService{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
	}
}

// StartScheduler runs the nightly ledger sweep. Bills whose allocation rows
// drifted from their payments (crashed recompute, legacy import) get fully
// reallocated; the run is idempotent so sweeping an already-consistent bill
// is harmless.
func (s *NotifyService) StartScheduler() {
	c := cron.New()

	// Run every night at 2 AM
	c.AddFunc("0 2 * * *", func() {
		s.ResyncLedgers()
	})

	c.Start()
	log.Println("Ledger resync scheduler started")
}

// ResyncLedgers reallocates every bill whose allocation row count does not
// match two rows per payment, plus all open bills.
func (s *NotifyService) ResyncLedgers() {
	log.Println("Starting nightly ledger resync...")

	var billIDs []string
	err := s.db.Raw(`
		SELECT b.id FROM bills b
		LEFT JOIN payments p ON p.bill_id = b.id
		LEFT JOIN payment_allocations a ON a.bill_id = b.id
		GROUP BY b.id, b.status
		HAVING b.status = ? OR COUNT(DISTINCT a.id) <> 2 * COUNT(DISTINCT p.id)`,
		models.BillStatusOpen).Scan(&billIDs).Error
	if err != nil {
		log.Printf("Failed to list bills for resync: %v", err)
		return
	}

	alloc := NewAllocationService(s.db)
	resynced := 0
	for _, id := range billIDs {
		billID, err := uuid.Parse(id)
		if err != nil {
			log.Printf("Skipping bill with bad id %q: %v", id, err)
			continue
		}
		if err := alloc.Reallocate(billID); err != nil {
			log.Printf("Bill %s: resync failed: %v", id, err)
			continue
		}
		resynced++
	}

	log.Printf("Nightly ledger resync completed: %d bills", resynced)
}

// SendSettlementNotice texts the customer a receipt when their bill settles.
// Respects the branch notification toggles; failures are logged, never
// propagated, since the ledger itself is already consistent.
func (s *NotifyService) SendSettlementNotice(bill models.Bill) {
	var branch models.Branch
	if err := s.db.First(&branch, "id = ?", bill.BranchID).Error; err != nil {
		log.Printf("Bill %s: failed to load branch for notice: %v", bill.ID, err)
		return
	}
	if !branch.SettlementNotifications || !branch.SMSNotifications {
		return
	}
	if bill.CustomerID == nil {
		return
	}

	var customer models.Customer
	if err := s.db.First(&customer, "id = ?", *bill.CustomerID).Error; err != nil {
		log.Printf("Bill %s: failed to load customer for notice: %v", bill.ID, err)
		return
	}
	if customer.Phone == "" {
		return
	}

	message := fmt.Sprintf("Thank you for visiting %s! Your bill %s is fully paid.",
		branch.Name, bill.BillNumber)

	logEntry := models.NotificationLog{
		BranchID: bill.BranchID,
		BillID:   bill.ID,
		Phone:    customer.Phone,
		Message:  message,
		Channel:  "sms",
		SentAt:   time.Now(),
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(customer.Phone)
	params.SetFrom(os.Getenv("TWILIO_PHONE_NUMBER"))
	params.SetBody(message)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		log.Printf("Bill %s: failed to send settlement SMS: %v", bill.ID, err)
		logEntry.Status = "failed"
		logEntry.ErrorMessage = err.Error()
	} else {
		logEntry.Status = "sent"
	}

	if err := s.db.Create(&logEntry).Error; err != nil {
		log.Printf("Bill %s: failed to write notification log: %v", bill.ID, err)
	}
}
