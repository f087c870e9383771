package services

import (
	"encoding/json"
	"fmt"
	"log"

	"FaithGive/internal/database"
	"FaithGive/internal/models"
)

// NotificationService fans giving events out to the payer: an in-app
// notification row always, an email when we have an address. It sits
// behind the settlement hooks so the core never knows about email.
type NotificationService struct {
	Email *EmailService
}

func NewNotificationService(email *EmailService) *NotificationService {
	return &NotificationService{Email: email}
}

// CreateNotification creates a new notification
func (s *NotificationService) CreateNotification(memberID uint, notifType models.NotificationType, title, message string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		jsonBytes, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
		dataJSON = string(jsonBytes)
	}

	notification := models.Notification{
		MemberID: memberID,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Data:     dataJSON,
		IsRead:   false,
	}

	if err := database.DB.Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// TransactionCompleted notifies the giver that their gift settled.
// Satisfies the giving settlement hook.
func (s *NotificationService) TransactionCompleted(tx *models.Transaction) {
	member, ok := s.member(tx.MemberID)
	amount := FormatAmount(tx.GrossAmount, tx.Currency)

	title := "Gift Received"
	message := fmt.Sprintf("Your gift of %s has been received. Reference: %s", amount, tx.Reference)
	if tx.Type == models.TransactionRefund {
		title = "Refund Processed"
		message = fmt.Sprintf("Your refund of %s has been processed. Reference: %s", amount, tx.Reference)
	}

	notifType := models.NotificationGiftReceived
	if tx.Type == models.TransactionRefund {
		notifType = models.NotificationRefundProcessed
	}

	if err := s.CreateNotification(tx.MemberID, notifType, title, message, map[string]interface{}{
		"reference": tx.Reference,
		"amount":    tx.GrossAmount,
		"currency":  tx.Currency,
	}); err != nil {
		log.Printf("notify: %v", err)
	}

	if ok && s.Email != nil && tx.Type == models.TransactionPayment {
		category := s.categoryName(tx.CategoryID)
		if err := s.Email.SendReceiptEmail(member.Email, member.FullName, tx.Reference, amount, category); err != nil {
			log.Printf("notify: receipt email for %s: %v", tx.Reference, err)
		}
	}
}

// TransactionFailed notifies the giver about a finally-failed gift with
// a readable reason. Satisfies the giving settlement hook.
func (s *NotificationService) TransactionFailed(tx *models.Transaction) {
	amount := FormatAmount(tx.GrossAmount, tx.Currency)
	reason := humanReason(tx.FailureReason)

	if err := s.CreateNotification(tx.MemberID, models.NotificationGiftFailed,
		"Gift Failed",
		fmt.Sprintf("Your gift of %s could not be processed: %s. Reference: %s", amount, reason, tx.Reference),
		map[string]interface{}{
			"reference": tx.Reference,
			"amount":    tx.GrossAmount,
			"currency":  tx.Currency,
			"reason":    tx.FailureReason,
		}); err != nil {
		log.Printf("notify: %v", err)
	}

	if member, ok := s.member(tx.MemberID); ok && s.Email != nil {
		if err := s.Email.SendPaymentFailedEmail(member.Email, member.FullName, tx.Reference, amount, reason); err != nil {
			log.Printf("notify: failure email for %s: %v", tx.Reference, err)
		}
	}
}

// PlanPaused tells the giver their standing gift stopped and why.
func (s *NotificationService) PlanPaused(p *models.RecurringPlan, reason string) {
	amount := FormatAmount(p.Amount, p.Currency)

	if err := s.CreateNotification(p.MemberID, models.NotificationPlanPaused,
		"Recurring Gift Paused",
		fmt.Sprintf("Your %s gift of %s was paused: %s", p.Frequency, amount, reason),
		map[string]interface{}{
			"plan_id": p.ID,
			"amount":  p.Amount,
			"reason":  reason,
		}); err != nil {
		log.Printf("notify: %v", err)
	}

	if member, ok := s.member(p.MemberID); ok && s.Email != nil {
		if err := s.Email.SendPlanPausedEmail(member.Email, member.FullName, amount, string(p.Frequency), reason); err != nil {
			log.Printf("notify: plan paused email for plan %d: %v", p.ID, err)
		}
	}
}

// PlanCompleted tells the giver their standing gift ran its course.
func (s *NotificationService) PlanCompleted(p *models.RecurringPlan) {
	amount := FormatAmount(p.Amount, p.Currency)

	if err := s.CreateNotification(p.MemberID, models.NotificationPlanCompleted,
		"Recurring Gift Completed",
		fmt.Sprintf("Your %s gift of %s has completed. Thank you for your faithfulness!", p.Frequency, amount),
		map[string]interface{}{
			"plan_id":     p.ID,
			"occurrences": p.OccurrencesSoFar,
		}); err != nil {
		log.Printf("notify: %v", err)
	}
}

// NotifyPlanCreated confirms a new standing gift.
func (s *NotificationService) NotifyPlanCreated(p *models.RecurringPlan) {
	amount := FormatAmount(p.Amount, p.Currency)

	if err := s.CreateNotification(p.MemberID, models.NotificationPlanCreated,
		"Recurring Gift Created",
		fmt.Sprintf("Your %s gift of %s starts on %s.", p.Frequency, amount, p.NextDueDate.Format("2 Jan 2006")),
		map[string]interface{}{
			"plan_id": p.ID,
			"amount":  p.Amount,
		}); err != nil {
		log.Printf("notify: %v", err)
	}
}

func (s *NotificationService) member(memberID uint) (*models.Member, bool) {
	var member models.Member
	if err := database.DB.First(&member, memberID).Error; err != nil {
		log.Printf("notify: loading member %d: %v", memberID, err)
		return nil, false
	}
	return &member, true
}

func (s *NotificationService) categoryName(categoryID uint) string {
	var category models.GivingCategory
	if err := database.DB.First(&category, categoryID).Error; err != nil {
		return "your selected fund"
	}
	return category.Name
}

// humanReason turns a machine failure reason into a payer-facing phrase.
func humanReason(reason string) string {
	switch reason {
	case "insufficient_funds":
		return "insufficient funds on your mobile money wallet"
	case "invalid_phone":
		return "the phone number was not recognised by the network"
	case "user_declined":
		return "the payment request was declined"
	case "session_expired":
		return "the payment request was not approved in time"
	case "network_error", "timeout", "gateway_busy":
		return "a temporary network problem"
	default:
		return "an unexpected error"
	}
}
