package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"FaithGive/internal/giving"
	"FaithGive/internal/models"
)

type GiveRequest struct {
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	CategoryID      uint   `json:"category_id" validate:"required"`
	PaymentMethodID uint   `json:"payment_method_id" validate:"required"`
	PhoneNumber     string `json:"phone_number"`
	Network         string `json:"network"`
	Description     string `json:"description"`
}

type ConfirmGiftRequest struct {
	ReceiptNumber string `json:"receipt_number"`
}

type RefundRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// InitiateGift starts a new gift. Gateway rails get a session and a
// charge prompt on the payer's handset; manual rails stay pending until
// a clerk confirms them.
func InitiateGift(c *fiber.Ctx) error {
	req := new(GiveRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	memberID := c.Locals("member_id").(uint)

	method, err := methodRepo.GetByID(req.PaymentMethodID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Payment method not found",
		})
	}
	if method.RequiresGatewaySession && (req.PhoneNumber == "" || req.Network == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("%s payments require phone_number and network", method.Name),
		})
	}

	tx, err := ledger.Create(giving.CreateInput{
		MemberID:    memberID,
		MethodID:    req.PaymentMethodID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: req.Description,
		PhoneNumber: req.PhoneNumber,
		Network:     req.Network,
		CreatedBy:   fmt.Sprintf("member:%d", memberID),
	})
	if err != nil {
		switch {
		case errors.Is(err, giving.ErrInvalidAmount), errors.Is(err, giving.ErrMethodInactive):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, giving.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create transaction",
			})
		}
	}

	if !method.RequiresGatewaySession {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":     "Gift recorded. It will reflect once confirmed.",
			"transaction": transactionView(tx),
		})
	}

	session, err := sessionManager.OpenSession(tx)
	if err != nil {
		failed, loadErr := ledger.Get(tx.ID)
		if loadErr != nil {
			failed = tx
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":       "Payment could not be initiated",
			"transaction": transactionView(failed),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Approve the payment prompt on your phone to complete your gift.",
		"transaction": transactionView(tx),
		"session": fiber.Map{
			"session_id": session.SessionID,
			"expires_at": session.ExpiresAt,
		},
	})
}

// ConfirmGift settles a manual-rail transaction (cash counted, bank
// transfer sighted, refund paid out). Gateway-rail payments settle
// through the webhook, never here.
func ConfirmGift(c *fiber.Ctx) error {
	reference := c.Params("reference")
	adminID := c.Locals("member_id").(uint)

	req := new(ConfirmGiftRequest)
	if err := c.BodyParser(req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	tx, err := ledger.GetByReference(reference)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transaction not found",
		})
	}

	if tx.Type == models.TransactionPayment {
		method, err := methodRepo.GetByID(tx.MethodID)
		if err == nil && method.RequiresGatewaySession {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Gateway payments are settled by the gateway callback",
			})
		}
	}

	if tx.Status == models.TransactionPending {
		if err := ledger.MarkProcessing(tx.ID); err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
	}

	settlementID := req.ReceiptNumber
	if settlementID == "" {
		settlementID = "MANUAL-" + tx.Reference
	}

	err = ledger.MarkCompleted(tx.ID, settlementID, time.Now(), fmt.Sprintf("admin:%d", adminID))
	if err != nil {
		switch {
		case errors.Is(err, giving.ErrDuplicateSettlement), errors.Is(err, giving.ErrInvalidTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to complete transaction",
			})
		}
	}

	settled, err := ledger.Get(tx.ID)
	if err != nil {
		log.Printf("confirm: reloading %s: %v", reference, err)
		settled = tx
	} else {
		// Manual settlements bypass the session manager, so run the
		// same fan-out it would have run.
		planScheduler.TransactionCompleted(settled)
		notificationService.TransactionCompleted(settled)
	}

	return c.JSON(fiber.Map{
		"message":     "Transaction completed",
		"transaction": transactionView(settled),
	})
}

// CancelGift withdraws a pending manual gift before it is confirmed.
func CancelGift(c *fiber.Ctx) error {
	reference := c.Params("reference")
	memberID := c.Locals("member_id").(uint)

	tx, err := ledger.GetByReference(reference)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transaction not found",
		})
	}
	if tx.MemberID != memberID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not your transaction",
		})
	}

	if err := ledger.MarkCancelled(tx.ID, fmt.Sprintf("member:%d", memberID)); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"message": "Gift cancelled",
	})
}

// RefundGift opens a refund transaction against a completed gift.
func RefundGift(c *fiber.Ctx) error {
	reference := c.Params("reference")
	adminID := c.Locals("member_id").(uint)

	req := new(RefundRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	original, err := ledger.GetByReference(reference)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transaction not found",
		})
	}

	refund, err := ledger.Refund(original.ID, req.Amount, fmt.Sprintf("admin:%d", adminID))
	if err != nil {
		switch {
		case errors.Is(err, giving.ErrRefundExceedsOriginal), errors.Is(err, giving.ErrInvalidAmount):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, giving.ErrInvalidTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create refund",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Refund created. It will reflect once paid out and confirmed.",
		"transaction": transactionView(refund),
	})
}

// GetGivingHistory returns the member's transactions, newest first.
func GetGivingHistory(c *fiber.Ctx) error {
	memberID := c.Locals("member_id").(uint)

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	txs, err := transactionRepo.ListByMember(memberID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve transactions",
		})
	}

	views := make([]fiber.Map, 0, len(txs))
	for i := range txs {
		views = append(views, transactionView(&txs[i]))
	}

	return c.JSON(fiber.Map{
		"transactions": views,
		"count":        len(views),
	})
}

// GetTransactionByReference returns one transaction. Members only see
// their own; staff see everything.
func GetTransactionByReference(c *fiber.Ctx) error {
	reference := c.Params("reference")
	memberID := c.Locals("member_id").(uint)
	role, _ := c.Locals("role").(string)

	tx, err := ledger.GetByReference(reference)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transaction not found",
		})
	}
	if tx.MemberID != memberID && role != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not your transaction",
		})
	}

	return c.JSON(fiber.Map{
		"transaction": transactionView(tx),
	})
}

// transactionView is the read-only projection collaborators consume.
func transactionView(tx *models.Transaction) fiber.Map {
	view := fiber.Map{
		"id":             tx.ID,
		"reference":      tx.Reference,
		"type":           tx.Type,
		"gross_amount":   tx.GrossAmount,
		"fee_amount":     tx.FeeAmount,
		"net_amount":     tx.NetAmount,
		"currency":       tx.Currency,
		"status":         tx.Status,
		"payment_status": tx.PaymentStatus,
		"category_id":    tx.CategoryID,
		"method_id":      tx.MethodID,
		"description":    tx.Description,
		"retry_count":    tx.RetryCount,
		"created_at":     tx.CreatedAt,
	}
	if tx.FailureReason != "" {
		view["failure_reason"] = tx.FailureReason
	}
	if tx.ProcessedAt != nil {
		view["processed_at"] = tx.ProcessedAt
	}
	if tx.OriginalTxID != nil {
		view["original_tx_id"] = *tx.OriginalTxID
	}
	return view
}
