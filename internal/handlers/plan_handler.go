package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"FaithGive/internal/models"
)

type CreatePlanRequest struct {
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	CategoryID      uint   `json:"category_id" validate:"required"`
	PaymentMethodID uint   `json:"payment_method_id" validate:"required"`
	Frequency       string `json:"frequency" validate:"required,oneof=weekly monthly quarterly yearly"`
	StartDate       string `json:"start_date" validate:"required"`
	EndDate         string `json:"end_date"`
	MaxOccurrences  int    `json:"max_occurrences" validate:"gte=0"`
	PhoneNumber     string `json:"phone_number"`
	Network         string `json:"network"`
}

// CreatePlan sets up a standing gift. The first charge happens on the
// start date; the scheduler owns everything after that.
func CreatePlan(c *fiber.Ctx) error {
	req := new(CreatePlanRequest)
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
	if !method.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Payment method is not available",
		})
	}
	if method.RequiresGatewaySession && (req.PhoneNumber == "" || req.Network == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("%s plans require phone_number and network", method.Name),
		})
	}
	if req.Amount < method.MinAmount {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Minimum amount for %s is %d", method.Name, method.MinAmount),
		})
	}
	if method.MaxAmount > 0 && req.Amount > method.MaxAmount {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Maximum amount for %s is %d", method.Name, method.MaxAmount),
		})
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "start_date must be YYYY-MM-DD",
		})
	}

	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "end_date must be YYYY-MM-DD",
			})
		}
		if !parsed.After(startDate) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "end_date must be after start_date",
			})
		}
		endDate = &parsed
	}

	plan := &models.RecurringPlan{
		MemberID:       memberID,
		MethodID:       req.PaymentMethodID,
		CategoryID:     req.CategoryID,
		Amount:         req.Amount,
		Currency:       method.Currency,
		Frequency:      models.PlanFrequency(req.Frequency),
		StartDate:      startDate,
		EndDate:        endDate,
		NextDueDate:    startDate,
		Status:         models.PlanActive,
		IsActive:       true,
		MaxOccurrences: req.MaxOccurrences,
		PhoneNumber:    req.PhoneNumber,
		Network:        req.Network,
	}

	if err := planRepo.Create(plan); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create plan",
		})
	}

	notificationService.NotifyPlanCreated(plan)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Recurring gift created",
		"plan":    planView(plan),
	})
}

// GetMyPlans lists the member's plans.
func GetMyPlans(c *fiber.Ctx) error {
	memberID := c.Locals("member_id").(uint)

	plans, err := planRepo.ListByMember(memberID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve plans",
		})
	}

	views := make([]fiber.Map, 0, len(plans))
	for i := range plans {
		views = append(views, planView(&plans[i]))
	}

	return c.JSON(fiber.Map{
		"plans": views,
		"count": len(views),
	})
}

// PausePlan suspends a standing gift at the member's request.
func PausePlan(c *fiber.Ctx) error {
	plan, errResp := loadOwnPlan(c)
	if plan == nil {
		return errResp
	}

	if plan.Status != models.PlanActive {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": fmt.Sprintf("Cannot pause a %s plan", plan.Status),
		})
	}

	plan.Status = models.PlanPaused
	plan.IsActive = false
	if err := planRepo.Save(plan); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update plan",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Plan paused",
		"plan":    planView(plan),
	})
}

// ResumePlan reactivates a paused plan and forgives past failures.
func ResumePlan(c *fiber.Ctx) error {
	plan, errResp := loadOwnPlan(c)
	if plan == nil {
		return errResp
	}

	if plan.Status != models.PlanPaused {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": fmt.Sprintf("Cannot resume a %s plan", plan.Status),
		})
	}

	plan.Status = models.PlanActive
	plan.IsActive = true
	plan.FailureCount = 0
	if err := planRepo.Save(plan); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update plan",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Plan resumed",
		"plan":    planView(plan),
	})
}

// CancelPlan permanently ends a standing gift.
func CancelPlan(c *fiber.Ctx) error {
	plan, errResp := loadOwnPlan(c)
	if plan == nil {
		return errResp
	}

	if plan.Status == models.PlanCancelled || plan.Status == models.PlanCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": fmt.Sprintf("Plan is already %s", plan.Status),
		})
	}

	plan.Status = models.PlanCancelled
	plan.IsActive = false
	if err := planRepo.Save(plan); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update plan",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Plan cancelled",
	})
}

func loadOwnPlan(c *fiber.Ctx) (*models.RecurringPlan, error) {
	memberID := c.Locals("member_id").(uint)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan id",
		})
	}

	plan, err := planRepo.GetByID(uint(id))
	if err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}
	if plan.MemberID != memberID {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not your plan",
		})
	}
	return plan, nil
}

func planView(p *models.RecurringPlan) fiber.Map {
	view := fiber.Map{
		"id":                 p.ID,
		"amount":             p.Amount,
		"currency":           p.Currency,
		"frequency":          p.Frequency,
		"category_id":        p.CategoryID,
		"method_id":          p.MethodID,
		"start_date":         p.StartDate.Format("2006-01-02"),
		"next_due_date":      p.NextDueDate.Format("2006-01-02"),
		"status":             p.Status,
		"is_active":          p.IsActive,
		"occurrences_so_far": p.OccurrencesSoFar,
		"max_occurrences":    p.MaxOccurrences,
		"failure_count":      p.FailureCount,
	}
	if p.EndDate != nil {
		view["end_date"] = p.EndDate.Format("2006-01-02")
	}
	if p.LastPaymentDate != nil {
		view["last_payment_date"] = p.LastPaymentDate.Format("2006-01-02")
	}
	return view
}
