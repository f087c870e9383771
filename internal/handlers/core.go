package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"

	"FaithGive/internal/database"
	"FaithGive/internal/gateway"
	"FaithGive/internal/giving"
	"FaithGive/internal/repository"
	"FaithGive/internal/services"
)

var validate = validator.New()

var (
	ledger              *giving.Ledger
	sessionManager      *giving.SessionManager
	retryCoordinator    *giving.RetryCoordinator
	planScheduler       *giving.Scheduler
	notificationService *services.NotificationService

	transactionRepo giving.TransactionRepository
	planRepo        giving.PlanRepository
	methodRepo      giving.MethodRepository
)

// InitGivingCore wires repositories, the gateway adapter and the core
// components together. Called once from main after the database is up.
func InitGivingCore(charger gateway.Charger) {
	db := database.DB

	transactionRepo = repository.NewGormTransactionRepository(db)
	sessionRepo := repository.NewGormSessionRepository(db)
	planRepo = repository.NewGormPlanRepository(db)
	methodRepo = repository.NewGormMethodRepository(db)
	categoryRepo := repository.NewGormCategoryRepository(db)

	ledger = giving.NewLedger(transactionRepo, methodRepo, categoryRepo)
	sessionManager = giving.NewSessionManager(sessionRepo, ledger, charger)
	retryCoordinator = giving.NewRetryCoordinator(transactionRepo, ledger, sessionManager)

	notificationService = services.NewNotificationService(services.NewEmailService())
	planScheduler = giving.NewScheduler(planRepo, methodRepo, ledger, sessionManager, notificationService)

	// Settlement fan-out: plans advance first, then the payer hears
	// about it.
	sessionManager.AddHook(planScheduler)
	sessionManager.AddHook(notificationService)

	log.Println("✅ Giving core initialized")
}

// Accessors for the background loops in main.

func SessionManager() *giving.SessionManager { return sessionManager }

func RetryCoordinator() *giving.RetryCoordinator { return retryCoordinator }

func PlanScheduler() *giving.Scheduler { return planScheduler }
