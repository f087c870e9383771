package database

import (
	"log"

	"FaithGive/internal/models"
)

func Migrate() error {
	log.Println("Running database migrations...")

	err := DB.AutoMigrate(
		&models.Member{},
		&models.PaymentMethod{},
		&models.GivingCategory{},
		&models.Transaction{},
		&models.GatewaySession{},
		&models.RecurringPlan{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}

	return seedConfig()
}

// seedConfig makes a fresh database usable: the standard giving rails
// and a starter set of categories. FirstOrCreate keeps reruns harmless.
func seedConfig() error {
	methods := []models.PaymentMethod{
		{
			Code: "momo", Name: "Mobile Money", Currency: "GHS",
			RequiresGatewaySession: true,
			FeeBps:                 100, // 1%
			MinAmount:              100, MaxAmount: 1000000,
		},
		{
			Code: "bank", Name: "Bank Transfer", Currency: "GHS",
			RequiresAccountNumber: true,
			MinAmount:             100,
		},
		{
			Code: "cash", Name: "Cash", Currency: "GHS",
			MinAmount: 1,
		},
	}
	for i := range methods {
		if err := DB.Where(models.PaymentMethod{Code: methods[i].Code}).
			Attrs(methods[i]).
			FirstOrCreate(&methods[i]).Error; err != nil {
			return err
		}
	}

	categories := []models.GivingCategory{
		{Code: "tithe", Name: "Tithe"},
		{Code: "offering", Name: "Offering"},
		{Code: "building_fund", Name: "Building Fund"},
		{Code: "missions", Name: "Missions"},
	}
	for i := range categories {
		if err := DB.Where(models.GivingCategory{Code: categories[i].Code}).
			Attrs(categories[i]).
			FirstOrCreate(&categories[i]).Error; err != nil {
			return err
		}
	}

	return nil
}
