package database

import (
	"errors"
	"fmt"
	"strings"

	"zalama/config"
	"zalama/internal/domain"
	"zalama/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Tracing {
		if err := db.Use(otelgorm.NewPlugin()); err != nil {
			return nil, fmt.Errorf("otelgorm: %w", err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Partner{},
		&models.Employee{},
		&models.SalaryAdvanceRequest{},
		&models.Transaction{},
		&models.Reimbursement{},
		&models.ReimbursementHistory{},
		&models.Notification{},
		&models.AuditLog{},
	)
}

// SeedAdmin creates the first ADMIN account when none exists. Empty credentials skip seeding.
func SeedAdmin(db *gorm.DB, email, password string, log *logrus.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	var existing models.User
	err := db.Where("role = ?", domain.RoleAdmin).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u := &models.User{Email: email, PasswordHash: string(hash), Role: domain.RoleAdmin, DisplayName: "Administrateur", Actif: true}
	if err := db.Create(u).Error; err != nil {
		return err
	}
	log.WithField("email", email).Info("seeded admin account")
	return nil
}
