package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"prefect-admin/internal/config"
	"prefect-admin/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var retryDelay = 2 * time.Second

// Open connects to the configured database, retrying while it comes up.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= cfg.DBConnectAttempts; i++ {
		slog.Info("connecting to database", "driver", cfg.DBDriver, "attempt", i, "of", cfg.DBConnectAttempts)

		db, err = gorm.Open(dialector(cfg.DBDriver, cfg.DBDSN), gcfg)
		if err == nil {
			slog.Info("connected to database")
			break
		}

		slog.Warn("failed to connect to database", "error", err)
		if i < cfg.DBConnectAttempts {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to db after %d attempts: %w", cfg.DBConnectAttempts, err)
	}

	if cfg.DBDriver == "sqlite" {
		// one writer; keeps in-memory databases on a single connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func dialector(driver, dsn string) gorm.Dialector {
	if driver == "sqlite" {
		return sqlite.Open(dsn)
	}
	return postgres.Open(dsn)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Enterprise{},
		&models.Contract{},
		&models.Project{},
		&models.ProjectPrefect{},
		&models.PrefectOpinion{},
		&models.AuditLog{},
	)
}

type seedUser struct {
	Username string
	NickName string
	Password string
	Role     models.UserRole
}

// demo accounts, one per workflow role
var defaultUsers = []seedUser{
	{Username: "creator", NickName: "Project Creator", Password: "Creator123!", Role: models.RoleCreator},
	{Username: "engineer", NickName: "Engineer", Password: "Eng123!", Role: models.RoleEngineer},
	{Username: "reviewer2", NickName: "Second Reviewer", Password: "Review123!", Role: models.RoleSecondReviewer},
	{Username: "reviewer3", NickName: "Third Reviewer", Password: "Review123!", Role: models.RoleThirdReviewer},
	{Username: "archiver", NickName: "Archiver", Password: "Archive123!", Role: models.RoleArchiver},
}

// Seed creates the admin account and the demo users if they are missing.
func Seed(ctx context.Context, db *gorm.DB, adminUsername, adminPassword string) error {
	var admins int64
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&admins).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if admins == 0 {
		err := createUser(ctx, db, seedUser{
			Username: adminUsername,
			NickName: "Administrator",
			Password: adminPassword,
			Role:     models.RoleAdmin,
		})
		if err != nil {
			return err
		}
		slog.Info("created default admin user", "username", adminUsername)
	}

	for _, u := range defaultUsers {
		var existing models.User
		err := db.WithContext(ctx).Where("username = ?", u.Username).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Warn("failed to check seed user", "username", u.Username, "error", err)
			continue
		}
		if err := createUser(ctx, db, u); err != nil {
			slog.Warn("failed to create seed user", "username", u.Username, "error", err)
			continue
		}
		slog.Info("created seed user", "username", u.Username, "role", u.Role)
	}
	return nil
}

func createUser(ctx context.Context, db *gorm.DB, u seedUser) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", u.Username, err)
	}
	user := models.User{
		Username:     u.Username,
		NickName:     u.NickName,
		PasswordHash: string(hash),
		Role:         u.Role,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return nil
}
