package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/plateful/backend/internal/config"
	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	utils.SetJWTSecrets("test-access-secret-for-services", "test-refresh-secret-for-services")
}

// newTestDB opens an isolated in-memory sqlite database for one test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.JWT.AccessSecret = "test-access-secret-for-services"
	cfg.JWT.RefreshSecret = "test-refresh-secret-for-services"
	cfg.JWT.AccessExpireMinutes = 30
	cfg.Auth.MaxRefreshTokens = 20
	return cfg
}

func newTestAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewAuthService(db, testConfig()), db
}

func registerTestUser(t *testing.T, svc *AuthService, email string) *models.User {
	t.Helper()
	user, err := svc.Register(&RegisterRequest{
		Email:    email,
		Password: "pw123456",
		FullName: "Test User",
		HomeCity: "Tel Aviv",
	}, "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return user
}

func loginTestUser(t *testing.T, svc *AuthService, email string) *LoginResult {
	t.Helper()
	result, err := svc.Login(&LoginRequest{Email: email, Password: "pw123456"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return result
}

func registryTokens(t *testing.T, db *gorm.DB, userID uint) []string {
	t.Helper()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		t.Fatalf("failed to load user %d: %v", userID, err)
	}
	return user.RefreshTokens
}
