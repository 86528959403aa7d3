package testutils

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/whisky55/rede-social/realtime"
	"github.com/whisky55/rede-social/social"
	"github.com/whisky55/rede-social/store"
	"github.com/whisky55/rede-social/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const TestJWTSecret = "test-secret"

func SetupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Erreur lors de la création de la connexion SQL mock: %s", err)
	}

	newLogger := logger.New(
		log.New(io.Discard, "", log.LstdFlags),
		logger.Config{
			LogLevel: logger.Silent,
		},
	)

	dialector := postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		t.Fatalf("Erreur lors de l'ouverture de la connexion GORM: %s", err)
	}

	cleanup := func() {
		sqlDB.Close()
	}

	return gormDB, mock, cleanup
}

// Env regroupe un service complet sur un store mémoire
type Env struct {
	Store   *store.Memory
	Hub     *realtime.Hub
	Media   *FakeMedia
	Service *social.Service
}

func NewTestEnv(t *testing.T) *Env {
	t.Helper()
	st := store.NewMemory()
	hub := realtime.NewHub(64)
	media := &FakeMedia{}
	svc := social.NewService(st, hub, media, social.Options{
		Timeout:     time.Second,
		MaxAttempts: 8,
		Backoff:     time.Millisecond,
		PageSize:    20,
	})
	return &Env{Store: st, Hub: hub, Media: media, Service: svc}
}

func SetupTestRouter() *gin.Engine {
	r := gin.New()
	return r
}

func InitTestMain() {
	gin.SetMode(gin.TestMode)
	utils.Logger.SetOutput(io.Discard)
}

// Token signe un JWT de test pour l'utilisateur donné
func Token(t *testing.T, userID, name, email string) string {
	t.Helper()
	token, err := utils.GenerateJWT(utils.Claims{UserID: userID, Name: name, Email: email}, TestJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Erreur lors de la génération du token: %s", err)
	}
	return token
}
