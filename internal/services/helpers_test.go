package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-repairs/internal/db"
	"github.com/diewo77/go-repairs/internal/metrics"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/policy"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	gate    *policy.AuthGate
	metrics *metrics.Metrics
	now     time.Time

	repairs        *RepairService
	tracking       *TrackingService
	accounts       *AccountService
	establishments *EstablishmentService
	clients        *ClientService
	quotes         *QuoteService
}

func newTestEnv(t *testing.T, admins ...string) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.OpenSQLite("file:"+name+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	e := &testEnv{db: conn, metrics: metrics.New(), now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	resolver := policy.NewActorResolver(conn, policy.NewEmailAllowlist(admins), time.Minute, time.Second)
	e.gate = policy.NewAuthGate(resolver)
	opts := Options{StoreTimeout: time.Second, Metrics: e.metrics, Now: func() time.Time { return e.now }}
	e.repairs = NewRepairService(conn, e.gate, opts)
	e.tracking = NewTrackingService(e.repairs, e.metrics)
	e.accounts = NewAccountService(conn, 14, opts)
	e.establishments = NewEstablishmentService(conn, e.gate, opts)
	e.clients = NewClientService(conn, e.gate, opts)
	e.quotes = NewQuoteService(conn, e.gate, opts)
	return e
}

// signup registers a shop owner and returns the user and establishment ids.
func (e *testEnv) signup(t *testing.T, email, shop string) (uint, uint) {
	t.Helper()
	u, est, err := e.accounts.Register(context.Background(), SignupInput{
		Email:    email,
		Password: "correct-horse",
		Name:     "Owner",
		ShopName: shop,
		Phone:    "0102030405",
		Address:  "1 rue de la Paix",
	})
	require.NoError(t, err)
	return u.ID, est.ID
}

// newUser inserts a user without an establishment.
func (e *testEnv) newUser(t *testing.T, email string) uint {
	t.Helper()
	u := models.User{Email: email, Name: "Newcomer", Password: "x"}
	require.NoError(t, e.db.Create(&u).Error)
	return u.ID
}

func (e *testEnv) storedStatus(t *testing.T, id uint) models.RepairStatus {
	t.Helper()
	var r models.Repair
	require.NoError(t, e.db.First(&r, id).Error)
	return r.Status
}

func ptr[T any](v T) *T { return &v }
