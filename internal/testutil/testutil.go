// Package testutil provides an in-memory database and a small seeded
// catalog shared by package tests.
package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/database"
)

// Passwords of the seeded users.
const (
	AdminPassword = "admin-pass"
	UserPassword  = "user-pass"
)

// NewDB returns a migrated, empty in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	log := zap.NewNop()
	db, err := database.NewSQLiteDB(":memory:", false, log)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, log))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Fixtures is the seeded catalog.
type Fixtures struct {
	NoDiscount  entity.ClientGroup
	Fifteen     entity.ClientGroup
	Ten         entity.ClientGroup
	ClientA     entity.Client // 0% group
	ClientB     entity.Client // 15% group
	ClientC     entity.Client // 10% group
	NoGroup     entity.Client
	P1          entity.Product // 10.00 kg
	P2          entity.Product // 20.00 kg
	Special5    entity.Product // 5.00, special
	Special100  entity.Product // 100.00, special
	Admin       entity.SystemUser
	User        entity.SystemUser
	OtherAdmin  entity.SystemUser
	InactiveAdm entity.SystemUser
}

// Dec parses a decimal literal or fails the test.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Seed inserts the fixture catalog and users.
func Seed(t *testing.T, db *gorm.DB) *Fixtures {
	t.Helper()
	f := &Fixtures{
		NoDiscount: entity.ClientGroup{Key: "MAY", DiscountPercent: Dec("0")},
		Fifteen:    entity.ClientGroup{Key: "RES", DiscountPercent: Dec("15")},
		Ten:        entity.ClientGroup{Key: "MED", DiscountPercent: Dec("10")},
	}
	require.NoError(t, db.Create(&f.NoDiscount).Error)
	require.NoError(t, db.Create(&f.Fifteen).Error)
	require.NoError(t, db.Create(&f.Ten).Error)

	f.ClientA = entity.Client{Name: "Abarrotes Lupita", GroupID: &f.NoDiscount.ID}
	f.ClientB = entity.Client{Name: "Restaurante El Bajio", GroupID: &f.Fifteen.ID}
	f.ClientC = entity.Client{Name: "Cocina Central", GroupID: &f.Ten.ID}
	f.NoGroup = entity.Client{Name: "Zacarias Mostrador"}
	for _, c := range []*entity.Client{&f.ClientA, &f.ClientB, &f.ClientC, &f.NoGroup} {
		require.NoError(t, db.Create(c).Error)
	}

	f.P1 = entity.Product{Name: "Jitomate", Unit: "kg", BasePrice: Dec("10.00"), Stock: Dec("120")}
	f.P2 = entity.Product{Name: "Aguacate", Unit: "kg", BasePrice: Dec("20.00"), Stock: Dec("40.5")}
	f.Special5 = entity.Product{Name: "Trufa", Unit: "pz", BasePrice: Dec("5.00"), IsSpecial: true}
	f.Special100 = entity.Product{Name: "Azafran", Unit: "g", BasePrice: Dec("100.00"), IsSpecial: true}
	for _, p := range []*entity.Product{&f.P1, &f.P2, &f.Special5, &f.Special100} {
		require.NoError(t, db.Create(p).Error)
	}

	f.Admin = newUser(t, "admin", AdminPassword, enum.RoleAdmin)
	f.OtherAdmin = newUser(t, "gerente", AdminPassword, enum.RoleAdmin)
	f.User = newUser(t, "cajero", UserPassword, enum.RoleUser)
	f.InactiveAdm = newUser(t, "exadmin", AdminPassword, enum.RoleAdmin)
	for _, u := range []*entity.SystemUser{&f.Admin, &f.OtherAdmin, &f.User, &f.InactiveAdm} {
		require.NoError(t, db.Create(u).Error)
	}
	// Active has a default of true, so it has to be cleared after insert.
	require.NoError(t, db.Model(&f.InactiveAdm).Update("active", false).Error)
	f.InactiveAdm.Active = false

	return f
}

func newUser(t *testing.T, username, password string, role enum.Role) entity.SystemUser {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return entity.SystemUser{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     username,
		Role:         role,
		Active:       true,
	}
}
