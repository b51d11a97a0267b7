// Package dbtest opens an in-memory SQLite database with the application
// schema for service tests.
package dbtest

import (
	"strings"
	"testing"

	bookingdomain "github.com/clubhive/clubhive/internal/booking/domain"
	eventdomain "github.com/clubhive/clubhive/internal/event/domain"
	paymentdomain "github.com/clubhive/clubhive/internal/payment/domain"
	ticketdomain "github.com/clubhive/clubhive/internal/ticket/domain"
	userdomain "github.com/clubhive/clubhive/internal/user/domain"
	walletdomain "github.com/clubhive/clubhive/internal/wallet/domain"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Open returns a fresh in-memory database with every table migrated.
// SQLite has no row locks, so FOR UPDATE clauses are stripped before they
// reach the driver; single-connection mode keeps transactions serialized.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	stripForUpdate := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			newSQL := strings.ReplaceAll(sql, "FOR UPDATE SKIP LOCKED", "")
			newSQL = strings.ReplaceAll(newSQL, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(newSQL)
		}
	}
	if err := db.Callback().Query().Before("gorm:query").Register("sqlite_skip_locked", stripForUpdate); err != nil {
		t.Fatalf("register query callback: %v", err)
	}
	if err := db.Callback().Row().Before("gorm:row").Register("sqlite_skip_locked_row", stripForUpdate); err != nil {
		t.Fatalf("register row callback: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&userdomain.User{},
		&eventdomain.Event{},
		&ticketdomain.TicketType{},
		&bookingdomain.Booking{},
		&paymentdomain.Payment{},
		&walletdomain.Wallet{},
		&walletdomain.WalletTransaction{},
	)
	if err != nil {
		t.Fatalf("migrate schema: %v", err)
	}
	return db
}
