package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrContention        = errors.New("row lock contention")
)

type User struct {
	ID uint `gorm:"primaryKey"`

	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`

	// Balance in the smallest coin denomination. The check constraint
	// backs up the pre-checks done under the row lock.
	Coins int `gorm:"not null;default:1000;check:coins >= 0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

// GetOrCreate inserts the user with the starting balance, or returns the
// existing row when the username is already taken. The insert-or-fetch is
// a single ON CONFLICT DO NOTHING statement, safe under concurrent signups
// for the same username.
func (d *UserDAO) GetOrCreate(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoNothing: true,
		}).
		Create(&user)
	if result.Error != nil {
		return User{}, result.Error
	}

	if result.RowsAffected > 0 {
		return user, nil
	}

	return d.FindByUsername(ctx, user.Username)
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByUsername(ctx context.Context, username string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

// LockByID reads the user row with SELECT ... FOR UPDATE. The caller must
// run inside a transaction; the lock is held until that transaction
// commits or rolls back.
func (d *UserDAO) LockByID(tx *gorm.DB, id uint) (User, error) {
	var user User

	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, translatePgError(result.Error)
	}

	return user, nil
}

// Debit subtracts amount from the user's balance. The guard in the WHERE
// clause keeps the balance non-negative even if the caller's pre-check was
// bypassed; zero rows affected means insufficient coins.
func (d *UserDAO) Debit(tx *gorm.DB, id uint, amount int) error {
	result := tx.Model(&User{}).
		Where("id = ? AND coins >= ?", id, amount).
		UpdateColumn("coins", gorm.Expr("coins - ?", amount))
	if result.Error != nil {
		return translatePgError(result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrInsufficientCoins
	}

	return nil
}

func (d *UserDAO) Credit(tx *gorm.DB, id uint, amount int) error {
	result := tx.Model(&User{}).
		Where("id = ?", id).
		UpdateColumn("coins", gorm.Expr("coins + ?", amount))
	if result.Error != nil {
		return translatePgError(result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// translatePgError maps Postgres lock-wait and serialization failures to
// ErrContention so callers can retry the whole transaction.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.LockNotAvailable,
		pgerrcode.DeadlockDetected,
		pgerrcode.SerializationFailure:
		return ErrContention
	}

	return err
}
