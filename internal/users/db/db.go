package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"user-service/internal/apperror"
	"user-service/internal/logger"
	"user-service/internal/models"

	"github.com/uptrace/bun"
)

// DB issues the five statements on the users table. It holds no connection;
// every method runs on the handle the gateway lent to the caller.
type DB struct {
	Log *logger.Logger
}

func NewDB(log *logger.Logger) *DB {
	if log == nil {
		log = logger.NewNop()
	}
	return &DB{Log: log}
}

func (d *DB) CreateUser(ctx context.Context, db bun.IDB, user *models.User) error {
	_, err := db.NewInsert().
		Model(user).
		Column("user_name", "user_email", "user_password").
		Returning("user_id").
		Exec(ctx)
	if err != nil {
		return apperror.Query("users.create", err)
	}
	d.Log.LogDatabase("INSERT", "users", fmt.Sprintf("user %d inserted", user.UserID))
	return nil
}

func (d *DB) ListUsers(ctx context.Context, db bun.IDB) ([]models.User, error) {
	users := make([]models.User, 0)
	err := db.NewSelect().
		Model(&users).
		OrderExpr("user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperror.Query("users.list", err)
	}
	d.Log.LogDatabase("SELECT", "users", fmt.Sprintf("%d rows", len(users)))
	return users, nil
}

// GetUserByID returns nil, nil when no row has the id.
func (d *DB) GetUserByID(ctx context.Context, db bun.IDB, id int64) (*models.User, error) {
	var user models.User
	err := db.NewSelect().
		Model(&user).
		Where("user_id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		d.Log.LogDatabase("SELECT", "users", fmt.Sprintf("user %d not found", id))
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Query("users.get", err)
	}
	return &user, nil
}

// UpdateUser overwrites the three mutable columns and reports how many rows
// matched.
func (d *DB) UpdateUser(ctx context.Context, db bun.IDB, user models.User) (int64, error) {
	res, err := db.NewUpdate().
		Model(&user).
		Column("user_name", "user_email", "user_password").
		Where("user_id = ?", user.UserID).
		Exec(ctx)
	if err != nil {
		return 0, apperror.Query("users.update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperror.Query("users.update", err)
	}
	d.Log.LogDatabase("UPDATE", "users", fmt.Sprintf("user %d, %d rows", user.UserID, n))
	return n, nil
}

func (d *DB) DeleteUser(ctx context.Context, db bun.IDB, id int64) (int64, error) {
	res, err := db.NewDelete().
		Model((*models.User)(nil)).
		Where("user_id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, apperror.Query("users.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperror.Query("users.delete", err)
	}
	d.Log.LogDatabase("DELETE", "users", fmt.Sprintf("user %d, %d rows", id, n))
	return n, nil
}
