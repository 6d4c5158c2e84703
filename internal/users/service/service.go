package service

import (
	"context"
	"fmt"
	"time"

	"user-service/internal/apperror"
	"user-service/internal/database"
	"user-service/internal/kafka"
	"user-service/internal/logger"
	"user-service/internal/models"

	"github.com/uptrace/bun"
)

// DefaultPublishTimeout bounds how long a write request waits on the broker.
const DefaultPublishTimeout = 3 * time.Second

const (
	MsgCreateMissingFields = "Please provide name, email and pwd"
	MsgUpdateMissingFields = "Please provide id, name, email and pwd"
)

type UserDBLayer interface {
	CreateUser(ctx context.Context, db bun.IDB, user *models.User) error
	ListUsers(ctx context.Context, db bun.IDB) ([]models.User, error)
	GetUserByID(ctx context.Context, db bun.IDB, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, db bun.IDB, user models.User) (int64, error)
	DeleteUser(ctx context.Context, db bun.IDB, id int64) (int64, error)
}

type EventPublisher interface {
	PublishUserEvent(ctx context.Context, event kafka.UserEvent) error
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
}

type UpdateUserInput struct {
	UserID   int64
	Name     string
	Email    string
	Password string
}

type UserService struct {
	Gateway database.Gateway
	DB      UserDBLayer
	Hasher  PasswordHasher
	Events  EventPublisher
	Logger  *logger.Logger

	PublishTimeout time.Duration
}

func NewUserService(gw database.Gateway, db UserDBLayer, hasher PasswordHasher, events EventPublisher, log *logger.Logger) *UserService {
	if events == nil {
		events = kafka.NopPublisher{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &UserService{
		Gateway:        gw,
		DB:             db,
		Hasher:         hasher,
		Events:         events,
		Logger:         log,
		PublishTimeout: DefaultPublishTimeout,
	}
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, apperror.Validation("users.create", MsgCreateMissingFields)
	}

	hashed, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Internal("users.create", err)
	}

	user := models.User{Name: in.Name, Email: in.Email, Password: hashed}
	err = s.Gateway.WithConn(ctx, func(ctx context.Context, db bun.IDB) error {
		return s.DB.CreateUser(ctx, db, &user)
	})
	if err != nil {
		s.Logger.Error("USERS", fmt.Sprintf("Failed to create user: %v", err))
		return nil, err
	}

	s.Logger.Info("USERS", fmt.Sprintf("User %d created", user.UserID))
	s.publish(ctx, kafka.UserCreated, user)
	return &user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.Gateway.WithConn(ctx, func(ctx context.Context, db bun.IDB) error {
		var err error
		users, err = s.DB.ListUsers(ctx, db)
		return err
	})
	if err != nil {
		s.Logger.Error("USERS", fmt.Sprintf("Failed to list users: %v", err))
		return nil, err
	}
	return users, nil
}

// GetUser returns nil without an error when the id is unknown.
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user *models.User
	err := s.Gateway.WithConn(ctx, func(ctx context.Context, db bun.IDB) error {
		var err error
		user, err = s.DB.GetUserByID(ctx, db, id)
		return err
	})
	if err != nil {
		s.Logger.Error("USERS", fmt.Sprintf("Failed to get user %d: %v", id, err))
		return nil, err
	}
	return user, nil
}

// UpdateUser overwrites name, email and password of one row and returns the
// number of rows matched. An unknown id matches nothing and is not an error.
func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (int64, error) {
	if in.UserID == 0 || in.Name == "" || in.Email == "" || in.Password == "" {
		return 0, apperror.Validation("users.update", MsgUpdateMissingFields)
	}

	hashed, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return 0, apperror.Internal("users.update", err)
	}

	user := models.User{UserID: in.UserID, Name: in.Name, Email: in.Email, Password: hashed}
	var affected int64
	err = s.Gateway.WithConn(ctx, func(ctx context.Context, db bun.IDB) error {
		var err error
		affected, err = s.DB.UpdateUser(ctx, db, user)
		return err
	})
	if err != nil {
		s.Logger.Error("USERS", fmt.Sprintf("Failed to update user %d: %v", in.UserID, err))
		return 0, err
	}

	if affected == 0 {
		s.Logger.Info("USERS", fmt.Sprintf("Update matched no user with id %d", in.UserID))
		return 0, nil
	}
	s.Logger.Info("USERS", fmt.Sprintf("User %d updated", in.UserID))
	s.publish(ctx, kafka.UserUpdated, user)
	return affected, nil
}

// DeleteUser removes the row with id. Deleting an absent id is a no-op.
func (s *UserService) DeleteUser(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := s.Gateway.WithConn(ctx, func(ctx context.Context, db bun.IDB) error {
		var err error
		affected, err = s.DB.DeleteUser(ctx, db, id)
		return err
	})
	if err != nil {
		s.Logger.Error("USERS", fmt.Sprintf("Failed to delete user %d: %v", id, err))
		return 0, err
	}

	if affected > 0 {
		s.Logger.Info("USERS", fmt.Sprintf("User %d deleted", id))
		s.publish(ctx, kafka.UserDeleted, models.User{UserID: id})
	}
	return affected, nil
}

func (s *UserService) Ping(ctx context.Context) error {
	return s.Gateway.Ping(ctx)
}

// publish runs after the statement has committed, so a broker failure is
// logged and never reported to the caller. The write outlives a cancelled
// request but not PublishTimeout.
func (s *UserService) publish(ctx context.Context, eventType kafka.EventType, user models.User) {
	timeout := s.PublishTimeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	event := kafka.NewUserEvent(eventType, user)
	if err := s.Events.PublishUserEvent(ctx, event); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish %s for user %d: %v", eventType, user.UserID, err))
		return
	}
	s.Logger.Debug("KAFKA", fmt.Sprintf("Published %s for user %d", eventType, user.UserID))
}
