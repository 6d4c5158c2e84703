package user_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"user-service/internal/apperror"
	"user-service/internal/config"
	"user-service/internal/logger"
	"user-service/internal/models"
	"user-service/internal/users/service"
	"user-service/internal/utils"

	"github.com/go-chi/chi/v5"
)

const (
	ServiceName   = "user-service"
	IndexGreeting = "Hello, world! :)"

	MsgUserCreated        = "User created successfully!"
	MsgUserUpdated        = "User updated successfully!"
	MsgUserDeleted        = "User deleted successfully!"
	MsgInvalidRequestBody = "Invalid request body"
)

type UserService interface {
	CreateUser(ctx context.Context, in service.CreateUserInput) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, in service.UpdateUserInput) (int64, error)
	DeleteUser(ctx context.Context, id int64) (int64, error)
	Ping(ctx context.Context) error
}

type Handler struct {
	UserService UserService
	Logger      *logger.Logger
	// LegacyStatus answers every request with 200, errors included.
	LegacyStatus bool
	// LegacyDeleteRoute also serves GET /delete/{user_id}.
	LegacyDeleteRoute bool
	// ExposePassword fills the password slot of a row. Only set when
	// passwords are stored in plaintext.
	ExposePassword bool
}

// NewHandler creates a new Handler instance
func NewHandler(userService UserService, cfg *config.Config, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		UserService:       userService,
		Logger:            log,
		LegacyStatus:      cfg.API.LegacyStatus,
		LegacyDeleteRoute: cfg.API.LegacyDeleteRoute,
		ExposePassword:    !cfg.Security.HashPasswords,
	}
}

type createUserRequest struct {
	Name     field `json:"name"`
	Email    field `json:"email"`
	Password field `json:"pwd"`
}

type updateUserRequest struct {
	UserID   userID `json:"user_id"`
	Name     field  `json:"name"`
	Email    field  `json:"email"`
	Password field  `json:"pwd"`
}

// field is a text column value. Older clients send numbers and booleans as
// well as strings; those are stored as their literal text. Falsy scalars
// (null, false, 0) count as absent.
type field string

func (f *field) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		*f = ""
	case string:
		*f = field(v)
	case bool:
		*f = ""
		if v {
			*f = "true"
		}
	case float64:
		*f = ""
		if v != 0 {
			*f = field(strings.TrimSpace(string(data)))
		}
	default:
		return fmt.Errorf("expected a string, number or boolean, got %s", data)
	}
	return nil
}

// userID accepts the id as a JSON number or as a numeric string.
type userID int64

func (id *userID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	*id = userID(n)
	return nil
}

type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	utils.WriteText(w, http.StatusOK, IndexGreeting)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", Service: ServiceName, Database: "up"}
	status := http.StatusOK
	if err := h.UserService.Ping(r.Context()); err != nil {
		h.Logger.Warn("HEALTH", fmt.Sprintf("Database ping failed: %v", err))
		resp.Status = "unhealthy"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}
	utils.WriteJSON(w, status, resp)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperror.Validation("users.create", MsgInvalidRequestBody))
		return
	}

	_, err := h.UserService.CreateUser(r.Context(), service.CreateUserInput{
		Name:     string(req.Name),
		Email:    string(req.Email),
		Password: string(req.Password),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, MsgUserCreated)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		rows = append(rows, h.userRow(u))
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUserID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	user, err := h.UserService.GetUser(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if user == nil {
		utils.WriteJSON(w, http.StatusOK, nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.userRow(*user))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperror.Validation("users.update", MsgInvalidRequestBody))
		return
	}

	_, err := h.UserService.UpdateUser(r.Context(), service.UpdateUserInput{
		UserID:   int64(req.UserID),
		Name:     string(req.Name),
		Email:    string(req.Email),
		Password: string(req.Password),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, MsgUserUpdated)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUserID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if _, err := h.UserService.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, MsgUserDeleted)
}

// userRow renders a user as the positional row clients expect:
// [user_id, user_name, user_email, user_password].
func (h *Handler) userRow(u models.User) []interface{} {
	var password interface{}
	if h.ExposePassword {
		password = u.Password
	}
	return []interface{}{u.UserID, u.Name, u.Email, password}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperror.HTTPStatus(apperror.KindOf(err))
	if !apperror.Is(err, apperror.KindValidation) {
		h.Logger.Error("API", err.Error())
	}
	if h.LegacyStatus {
		status = http.StatusOK
	}
	utils.WriteMessage(w, status, apperror.MessageOf(err))
}

// pathUserID parses the route's user_id. Digits beyond the int64 range match
// the route but no row can have them, so callers answer 404.
func pathUserID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
