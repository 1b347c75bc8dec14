package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/project-hub/internal/user"
)

type CreateUserRequest struct {
	FirstName   string  `json:"firstName" validate:"required,min=2,max=100"`
	LastName    string  `json:"lastName" validate:"required,min=2,max=100"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    string  `json:"password" validate:"required,min=8,max=72"`
	Description *string `json:"description,omitempty"`
	Program     *string `json:"program,omitempty" validate:"omitempty,max=255"`
}

type UpdateUserRequest struct {
	FirstName   string  `json:"firstName" validate:"required,min=2,max=100"`
	LastName    string  `json:"lastName" validate:"required,min=2,max=100"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Description *string `json:"description,omitempty"`
	Program     *string `json:"program,omitempty" validate:"omitempty,max=255"`
}

type ListUsersResponse struct {
	Users  []user.UserDTO `json:"users"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type UserHandler struct {
	service  user.Service
	validate *validator.Validate
}

func NewUserHandler(service user.Service) *UserHandler {
	validate := validator.New()
	// Report fields by their JSON names so details match the request body.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &UserHandler{
		service:  service,
		validate: validate,
	}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Post("/users", h.handleCreateUser)
	router.Get("/users", h.handleListUsers)
	router.Get("/users/{id}", h.handleGetUserByID)
	router.Get("/users/email/{email}", h.handleGetUserByEmail)
	router.Put("/users/{id}", h.handleUpdateUser)
	router.Delete("/users/{id}", h.handleDeleteUser)
}

func (h *UserHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateUserRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	domainUser := user.User{
		FirstName:    requestPayload.FirstName,
		LastName:     requestPayload.LastName,
		Email:        requestPayload.Email,
		Description:  requestPayload.Description,
		Program:      requestPayload.Program,
		PasswordHash: requestPayload.Password,
	}

	createdUser, err := h.service.CreateUser(r.Context(), &domainUser)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create user via service")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to create user"))
		return
	}

	h.respondWithUser(w, http.StatusCreated, createdUser)
}

func (h *UserHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	limit, offset = user.NormalizePage(limit, offset)

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list users")
		return
	}

	dtos, err := user.ToDTOs(users)
	if err != nil {
		log.Error().Err(err).Msg("Failed to project users")
		respondWithError(w, http.StatusInternalServerError, clientMessage(err, "Failed to list users"))
		return
	}

	respondWithJSON(w, http.StatusOK, ListUsersResponse{
		Users:  dtos,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *UserHandler) handleGetUserByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	foundUser, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to get user by id via service")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to get user by id"))
		return
	}

	h.respondWithUser(w, http.StatusOK, foundUser)
}

func (h *UserHandler) handleGetUserByEmail(w http.ResponseWriter, r *http.Request) {
	emailParam := chi.URLParam(r, "email")
	if emailParam == "" {
		log.Warn().Msg("Failed to parse email from param")
		respondWithError(w, http.StatusBadRequest, "Email parameter cannot be empty")
		return
	}

	foundUser, err := h.service.GetUserByEmail(r.Context(), emailParam)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get user by email via service")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to get user by email"))
		return
	}

	h.respondWithUser(w, http.StatusOK, foundUser)
}

func (h *UserHandler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateUserRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	domainUser := user.User{
		ID:          userID,
		FirstName:   requestPayload.FirstName,
		LastName:    requestPayload.LastName,
		Email:       requestPayload.Email,
		Description: requestPayload.Description,
		Program:     requestPayload.Program,
	}
	if requestPayload.Password != nil {
		domainUser.PasswordHash = *requestPayload.Password
	}

	if err := h.service.UpdateUser(r.Context(), &domainUser); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to update user via service")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to update user"))
		return
	}

	updatedUser, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to reload user after update")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to update user"))
		return
	}

	h.respondWithUser(w, http.StatusOK, updatedUser)
}

func (h *UserHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to delete user via service")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to delete user"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondWithUser writes the projection of u. A record that cannot be
// projected is a server-side fault.
func (h *UserHandler) respondWithUser(w http.ResponseWriter, status int, u *user.User) {
	dto, err := user.ToDTO(u)
	if err != nil {
		log.Error().Err(err).Int64("user_id", u.ID).Msg("Failed to project user")
		respondWithError(w, http.StatusInternalServerError, clientMessage(err, "Failed to build response"))
		return
	}
	respondWithJSON(w, status, dto)
}

func (h *UserHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}

	return true
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	userID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || userID <= 0 {
		log.Warn().Err(err).Str("user_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return 0, false
	}
	return userID, true
}

// queryInt reads an optional integer query parameter. Absent means 0.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return 0, false
	}
	return v, true
}
