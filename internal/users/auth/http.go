// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/bookshelf-users/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/bookshelf-users/internal/platform/request"
	"github.com/taibuivan/bookshelf-users/internal/platform/respond"
	"github.com/taibuivan/bookshelf-users/internal/users/account"
)

// # Field Identifiers

const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldRole     = "role"
	FieldID       = "id"
)

// maxFieldLength bounds every string column of the users table.
const maxFieldLength = 255

// # Definitions & Constructors

// Handler implements the /users HTTP endpoints.
//
// # Scope
//
// Registration and login are public; the self-read requires a principal whose
// user id matches the path. Route-level access is enforced earlier by the
// authorization middleware.
type Handler struct {
	registrationService *RegistrationService
	loginService        *LoginService
}

// NewHandler constructs a new [Handler] with its service dependencies.
func NewHandler(registration *RegistrationService, login *LoginService) *Handler {
	return &Handler{registrationService: registration, loginService: login}
}

// Routes returns a [chi.Router] configured with the account routes.
//
// # Endpoints
//   - POST /register : Creates a new account.
//   - POST /login    : Authenticates and returns a token.
//   - GET  /{id}     : Returns the caller's own account.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Get("/{"+FieldID+"}", handler.getUser)

	return router
}

// # Request Payloads

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

/*
POST /users/register?role=

Description: Persists a new account; the service validates the canonical
username. Any caller may request role=admin.

Request:
  - Body: registerRequest (Username, Email, Password)
  - Query: role (optional, "admin" for ROLE_ADMIN)

Response:
  - 200: text/plain "User registered successfully: <username>"
  - 400: ErrInvalidJSON, VALIDATION_ERROR, USER_EXISTS or REGISTRATION_FAILED
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.registrationService.Register(request.Context(), RegisterInput{
		Username:      input.Username,
		Email:         input.Email,
		Password:      input.Password,
		RequestedRole: request.URL.Query().Get(FieldRole),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Text(writer, http.StatusOK, "User registered successfully: "+user.Username)
}

/*
POST /users/login

Description: Exchanges a username and password for an access token.

Request:
  - Body: loginRequest (Username, Password)

Response:
  - 200: text/plain token (no "Bearer " prefix)
  - 400: ErrInvalidJSON
  - 401: text/plain "Invalid credentials."
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	token, err := handler.loginService.Login(request.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Text(writer, http.StatusUnauthorized, InvalidCredentialsMessage)
			return
		}
		respond.Error(writer, request, err)
		return
	}

	respond.Text(writer, http.StatusOK, token)
}

/*
GET /users/{id}

Description: Returns the account only when {id} equals the caller's user id.

Response:
  - 200: account.User JSON {id, username, email, role}
  - 400: Non-numeric id
  - 403: Empty body; anonymous caller or another user's id
  - 404: Account does not exist
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, FieldID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	logger := ctxutil.GetLogger(request.Context())

	principal := requestutil.Principal(request)
	if principal == nil || principal.UserID != strconv.FormatInt(id, 10) {
		logger.WarnContext(request.Context(), "user_read_denied", slog.Int64("target_id", id))
		respond.Status(writer, http.StatusForbidden)
		return
	}

	user, err := handler.loginService.FindUserByID(request.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			respond.Status(writer, http.StatusNotFound)
			return
		}
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, user)
}
