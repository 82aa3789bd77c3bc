package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JovenGabriel/users-api/internal/domain"
	"github.com/JovenGabriel/users-api/internal/http/middleware"
	"github.com/JovenGabriel/users-api/internal/service"
	"github.com/JovenGabriel/users-api/internal/validate"
)

// UserHandler exposes the user CRUD and login endpoints.
type UserHandler struct {
	Users  *service.UserService
	Policy *validate.PasswordPolicy
}

// NewUserHandler creates the handler set.
func NewUserHandler(users *service.UserService, policy *validate.PasswordPolicy) *UserHandler {
	return &UserHandler{Users: users, Policy: policy}
}

type phoneRequest struct {
	Number      string `json:"number"`
	CityCode    string `json:"citycode"`
	CountryCode string `json:"countrycode"`
}

type createUserRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Phones   []phoneRequest `json:"phones"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type phoneResponse struct {
	Number      string `json:"number"`
	CityCode    string `json:"citycode"`
	CountryCode string `json:"countrycode"`
}

type userResponse struct {
	ID        int64           `json:"id,string"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phones    []phoneResponse `json:"phones"`
	LastLogin *time.Time      `json:"lastLogin,omitempty"`
	Token     string          `json:"token,omitempty"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type userCreatedResponse struct {
	ID        int64      `json:"id,string"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	Token     string     `json:"token"`
	IsActive  bool       `json:"isActive"`
}

// List returns all users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}
	c.JSON(http.StatusOK, out)
}

// GetByID returns one user by its id.
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": "Invalid user id"})
		return
	}
	user, err := h.Users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not Found", "message": "User not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// Create registers a new user. Input failures aggregate into one
// field-level report instead of failing on the first violation.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": "Invalid payload"})
		return
	}

	validators := []validate.FieldValidator{
		validate.NonBlank("name", req.Name),
		validate.NonBlank("email", req.Email),
		validate.Email("email", req.Email),
		validate.NonBlank("password", req.Password),
		validate.Password("password", req.Password, h.Policy),
	}
	for i, phone := range req.Phones {
		prefix := "phones[" + strconv.Itoa(i) + "]."
		validators = append(validators,
			validate.NonBlank(prefix+"number", phone.Number),
			validate.NonBlank(prefix+"citycode", phone.CityCode),
			validate.NonBlank(prefix+"countrycode", phone.CountryCode),
		)
	}
	if fieldErrors := validate.Run(validators...); fieldErrors != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "fieldErrors": fieldErrors})
		return
	}

	in := service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	for _, phone := range req.Phones {
		in.Phones = append(in.Phones, service.PhoneInput{
			Number:      phone.Number,
			CityCode:    phone.CityCode,
			CountryCode: phone.CountryCode,
		})
	}

	user, err := h.Users.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userCreatedResponse{
		ID:        user.ID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		LastLogin: user.LastLogin,
		Token:     user.Token,
		IsActive:  user.IsActive,
	})
}

// Login authenticates with email and password, issuing a fresh session
// token that replaces any previous one.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": "Invalid payload"})
		return
	}

	if fieldErrors := validate.Run(
		validate.NonBlank("email", req.Email),
		validate.NonBlank("password", req.Password),
	); fieldErrors != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "fieldErrors": fieldErrors})
		return
	}

	user, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// Me returns the user bound to the request identity.
func (h *UserHandler) Me(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "A valid bearer token is required"})
		return
	}
	user, err := h.Users.GetByID(c.Request.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not Found", "message": "User not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflict", "message": "Email already exists"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found", "message": "Invalid email or password"})
	case errors.Is(err, domain.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests", "message": "Too many login attempts, try again later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}

func toUserResponse(user domain.User) userResponse {
	phones := make([]phoneResponse, 0, len(user.Phones))
	for _, phone := range user.Phones {
		phones = append(phones, phoneResponse{
			Number:      phone.Number,
			CityCode:    phone.CityCode,
			CountryCode: phone.CountryCode,
		})
	}
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phones:    phones,
		LastLogin: user.LastLogin,
		Token:     user.Token,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
