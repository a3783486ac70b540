package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/takopi/backend/internal/auth"
	"github.com/takopi/backend/internal/models"
	"github.com/takopi/backend/internal/repositories"
)

// FirebaseTokenVerifier is satisfied by *firebase auth.Client.
type FirebaseTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// Mailer sends the transactional e-mails. Calls must not block the request.
type Mailer interface {
	Welcome(user *models.User)
	PurchaseReceipt(buyer *models.User, content *models.Content, purchase *models.Purchase)
	SaleNotification(seller, buyer *models.User, content *models.Content, purchase *models.Purchase)
	NewFollower(target, follower *models.User)
	GenerationReady(user *models.User, gen *models.Generation)
}

// CookieConfig controls the auth cookie written on login.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	tokens         *auth.TokenService
	firebaseAuth   FirebaseTokenVerifier
	mailer         Mailer
	cookie         CookieConfig
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil.
func NewAuthHandler(userRepo repositories.UserRepository, tokens *auth.TokenService, firebaseAuth FirebaseTokenVerifier, mailer Mailer, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		tokens:         tokens,
		firebaseAuth:   firebaseAuth,
		mailer:         mailer,
		cookie:         cookie,
	}
}

// RegisterAuthRoutes registers the public authentication routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.POST("/firebase", h.FirebaseLogin)
}

// RegisterSessionRoutes registers routes that need an authenticated user
func (h *AuthHandler) RegisterSessionRoutes(g *echo.Group) {
	g.GET("/me", h.Me)
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register handles local registration with username, email and password
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Email is already registered")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return internalError(err)
	}
	if _, err := h.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Username is already taken")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return internalError(err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return internalError(err)
	}

	user := &models.User{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    hash,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "Username or email is already registered")
		}
		return internalError(err)
	}

	h.mailer.Welcome(user)
	return h.issueSession(c, http.StatusCreated, user)
}

// Login authenticates with an email or username and a password
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	login := strings.TrimSpace(req.Login)

	var user *models.User
	var err error
	if strings.Contains(login, "@") {
		user, err = h.userRepository.GetUserByEmail(ctx, strings.ToLower(login))
	} else {
		user, err = h.userRepository.GetUserByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return internalError(err)
	}

	// accounts created through Firebase have no local password
	if user.Password == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return h.issueSession(c, http.StatusOK, user)
}

// Logout clears the auth cookie. Bearer tokens stay valid until they expire.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return success(c, http.StatusOK, echo.Map{"logged_out": true})
}

// Me returns the authenticated user's own account
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return repoError(err, "User not found")
	}
	return success(c, http.StatusOK, user)
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token and issues a local session
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	email, _ := token.Claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email address")
	}
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)

	user, created, err := h.findOrCreateFirebaseUser(ctx, token.UID, email, name, picture)
	if err != nil {
		return internalError(err)
	}
	if created {
		h.mailer.Welcome(user)
	}
	return h.issueSession(c, http.StatusOK, user)
}

func (h *AuthHandler) findOrCreateFirebaseUser(ctx context.Context, uid, email, name, picture string) (*models.User, bool, error) {
	user, err := h.userRepository.GetUserByFirebaseUID(ctx, uid)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}

	// link an existing local account with the same email
	user, err = h.userRepository.GetUserByEmail(ctx, email)
	if err == nil {
		user.FirebaseUID = &uid
		if user.AvatarURL == "" {
			user.AvatarURL = picture
		}
		if err := h.userRepository.UpdateUser(ctx, user); err != nil {
			return nil, false, err
		}
		return user, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}

	username, err := h.availableUsername(ctx, email)
	if err != nil {
		return nil, false, err
	}
	user = &models.User{
		Username:    username,
		Email:       email,
		DisplayName: name,
		AvatarURL:   picture,
		FirebaseUID: &uid,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// availableUsername derives a username from the local part of an email address.
func (h *AuthHandler) availableUsername(ctx context.Context, email string) (string, error) {
	base := usernameBase(email)
	candidate := base
	for attempt := 0; attempt < 5; attempt++ {
		_, err := h.userRepository.GetUserByUsername(ctx, candidate)
		if errors.Is(err, repositories.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		candidate = base + suffix
	}
	return "", errors.New("could not allocate a unique username")
}

func usernameBase(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		local = email[:i]
	}
	var b strings.Builder
	for _, r := range local {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	base := b.String()
	if len(base) > 20 {
		base = base[:20]
	}
	if len(base) < 3 {
		base = "user" + base
	}
	return base
}

func (h *AuthHandler) issueSession(c echo.Context, status int, user *models.User) error {
	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		return internalError(err)
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	return success(c, status, authResponse{Token: token, ExpiresAt: expiresAt, User: user})
}
