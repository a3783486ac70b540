package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/takopi/backend/internal/models"
	"github.com/takopi/backend/internal/repositories"
)

const (
	defaultRecentUsers = 10
	maxRecentUsers     = 50
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository       repositories.UserRepository
	followRepository     repositories.FollowRepository
	contentRepository    repositories.ContentRepository
	generationRepository repositories.GenerationRepository
	purchaseRepository   repositories.PurchaseRepository
	likeRepository       repositories.LikeRepository
	views                contentViews
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(
	userRepo repositories.UserRepository,
	followRepo repositories.FollowRepository,
	contentRepo repositories.ContentRepository,
	generationRepo repositories.GenerationRepository,
	purchaseRepo repositories.PurchaseRepository,
	likeRepo repositories.LikeRepository,
) *UserHandler {
	return &UserHandler{
		userRepository:       userRepo,
		followRepository:     followRepo,
		contentRepository:    contentRepo,
		generationRepository: generationRepo,
		purchaseRepository:   purchaseRepo,
		likeRepository:       likeRepo,
		views:                contentViews{users: userRepo, likes: likeRepo, purchases: purchaseRepo},
	}
}

// RegisterPublicRoutes registers profile routes readable without an account
func (h *UserHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/user/lookup", h.Lookup)
	g.GET("/users/recent", h.RecentUsers)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/content", h.GetUserContent)
}

// RegisterProfileRoutes registers the authenticated user's own routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.PUT("/user/profile", h.UpdateProfile)
	g.GET("/user/generations", h.MyGenerations)
	g.GET("/user/content", h.MyContent)
	g.GET("/user/purchases", h.MyPurchases)
	g.GET("/user/likes", h.MyLikes)
}

// Lookup finds a public profile by username or email
func (h *UserHandler) Lookup(c echo.Context) error {
	username := strings.TrimSpace(c.QueryParam("username"))
	email := strings.ToLower(strings.TrimSpace(c.QueryParam("email")))

	var (
		user *models.User
		err  error
	)
	ctx := c.Request().Context()
	switch {
	case username != "":
		user, err = h.userRepository.GetUserByUsername(ctx, username)
	case email != "":
		user, err = h.userRepository.GetUserByEmail(ctx, email)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "username or email query parameter is required")
	}
	if err != nil {
		return repoError(err, "User not found")
	}
	return success(c, http.StatusOK, user.ToPublic())
}

// RecentUsers lists the newest accounts
func (h *UserHandler) RecentUsers(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = defaultRecentUsers
	}
	if limit > maxRecentUsers {
		limit = maxRecentUsers
	}

	users, err := h.userRepository.GetRecentUsers(c.Request().Context(), limit)
	if err != nil {
		return internalError(err)
	}

	profiles := make([]models.PublicProfile, len(users))
	for i := range users {
		profiles[i] = users[i].ToPublic()
	}
	return success(c, http.StatusOK, echo.Map{"users": profiles})
}

type profileResponse struct {
	models.PublicProfile
	IsFollowing bool `json:"is_following"`
}

// GetUser returns another user's public profile
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUserIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, id)
	if err != nil {
		return repoError(err, "User not found")
	}

	resp := profileResponse{PublicProfile: user.ToPublic()}
	if viewer := getUserIDFromContext(c); viewer != 0 && viewer != id {
		if resp.IsFollowing, err = h.followRepository.IsFollowing(ctx, viewer, id); err != nil {
			return internalError(err)
		}
	}
	return success(c, http.StatusOK, resp)
}

// GetUserContent lists a creator's published content
func (h *UserHandler) GetUserContent(c echo.Context) error {
	id, err := parseUserIDParam(c, "id")
	if err != nil {
		return err
	}
	p := parsePagination(c, defaultPageLimit)

	ctx := c.Request().Context()
	filter := models.ContentFilter{OwnerID: id, Status: models.ContentStatusPublished}
	contents, total, err := h.contentRepository.ListContent(ctx, filter, p.Skip(), int64(p.Limit))
	if err != nil {
		return internalError(err)
	}

	items, err := h.views.build(ctx, getUserIDFromContext(c), contents)
	if err != nil {
		return internalError(err)
	}
	return successPage(c, echo.Map{"content": items}, p, total)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return repoError(err, "User profile not found")
	}

	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, user)
}

var generationStatuses = map[string]bool{
	models.GenerationPending:    true,
	models.GenerationInProgress: true,
	models.GenerationSucceeded:  true,
	models.GenerationFailed:     true,
	models.GenerationCanceled:   true,
	models.GenerationExpired:    true,
}

// MyGenerations lists the authenticated user's AI generations, newest first
func (h *UserHandler) MyGenerations(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	if status != "" && !generationStatuses[status] {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid status filter")
	}
	p := parsePagination(c, defaultPageLimit)

	gens, total, err := h.generationRepository.GetGenerationsByUserID(c.Request().Context(), userID, status, p.Skip(), int64(p.Limit))
	if err != nil {
		return internalError(err)
	}
	return successPage(c, echo.Map{"generations": gens}, p, total)
}

// MyContent lists the authenticated user's content, drafts included
func (h *UserHandler) MyContent(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	status := c.QueryParam("status")
	if status != "" && status != models.ContentStatusDraft && status != models.ContentStatusPublished {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid status filter")
	}
	p := parsePagination(c, defaultPageLimit)

	ctx := c.Request().Context()
	filter := models.ContentFilter{OwnerID: userID, Status: status}
	contents, total, err := h.contentRepository.ListContent(ctx, filter, p.Skip(), int64(p.Limit))
	if err != nil {
		return internalError(err)
	}

	items, err := h.views.build(ctx, userID, contents)
	if err != nil {
		return internalError(err)
	}
	return successPage(c, echo.Map{"content": items}, p, total)
}

type purchaseResponse struct {
	models.Purchase
	Content *ContentResponse `json:"content,omitempty"`
}

// MyPurchases lists what the authenticated user bought, with content summaries
func (h *UserHandler) MyPurchases(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	p := parsePagination(c, defaultPageLimit)

	ctx := c.Request().Context()
	purchases, total, err := h.purchaseRepository.GetPurchasesByBuyer(ctx, userID, p.Page, p.Limit)
	if err != nil {
		return internalError(err)
	}

	ids := make([]string, len(purchases))
	for i, pu := range purchases {
		ids[i] = pu.ContentID
	}
	byID, err := h.contentRepository.GetContentsByIDs(ctx, ids)
	if err != nil {
		return internalError(err)
	}

	contents := make([]models.Content, 0, len(byID))
	for _, id := range ids {
		if content, ok := byID[id]; ok {
			contents = append(contents, content)
		}
	}
	items, err := h.views.build(ctx, userID, contents)
	if err != nil {
		return internalError(err)
	}
	itemByID := make(map[string]*ContentResponse, len(items))
	for i := range items {
		itemByID[items[i].ID.Hex()] = &items[i]
	}

	out := make([]purchaseResponse, len(purchases))
	for i, pu := range purchases {
		out[i] = purchaseResponse{Purchase: pu, Content: itemByID[pu.ContentID]}
	}
	return successPage(c, echo.Map{"purchases": out}, p, total)
}

// MyLikes returns the IDs of content the authenticated user liked, newest first
func (h *UserHandler) MyLikes(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	p := parsePagination(c, defaultPageLimit)

	likes, total, err := h.likeRepository.GetLikesByUser(c.Request().Context(), userID, p.Page, p.Limit)
	if err != nil {
		return internalError(err)
	}

	ids := make([]string, len(likes))
	for i, l := range likes {
		ids[i] = l.ContentID
	}
	return successPage(c, echo.Map{"content_ids": ids}, p, total)
}
