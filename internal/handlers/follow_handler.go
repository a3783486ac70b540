package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/takopi/backend/internal/models"
	"github.com/takopi/backend/internal/repositories"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository       repositories.FollowRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	mailer                 Mailer
	log                    logrus.FieldLogger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository, mailer Mailer, log logrus.FieldLogger) *FollowHandler {
	return &FollowHandler{
		followRepository:       followRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		mailer:                 mailer,
		log:                    log,
	}
}

// RegisterPublicRoutes registers follower listings
func (h *FollowHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	targetID, err := parseUserIDParam(c, "id")
	if err != nil {
		return err
	}
	if currentUserID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	ctx := c.Request().Context()
	target, err := h.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		return repoError(err, "User not found")
	}

	isFollowing, err := h.followRepository.IsFollowing(ctx, currentUserID, targetID)
	if err != nil {
		return internalError(err)
	}
	if isFollowing {
		return echo.NewHTTPError(http.StatusConflict, "Already following this user")
	}

	follow := &models.Follow{FollowerID: currentUserID, FollowingID: targetID}
	if err := h.followRepository.CreateFollow(ctx, follow); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "Already following this user")
		}
		return internalError(err)
	}

	actor, err := h.userRepository.GetUserByID(ctx, currentUserID)
	if err != nil {
		h.log.WithError(err).Warn("follow: actor lookup failed, skipping notification")
		return success(c, http.StatusOK, echo.Map{"following": true})
	}

	notif := &models.Notification{
		Type:            models.NotificationFollow,
		ActorID:         currentUserID,
		RecipientID:     targetID,
		TargetID:        strconv.FormatUint(uint64(currentUserID), 10),
		TargetType:      "user",
		PreviewImageURL: actor.AvatarURL,
		Message:         actor.Name() + " started following you",
	}
	if err := h.notificationRepository.CreateNotification(ctx, notif); err != nil {
		h.log.WithError(err).Warn("follow: failed to create notification")
	}
	h.mailer.NewFollower(target, actor)

	return success(c, http.StatusOK, echo.Map{"following": true})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	targetID, err := parseUserIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.followRepository.DeleteFollow(ctx, currentUserID, targetID); err != nil {
		return repoError(err, "Not following this user")
	}

	return success(c, http.StatusOK, echo.Map{"following": false})
}

// GetFollowers lists the users following :id
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	return h.listUsers(c, h.followRepository.GetFollowers, "followers")
}

// GetFollowing lists the users :id follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	return h.listUsers(c, h.followRepository.GetFollowing, "following")
}

type userLister func(ctx context.Context, userID uint, page, limit int) ([]models.User, int64, error)

func (h *FollowHandler) listUsers(c echo.Context, list userLister, key string) error {
	userID, err := parseUserIDParam(c, "id")
	if err != nil {
		return err
	}
	p := parsePagination(c, defaultPageLimit)

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, userID); err != nil {
		return repoError(err, "User not found")
	}

	users, total, err := list(ctx, userID, p.Page, p.Limit)
	if err != nil {
		return internalError(err)
	}

	compact := make([]models.UserCompact, len(users))
	for i := range users {
		compact[i] = users[i].ToCompact()
	}
	return successPage(c, echo.Map{key: compact}, p, total)
}
