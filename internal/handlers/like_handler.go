package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/takopi/backend/internal/models"
	"github.com/takopi/backend/internal/repositories"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository         repositories.LikeRepository
	contentRepository      repositories.ContentRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	log                    logrus.FieldLogger
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, contentRepo repositories.ContentRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository, log logrus.FieldLogger) *LikeHandler {
	return &LikeHandler{
		likeRepository:         likeRepo,
		contentRepository:      contentRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		log:                    log,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/content/:id/like", h.LikeContent)
	g.DELETE("/content/:id/like", h.UnlikeContent)
	g.GET("/content/:id/like", h.GetLikeStatus)
}

func (h *LikeHandler) publishedContent(c echo.Context) (*models.Content, error) {
	content, err := h.contentRepository.GetContentByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, repoError(err, "Content not found")
	}
	if !content.IsPublished() {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Content not found")
	}
	return content, nil
}

// LikeContent handles liking a listing
func (h *LikeHandler) LikeContent(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	content, err := h.publishedContent(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	contentID := content.ID.Hex()
	like := &models.Like{UserID: userID, ContentID: contentID}
	if err := h.likeRepository.CreateLike(ctx, like); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "Content already liked")
		}
		return internalError(err)
	}

	if err := h.contentRepository.IncrementCounter(ctx, contentID, repositories.CounterLikes, 1); err != nil {
		// the like row and the counter live in different stores
		if undoErr := h.likeRepository.DeleteLike(ctx, userID, contentID); undoErr != nil {
			h.log.WithError(undoErr).WithField("content_id", contentID).Error("like: failed to undo like after counter error")
		}
		return internalError(err)
	}

	if content.OwnerID != userID {
		h.notifyOwner(c, userID, content)
	}

	return success(c, http.StatusCreated, echo.Map{
		"liked":       true,
		"likes_count": content.LikesCount + 1,
	})
}

func (h *LikeHandler) notifyOwner(c echo.Context, actorID uint, content *models.Content) {
	ctx := c.Request().Context()
	actor, err := h.userRepository.GetUserByID(ctx, actorID)
	if err != nil {
		h.log.WithError(err).Warn("like: actor lookup failed, skipping notification")
		return
	}
	notif := &models.Notification{
		Type:            models.NotificationLike,
		ActorID:         actorID,
		RecipientID:     content.OwnerID,
		TargetID:        content.ID.Hex(),
		TargetType:      "content",
		PreviewImageURL: content.ThumbnailURL,
		Message:         actor.Name() + " liked " + content.Title,
	}
	if err := h.notificationRepository.CreateNotification(ctx, notif); err != nil {
		h.log.WithError(err).Warn("like: failed to create notification")
	}
}

// UnlikeContent removes the caller's like
func (h *LikeHandler) UnlikeContent(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	content, err := h.contentRepository.GetContentByID(ctx, c.Param("id"))
	if err != nil {
		return repoError(err, "Content not found")
	}

	contentID := content.ID.Hex()
	if err := h.likeRepository.DeleteLike(ctx, userID, contentID); err != nil {
		return repoError(err, "Like not found")
	}
	if err := h.contentRepository.IncrementCounter(ctx, contentID, repositories.CounterLikes, -1); err != nil {
		if undoErr := h.likeRepository.CreateLike(ctx, &models.Like{UserID: userID, ContentID: contentID}); undoErr != nil {
			h.log.WithError(undoErr).WithField("content_id", contentID).Error("unlike: failed to restore like after counter error")
		}
		return internalError(err)
	}

	count := content.LikesCount - 1
	if count < 0 {
		count = 0
	}
	return success(c, http.StatusOK, echo.Map{"liked": false, "likes_count": count})
}

// GetLikeStatus reports whether the caller likes the listing
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	content, err := h.publishedContent(c)
	if err != nil {
		return err
	}

	liked, err := h.likeRepository.HasUserLiked(c.Request().Context(), userID, content.ID.Hex())
	if err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{
		"content_id":  content.ID.Hex(),
		"liked":       liked,
		"likes_count": content.LikesCount,
	})
}
