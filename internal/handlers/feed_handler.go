package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/takopi/backend/internal/models"
	"github.com/takopi/backend/internal/repositories"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	contentRepository repositories.ContentRepository
	followRepository  repositories.FollowRepository
	views             contentViews
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	contentRepo repositories.ContentRepository,
	userRepo repositories.UserRepository,
	followRepo repositories.FollowRepository,
	likeRepo repositories.LikeRepository,
	purchaseRepo repositories.PurchaseRepository,
) *FeedHandler {
	return &FeedHandler{
		contentRepository: contentRepo,
		followRepository:  followRepo,
		views:             contentViews{users: userRepo, likes: likeRepo, purchases: purchaseRepo},
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns published content from creators the current user follows, newest first
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	p := parsePagination(c, 10)

	ctx := c.Request().Context()
	following, err := h.followRepository.GetFollowingIDs(ctx, currentUserID)
	if err != nil {
		return internalError(err)
	}
	if len(following) == 0 {
		return successPage(c, echo.Map{"content": []ContentResponse{}}, p, 0)
	}

	filter := models.ContentFilter{
		OwnerIDs: following,
		Status:   models.ContentStatusPublished,
		Sort:     "latest",
	}
	contents, total, err := h.contentRepository.ListContent(ctx, filter, p.Skip(), int64(p.Limit))
	if err != nil {
		return internalError(err)
	}

	items, err := h.views.build(ctx, currentUserID, contents)
	if err != nil {
		return internalError(err)
	}
	return successPage(c, echo.Map{"content": items}, p, total)
}
