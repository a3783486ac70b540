package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/takopi/backend/internal/models"
	"github.com/takopi/backend/internal/repositories"
)

var contentSorts = map[string]bool{"": true, "latest": true, "popular": true, "price_asc": true, "price_desc": true}

// ContentHandler handles HTTP requests related to 3D model listings
type ContentHandler struct {
	contentRepository    repositories.ContentRepository
	generationRepository repositories.GenerationRepository
	likeRepository       repositories.LikeRepository
	views                contentViews
	log                  logrus.FieldLogger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(
	contentRepo repositories.ContentRepository,
	generationRepo repositories.GenerationRepository,
	userRepo repositories.UserRepository,
	likeRepo repositories.LikeRepository,
	purchaseRepo repositories.PurchaseRepository,
	log logrus.FieldLogger,
) *ContentHandler {
	return &ContentHandler{
		contentRepository:    contentRepo,
		generationRepository: generationRepo,
		likeRepository:       likeRepo,
		views:                contentViews{users: userRepo, likes: likeRepo, purchases: purchaseRepo},
		log:                  log,
	}
}

// RegisterPublicRoutes registers browse routes
func (h *ContentHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/content", h.ListContent)
	g.GET("/content/:id", h.GetContent)
}

// RegisterContentRoutes registers owner routes
func (h *ContentHandler) RegisterContentRoutes(g *echo.Group) {
	g.POST("/content", h.CreateContent)
	g.PUT("/content/:id", h.UpdateContent)
	g.DELETE("/content/:id", h.DeleteContent)
	g.POST("/content/:id/publish", h.PublishContent)
}

// ListContent browses published content
func (h *ContentHandler) ListContent(c echo.Context) error {
	sort := c.QueryParam("sort")
	if !contentSorts[sort] {
		return echo.NewHTTPError(http.StatusBadRequest, "sort must be one of latest, popular, price_asc, price_desc")
	}
	p := parsePagination(c, defaultPageLimit)

	filter := models.ContentFilter{
		Status:   models.ContentStatusPublished,
		Category: strings.TrimSpace(c.QueryParam("category")),
		Query:    strings.TrimSpace(c.QueryParam("q")),
		Sort:     sort,
	}

	ctx := c.Request().Context()
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

// GetContent returns one listing and counts views from anyone but the owner.
// Drafts are only visible to their owner.
func (h *ContentHandler) GetContent(c echo.Context) error {
	ctx := c.Request().Context()
	viewerID := getUserIDFromContext(c)

	content, err := h.contentRepository.GetContentByID(ctx, c.Param("id"))
	if err != nil {
		return repoError(err, "Content not found")
	}
	if !content.IsPublished() && content.OwnerID != viewerID {
		return echo.NewHTTPError(http.StatusNotFound, "Content not found")
	}

	if content.IsPublished() && content.OwnerID != viewerID {
		if err := h.contentRepository.IncrementCounter(ctx, content.ID.Hex(), repositories.CounterViews, 1); err != nil {
			h.log.WithError(err).WithField("content_id", content.ID.Hex()).Warn("failed to count view")
		} else {
			content.ViewsCount++
		}
	}

	view, err := h.views.one(ctx, viewerID, content)
	if err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, view)
}

// CreateContent creates a draft listing from a model URL or a finished generation
func (h *ContentHandler) CreateContent(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateContentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	content := &models.Content{
		OwnerID:      userID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Category:     strings.ToLower(strings.TrimSpace(req.Category)),
		Tags:         normalizeTags(req.Tags),
		ModelURL:     req.ModelURL,
		ThumbnailURL: req.ThumbnailURL,
		Price:        req.Price,
		Currency:     strings.ToUpper(req.Currency),
		Status:       models.ContentStatusDraft,
	}
	if content.Currency == "" {
		content.Currency = models.DefaultCurrency
	}

	if req.GenerationID != "" {
		gen, err := h.generationRepository.GetGenerationByID(ctx, req.GenerationID)
		if err != nil || gen.UserID != userID {
			if err != nil && !errors.Is(err, repositories.ErrNotFound) && !errors.Is(err, repositories.ErrInvalidID) {
				return internalError(err)
			}
			return echo.NewHTTPError(http.StatusNotFound, "Generation not found")
		}
		if !gen.Succeeded() {
			return echo.NewHTTPError(http.StatusBadRequest, "Generation has not finished successfully")
		}
		content.GenerationID = gen.ID.Hex()
		if content.ModelURL == "" {
			content.ModelURL = gen.ModelURLs.Primary()
		}
		if content.ThumbnailURL == "" {
			content.ThumbnailURL = gen.ThumbnailURL
		}
		if content.ModelURL == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Generation has no downloadable model")
		}
	}

	if err := h.contentRepository.CreateContent(ctx, content); err != nil {
		return internalError(err)
	}
	return success(c, http.StatusCreated, content)
}

// UpdateContent edits a listing. Only the owner may update it.
func (h *ContentHandler) UpdateContent(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.UpdateContentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	content, err := h.ownedContent(c, userID, "update")
	if err != nil {
		return err
	}

	if req.Title != nil {
		content.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		content.Description = *req.Description
	}
	if req.Category != nil {
		content.Category = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.Tags != nil {
		content.Tags = normalizeTags(req.Tags)
	}
	if req.Price != nil {
		content.Price = *req.Price
	}
	if req.ModelURL != nil {
		content.ModelURL = *req.ModelURL
	}
	if req.ThumbnailURL != nil {
		content.ThumbnailURL = *req.ThumbnailURL
	}

	if err := h.contentRepository.UpdateContent(ctx, content); err != nil {
		return repoError(err, "Content not found")
	}
	return success(c, http.StatusOK, content)
}

// DeleteContent removes a listing and its likes
func (h *ContentHandler) DeleteContent(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	content, err := h.ownedContent(c, userID, "delete")
	if err != nil {
		return err
	}

	id := content.ID.Hex()
	if err := h.contentRepository.DeleteContent(ctx, id); err != nil {
		return repoError(err, "Content not found")
	}
	if err := h.likeRepository.DeleteLikesForContent(ctx, id); err != nil {
		h.log.WithError(err).WithField("content_id", id).Warn("failed to remove likes of deleted content")
	}
	return c.NoContent(http.StatusNoContent)
}

// PublishContent moves a draft to published
func (h *ContentHandler) PublishContent(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	content, err := h.ownedContent(c, userID, "publish")
	if err != nil {
		return err
	}
	if content.IsPublished() {
		return echo.NewHTTPError(http.StatusConflict, "Content is already published")
	}

	now := time.Now().UTC()
	if err := h.contentRepository.PublishContent(ctx, content.ID.Hex(), now); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, "Content is already published")
		}
		return repoError(err, "Content not found")
	}

	content.Status = models.ContentStatusPublished
	content.PublishedAt = &now
	content.UpdatedAt = now
	return success(c, http.StatusOK, content)
}

func (h *ContentHandler) ownedContent(c echo.Context, userID uint, action string) (*models.Content, error) {
	content, err := h.contentRepository.GetContentByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, repoError(err, "Content not found")
	}
	if content.OwnerID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You are not authorized to "+action+" this content")
	}
	return content, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
