package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/takopi/backend/internal/models"
	"github.com/takopi/backend/internal/repositories"
)

// PurchaseHandler handles buying and downloading models
type PurchaseHandler struct {
	purchaseRepository     repositories.PurchaseRepository
	contentRepository      repositories.ContentRepository
	generationRepository   repositories.GenerationRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	mailer                 Mailer
	log                    logrus.FieldLogger
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(
	purchaseRepo repositories.PurchaseRepository,
	contentRepo repositories.ContentRepository,
	generationRepo repositories.GenerationRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	mailer Mailer,
	log logrus.FieldLogger,
) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseRepository:     purchaseRepo,
		contentRepository:      contentRepo,
		generationRepository:   generationRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		mailer:                 mailer,
		log:                    log,
	}
}

// RegisterPurchaseRoutes registers purchase routes
func (h *PurchaseHandler) RegisterPurchaseRoutes(g *echo.Group) {
	g.POST("/content/:id/purchase", h.Purchase)
	g.GET("/content/:id/download", h.Download)
}

// Purchase records a purchase of a published listing. Payment capture happens outside this service.
func (h *PurchaseHandler) Purchase(c echo.Context) error {
	buyerID, err := requireUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	content, err := h.contentRepository.GetContentByID(ctx, c.Param("id"))
	if err != nil {
		return repoError(err, "Content not found")
	}
	if !content.IsPublished() {
		return echo.NewHTTPError(http.StatusNotFound, "Content not found")
	}
	if content.OwnerID == buyerID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot purchase your own content")
	}

	contentID := content.ID.Hex()
	owned, err := h.purchaseRepository.HasPurchased(ctx, buyerID, contentID)
	if err != nil {
		return internalError(err)
	}
	if owned {
		return echo.NewHTTPError(http.StatusConflict, "Content already purchased")
	}

	purchase := &models.Purchase{
		Reference: uuid.NewString(),
		BuyerID:   buyerID,
		SellerID:  content.OwnerID,
		ContentID: contentID,
		Price:     content.Price,
		Currency:  content.Currency,
	}
	if err := h.purchaseRepository.CreatePurchase(ctx, purchase); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "Content already purchased")
		}
		return internalError(err)
	}

	if err := h.contentRepository.IncrementCounter(ctx, contentID, repositories.CounterPurchases, 1); err != nil {
		h.log.WithError(err).WithField("content_id", contentID).Warn("failed to count purchase")
	}

	h.notifyParties(c, purchase, content)

	return success(c, http.StatusCreated, purchase)
}

func (h *PurchaseHandler) notifyParties(c echo.Context, purchase *models.Purchase, content *models.Content) {
	ctx := c.Request().Context()
	users, err := h.userRepository.GetUsersByIDs(ctx, []uint{purchase.BuyerID, purchase.SellerID})
	if err != nil {
		h.log.WithError(err).Warn("purchase: user lookup failed, skipping notifications")
		return
	}
	buyer, okBuyer := users[purchase.BuyerID]
	seller, okSeller := users[purchase.SellerID]
	if !okBuyer || !okSeller {
		return
	}

	notif := &models.Notification{
		Type:            models.NotificationPurchase,
		ActorID:         buyer.ID,
		RecipientID:     seller.ID,
		TargetID:        purchase.ContentID,
		TargetType:      "content",
		PreviewImageURL: content.ThumbnailURL,
		Message:         buyer.Name() + " purchased " + content.Title,
	}
	if err := h.notificationRepository.CreateNotification(ctx, notif); err != nil {
		h.log.WithError(err).Warn("purchase: failed to create notification")
	}

	h.mailer.PurchaseReceipt(&buyer, content, purchase)
	h.mailer.SaleNotification(&seller, &buyer, content, purchase)
}

// Download returns the model files when the caller owns, bought, or may freely take the listing
func (h *PurchaseHandler) Download(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	content, err := h.contentRepository.GetContentByID(ctx, c.Param("id"))
	if err != nil {
		return repoError(err, "Content not found")
	}
	if !content.IsPublished() && content.OwnerID != userID {
		return echo.NewHTTPError(http.StatusNotFound, "Content not found")
	}

	contentID := content.ID.Hex()
	purchased := false
	if content.OwnerID != userID && !content.IsFree() {
		if purchased, err = h.purchaseRepository.HasPurchased(ctx, userID, contentID); err != nil {
			return internalError(err)
		}
	}
	if !canDownload(content, userID, purchased) {
		return echo.NewHTTPError(http.StatusForbidden, "Purchase required to download this model")
	}

	resp := echo.Map{
		"content_id": contentID,
		"model_url":  content.ModelURL,
	}
	if content.GenerationID != "" {
		gen, err := h.generationRepository.GetGenerationByID(ctx, content.GenerationID)
		switch {
		case err == nil:
			resp["model_urls"] = gen.ModelURLs
		case !errors.Is(err, repositories.ErrNotFound):
			h.log.WithError(err).WithField("content_id", contentID).Warn("failed to load source generation")
		}
	}
	return success(c, http.StatusOK, resp)
}
