package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/takopi/backend/internal/meshy"
	"github.com/takopi/backend/internal/models"
	"github.com/takopi/backend/internal/repositories"
)

// MeshyClient is the subset of the Meshy API used by the AI routes.
type MeshyClient interface {
	GetBalance(ctx context.Context) (*meshy.Balance, error)
	CreateTextTo3D(ctx context.Context, req meshy.TextTo3DRequest) (string, error)
	GetTextTo3D(ctx context.Context, taskID string) (*meshy.Task, error)
	CreateImageTo3D(ctx context.Context, req meshy.ImageTo3DRequest) (string, error)
	GetImageTo3D(ctx context.Context, taskID string) (*meshy.Task, error)
	CreateRetexture(ctx context.Context, req meshy.RetextureRequest) (string, error)
	GetRetexture(ctx context.Context, taskID string) (*meshy.Task, error)
}

// AIHandler starts and tracks Meshy generations
type AIHandler struct {
	meshy                  MeshyClient
	generationRepository   repositories.GenerationRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	mailer                 Mailer
	log                    logrus.FieldLogger
}

// NewAIHandler creates a new AIHandler
func NewAIHandler(
	client MeshyClient,
	generationRepo repositories.GenerationRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	mailer Mailer,
	log logrus.FieldLogger,
) *AIHandler {
	return &AIHandler{
		meshy:                  client,
		generationRepository:   generationRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		mailer:                 mailer,
		log:                    log,
	}
}

// RegisterReadRoutes registers routes that only query Meshy
func (h *AIHandler) RegisterReadRoutes(g *echo.Group) {
	g.GET("/balance", h.GetBalance)
	g.GET("/generations/:id", h.GetGeneration)
}

// RegisterTaskRoutes registers routes that start paid Meshy tasks
func (h *AIHandler) RegisterTaskRoutes(g *echo.Group) {
	g.POST("/text-to-3d", h.TextTo3D)
	g.POST("/text-to-3d/refine", h.RefineTextTo3D)
	g.POST("/image-to-3d", h.ImageTo3D)
	g.POST("/retexture", h.Retexture)
}

// meshyError maps provider failures onto client-facing statuses.
func meshyError(err error) error {
	if errors.Is(err, meshy.ErrNotConfigured) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI generation is not configured")
	}
	var apiErr *meshy.APIError
	if !errors.As(err, &apiErr) {
		return echo.NewHTTPError(http.StatusBadGateway, "AI provider is unavailable").SetInternal(err)
	}
	switch apiErr.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return echo.NewHTTPError(http.StatusBadRequest, apiErr.Message)
	case http.StatusPaymentRequired:
		return echo.NewHTTPError(http.StatusPaymentRequired, "Insufficient AI credits")
	case http.StatusNotFound:
		return echo.NewHTTPError(http.StatusNotFound, "Generation task not found")
	case http.StatusTooManyRequests:
		return echo.NewHTTPError(http.StatusTooManyRequests, "AI provider rate limit reached, try again later")
	default:
		// 401 and 403 mean the platform key is wrong, which the caller cannot fix
		return echo.NewHTTPError(http.StatusBadGateway, "AI provider request failed").SetInternal(err)
	}
}

// GetBalance returns the platform's remaining Meshy credits
func (h *AIHandler) GetBalance(c echo.Context) error {
	balance, err := h.meshy.GetBalance(c.Request().Context())
	if err != nil {
		return meshyError(err)
	}
	return success(c, http.StatusOK, balance)
}

// TextTo3D starts a text-to-3D preview task
func (h *AIHandler) TextTo3D(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.TextTo3DRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	taskID, err := h.meshy.CreateTextTo3D(ctx, meshy.TextTo3DRequest{
		Mode:           "preview",
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		ArtStyle:       req.ArtStyle,
		ShouldRemesh:   true,
	})
	if err != nil {
		return meshyError(err)
	}

	return h.saveGeneration(c, &models.Generation{
		UserID:         userID,
		TaskID:         taskID,
		Mode:           models.GenerationModeTextTo3D,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		ArtStyle:       req.ArtStyle,
	})
}

// RefineTextTo3D texturizes a finished preview
func (h *AIHandler) RefineTextTo3D(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.RefineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	source, err := h.ownedGeneration(c, userID, req.GenerationID)
	if err != nil {
		return err
	}
	if source.Mode != models.GenerationModeTextTo3D || !source.Succeeded() {
		return echo.NewHTTPError(http.StatusBadRequest, "Only a finished text-to-3d preview can be refined")
	}

	taskID, err := h.meshy.CreateTextTo3D(c.Request().Context(), meshy.TextTo3DRequest{
		Mode:          "refine",
		PreviewTaskID: source.TaskID,
		EnablePBR:     true,
	})
	if err != nil {
		return meshyError(err)
	}

	return h.saveGeneration(c, &models.Generation{
		UserID:             userID,
		TaskID:             taskID,
		Mode:               models.GenerationModeTextTo3DRefine,
		Prompt:             source.Prompt,
		ArtStyle:           source.ArtStyle,
		SourceGenerationID: source.ID.Hex(),
	})
}

// ImageTo3D starts an image-to-3D task
func (h *AIHandler) ImageTo3D(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.ImageTo3DRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	taskID, err := h.meshy.CreateImageTo3D(c.Request().Context(), meshy.ImageTo3DRequest{
		ImageURL:      req.ImageURL,
		EnablePBR:     true,
		ShouldTexture: true,
	})
	if err != nil {
		return meshyError(err)
	}

	return h.saveGeneration(c, &models.Generation{
		UserID:   userID,
		TaskID:   taskID,
		Mode:     models.GenerationModeImageTo3D,
		ImageURL: req.ImageURL,
	})
}

// Retexture applies a new texture to a finished generation or an external model
func (h *AIHandler) Retexture(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.RetextureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task := meshy.RetextureRequest{TextStylePrompt: req.StylePrompt, EnableOriginalUV: true}
	gen := &models.Generation{
		UserID: userID,
		Mode:   models.GenerationModeRetexture,
		Prompt: req.StylePrompt,
	}

	if req.GenerationID != "" {
		source, err := h.ownedGeneration(c, userID, req.GenerationID)
		if err != nil {
			return err
		}
		if !source.Succeeded() {
			return echo.NewHTTPError(http.StatusBadRequest, "Only a finished generation can be retextured")
		}
		task.InputTaskID = source.TaskID
		gen.SourceGenerationID = source.ID.Hex()
	} else {
		task.ModelURL = req.ModelURL
	}

	taskID, err := h.meshy.CreateRetexture(c.Request().Context(), task)
	if err != nil {
		return meshyError(err)
	}
	gen.TaskID = taskID
	return h.saveGeneration(c, gen)
}

func (h *AIHandler) saveGeneration(c echo.Context, gen *models.Generation) error {
	gen.Status = models.GenerationPending
	if err := h.generationRepository.CreateGeneration(c.Request().Context(), gen); err != nil {
		return internalError(err)
	}
	h.log.WithFields(logrus.Fields{
		"user_id": gen.UserID,
		"task_id": gen.TaskID,
		"mode":    gen.Mode,
	}).Info("generation started")
	return success(c, http.StatusCreated, gen)
}

func (h *AIHandler) ownedGeneration(c echo.Context, userID uint, id string) (*models.Generation, error) {
	gen, err := h.generationRepository.GetGenerationByID(c.Request().Context(), id)
	if err != nil {
		return nil, repoError(err, "Generation not found")
	}
	// other users' generations are reported as missing
	if gen.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Generation not found")
	}
	return gen, nil
}

// GetGeneration returns a generation, refreshing it from Meshy while it is still running
func (h *AIHandler) GetGeneration(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	gen, err := h.ownedGeneration(c, userID, c.Param("id"))
	if err != nil {
		return err
	}
	if gen.IsTerminal() {
		return success(c, http.StatusOK, gen)
	}

	ctx := c.Request().Context()
	task, err := h.fetchTask(ctx, gen)
	if err != nil {
		return meshyError(err)
	}

	previous := gen.Status
	applyTask(gen, task)

	if err := h.generationRepository.UpdateGenerationStatus(ctx, gen, previous); err != nil {
		if !errors.Is(err, repositories.ErrConflict) {
			return internalError(err)
		}
		// a concurrent refresh already moved it on
		latest, err := h.generationRepository.GetGenerationByID(ctx, gen.ID.Hex())
		if err != nil {
			return repoError(err, "Generation not found")
		}
		return success(c, http.StatusOK, latest)
	}

	if gen.Succeeded() {
		h.announceReady(ctx, gen)
	}
	return success(c, http.StatusOK, gen)
}

func (h *AIHandler) fetchTask(ctx context.Context, gen *models.Generation) (*meshy.Task, error) {
	switch gen.Mode {
	case models.GenerationModeImageTo3D:
		return h.meshy.GetImageTo3D(ctx, gen.TaskID)
	case models.GenerationModeRetexture:
		return h.meshy.GetRetexture(ctx, gen.TaskID)
	default:
		return h.meshy.GetTextTo3D(ctx, gen.TaskID)
	}
}

// applyTask copies the provider's view of a task onto gen.
func applyTask(gen *models.Generation, task *meshy.Task) {
	gen.Status = task.Status
	gen.Progress = task.Progress
	gen.ModelURLs = models.ModelURLs{
		GLB:  task.ModelURLs.GLB,
		FBX:  task.ModelURLs.FBX,
		OBJ:  task.ModelURLs.OBJ,
		USDZ: task.ModelURLs.USDZ,
	}
	if task.ThumbnailURL != "" {
		gen.ThumbnailURL = task.ThumbnailURL
	}
	gen.TextureURLs = gen.TextureURLs[:0]
	for _, t := range task.TextureURLs {
		if t.BaseColor != "" {
			gen.TextureURLs = append(gen.TextureURLs, t.BaseColor)
		}
	}
	if task.TaskError != nil {
		gen.Error = task.TaskError.Message
	}
	if task.FinishedAt > 0 {
		finished := time.UnixMilli(task.FinishedAt).UTC()
		gen.FinishedAt = &finished
	}
}

func (h *AIHandler) announceReady(ctx context.Context, gen *models.Generation) {
	user, err := h.userRepository.GetUserByID(ctx, gen.UserID)
	if err != nil {
		h.log.WithError(err).WithField("generation_id", gen.ID.Hex()).Warn("generation owner lookup failed")
		return
	}

	notif := &models.Notification{
		Type:            models.NotificationGeneration,
		RecipientID:     gen.UserID,
		TargetID:        gen.ID.Hex(),
		TargetType:      "generation",
		PreviewImageURL: gen.ThumbnailURL,
		Message:         "Your 3D model is ready",
	}
	if err := h.notificationRepository.CreateNotification(ctx, notif); err != nil {
		h.log.WithError(err).Warn("generation: failed to create notification")
	}
	h.mailer.GenerationReady(user, gen)
}
