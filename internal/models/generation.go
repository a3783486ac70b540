package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	GenerationModeTextTo3D       = "text-to-3d"
	GenerationModeTextTo3DRefine = "text-to-3d-refine"
	GenerationModeImageTo3D      = "image-to-3d"
	GenerationModeRetexture      = "retexture"
)

// Task statuses as reported by Meshy.
const (
	GenerationPending    = "PENDING"
	GenerationInProgress = "IN_PROGRESS"
	GenerationSucceeded  = "SUCCEEDED"
	GenerationFailed     = "FAILED"
	GenerationCanceled   = "CANCELED"
	GenerationExpired    = "EXPIRED"
)

// ModelURLs holds the downloadable formats of a generated model.
type ModelURLs struct {
	GLB  string `json:"glb,omitempty" bson:"glb,omitempty"`
	FBX  string `json:"fbx,omitempty" bson:"fbx,omitempty"`
	OBJ  string `json:"obj,omitempty" bson:"obj,omitempty"`
	USDZ string `json:"usdz,omitempty" bson:"usdz,omitempty"`
}

// Primary picks the format used when a generation becomes a listing.
func (m ModelURLs) Primary() string {
	for _, u := range []string{m.GLB, m.FBX, m.OBJ, m.USDZ} {
		if u != "" {
			return u
		}
	}
	return ""
}

// Generation is one Meshy task owned by a user, stored in MongoDB
type Generation struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID             uint               `json:"user_id" bson:"user_id"`
	TaskID             string             `json:"task_id" bson:"task_id"`
	Mode               string             `json:"mode" bson:"mode"`
	Prompt             string             `json:"prompt,omitempty" bson:"prompt,omitempty"`
	NegativePrompt     string             `json:"negative_prompt,omitempty" bson:"negative_prompt,omitempty"`
	ArtStyle           string             `json:"art_style,omitempty" bson:"art_style,omitempty"`
	ImageURL           string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	SourceGenerationID string             `json:"source_generation_id,omitempty" bson:"source_generation_id,omitempty"`
	Status             string             `json:"status" bson:"status"`
	Progress           int                `json:"progress" bson:"progress"`
	ModelURLs          ModelURLs          `json:"model_urls" bson:"model_urls"`
	ThumbnailURL       string             `json:"thumbnail_url,omitempty" bson:"thumbnail_url,omitempty"`
	TextureURLs        []string           `json:"texture_urls,omitempty" bson:"texture_urls,omitempty"`
	Error              string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
	FinishedAt         *time.Time         `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
}

// IsTerminal reports whether Meshy will no longer change this task.
func (g *Generation) IsTerminal() bool {
	switch g.Status {
	case GenerationSucceeded, GenerationFailed, GenerationCanceled, GenerationExpired:
		return true
	}
	return false
}

func (g *Generation) Succeeded() bool {
	return g.Status == GenerationSucceeded
}

type TextTo3DRequest struct {
	Prompt         string `json:"prompt" validate:"required,min=3,max=600"`
	NegativePrompt string `json:"negative_prompt" validate:"max=600"`
	ArtStyle       string `json:"art_style" validate:"omitempty,oneof=realistic sculpture"`
}

type RefineRequest struct {
	GenerationID string `json:"generation_id" validate:"required,len=24,hexadecimal"`
}

type ImageTo3DRequest struct {
	ImageURL string `json:"image_url" validate:"required,url"`
}

type RetextureRequest struct {
	GenerationID string `json:"generation_id" validate:"omitempty,len=24,hexadecimal"`
	ModelURL     string `json:"model_url" validate:"required_without=GenerationID,omitempty,url"`
	StylePrompt  string `json:"style_prompt" validate:"required,min=3,max=600"`
}
