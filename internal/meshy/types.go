package meshy

type Balance struct {
	Balance int `json:"balance"`
}

// TextTo3DRequest covers both the preview and the refine stage.
type TextTo3DRequest struct {
	Mode           string `json:"mode"` // "preview" or "refine"
	Prompt         string `json:"prompt,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	ArtStyle       string `json:"art_style,omitempty"`
	ShouldRemesh   bool   `json:"should_remesh,omitempty"`
	PreviewTaskID  string `json:"preview_task_id,omitempty"`
	EnablePBR      bool   `json:"enable_pbr,omitempty"`
}

type ImageTo3DRequest struct {
	ImageURL      string `json:"image_url"`
	EnablePBR     bool   `json:"enable_pbr,omitempty"`
	ShouldRemesh  bool   `json:"should_remesh,omitempty"`
	ShouldTexture bool   `json:"should_texture,omitempty"`
}

type RetextureRequest struct {
	InputTaskID      string `json:"input_task_id,omitempty"`
	ModelURL         string `json:"model_url,omitempty"`
	TextStylePrompt  string `json:"text_style_prompt"`
	EnableOriginalUV bool   `json:"enable_original_uv,omitempty"`
	EnablePBR        bool   `json:"enable_pbr,omitempty"`
}

type createTaskResponse struct {
	Result string `json:"result"`
}

type ModelURLs struct {
	GLB  string `json:"glb,omitempty"`
	FBX  string `json:"fbx,omitempty"`
	OBJ  string `json:"obj,omitempty"`
	USDZ string `json:"usdz,omitempty"`
}

type TextureURLs struct {
	BaseColor string `json:"base_color,omitempty"`
	Metallic  string `json:"metallic,omitempty"`
	Normal    string `json:"normal,omitempty"`
	Roughness string `json:"roughness,omitempty"`
}

type TaskError struct {
	Message string `json:"message"`
}

// Task is the common shape of text-to-3d, image-to-3d and retexture tasks.
// Timestamps are milliseconds since the epoch; zero means "not yet".
type Task struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	Progress     int           `json:"progress"`
	ModelURLs    ModelURLs     `json:"model_urls"`
	ThumbnailURL string        `json:"thumbnail_url"`
	TextureURLs  []TextureURLs `json:"texture_urls"`
	Prompt       string        `json:"prompt,omitempty"`
	ArtStyle     string        `json:"art_style,omitempty"`
	CreatedAt    int64         `json:"created_at"`
	StartedAt    int64         `json:"started_at"`
	FinishedAt   int64         `json:"finished_at"`
	TaskError    *TaskError    `json:"task_error,omitempty"`
}
