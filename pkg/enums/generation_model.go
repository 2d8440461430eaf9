package enums

// GenerationModel identifies the remote model used for a generation.
type GenerationModel string

const (
	GenerationModelImagen4Ultra GenerationModel = "imagen-4.0-ultra-generate-001"
	GenerationModelImagen4      GenerationModel = "imagen-4.0-generate-001"
	GenerationModelImagen4Fast  GenerationModel = "imagen-4.0-fast-generate-001"
	GenerationModelImagen3      GenerationModel = "imagen-3.0-generate-002"
	GenerationModelImagen3Fast  GenerationModel = "imagen-3.0-fast-generate-001"
	GenerationModelGeminiImage  GenerationModel = "gemini-2.5-flash-image-preview"
	GenerationModelVeo2         GenerationModel = "veo-2.0-generate-001"
	GenerationModelVeo3         GenerationModel = "veo-3.0-generate-001"
	GenerationModelVeo3Fast     GenerationModel = "veo-3.0-fast-generate-001"

	// Task models transform existing images rather than generate from text.
	GenerationModelImagenEdit GenerationModel = "imagen-3.0-capability-001"
	GenerationModelTryOn      GenerationModel = "virtual-try-on-preview-08-04"
	GenerationModelRecontext  GenerationModel = "imagen-product-recontext-preview-06-30"
)

var imageGenerationModels = []GenerationModel{
	GenerationModelImagen4Ultra,
	GenerationModelImagen4,
	GenerationModelImagen4Fast,
	GenerationModelImagen3,
	GenerationModelImagen3Fast,
	GenerationModelGeminiImage,
}

var videoGenerationModels = []GenerationModel{
	GenerationModelVeo2,
	GenerationModelVeo3,
	GenerationModelVeo3Fast,
}

var taskGenerationModels = []GenerationModel{
	GenerationModelImagenEdit,
	GenerationModelTryOn,
	GenerationModelRecontext,
}

func (g GenerationModel) String() string {
	return string(g)
}

func (g GenerationModel) IsValid() bool {
	return g.IsImage() || g.IsVideo() || g.IsTask()
}

func (g GenerationModel) IsImage() bool {
	return contains(imageGenerationModels, g)
}

func (g GenerationModel) IsVideo() bool {
	return contains(videoGenerationModels, g)
}

// IsTask reports whether the model edits, dresses or restages input images.
func (g GenerationModel) IsTask() bool {
	return contains(taskGenerationModels, g)
}

// SingleSample reports whether the model answers one image per call, so a
// multi-image job needs one call per image.
func (g GenerationModel) SingleSample() bool {
	return g == GenerationModelImagen4Ultra || g == GenerationModelGeminiImage
}

// AcceptsReferences reports whether a text-to-image model takes input images.
func (g GenerationModel) AcceptsReferences() bool {
	return g == GenerationModelGeminiImage
}

// RewritesPrompt reports whether the prompt is expanded by the text model
// before submission. Task models take the caller's wording as-is.
func (g GenerationModel) RewritesPrompt() bool {
	return g.IsImage() || g.IsVideo()
}

// SupportsAudio reports whether the model can synthesize an audio track.
func (g GenerationModel) SupportsAudio() bool {
	return g == GenerationModelVeo3 || g == GenerationModelVeo3Fast
}

// ParseGenerationModel converts raw input into a GenerationModel.
func ParseGenerationModel(value string) (GenerationModel, error) {
	all := append(append([]GenerationModel{}, imageGenerationModels...), videoGenerationModels...)
	return parse(append(all, taskGenerationModels...), value, "generation model")
}

// ImageGenerationModels lists the accepted image models as strings.
func ImageGenerationModels() []string {
	return values(imageGenerationModels)
}

// VideoGenerationModels lists the accepted video models as strings.
func VideoGenerationModels() []string {
	return values(videoGenerationModels)
}
