package enums

// EditMode selects how the edit model treats the masked region.
type EditMode string

const (
	EditModeInpaintInsertion EditMode = "inpaint_insertion"
	EditModeInpaintRemoval   EditMode = "inpaint_removal"
	EditModeOutpaint         EditMode = "outpaint"
	EditModeBackgroundSwap   EditMode = "background_swap"
)

var validEditModes = []EditMode{
	EditModeInpaintInsertion,
	EditModeInpaintRemoval,
	EditModeOutpaint,
	EditModeBackgroundSwap,
}

var remoteEditModes = map[EditMode]string{
	EditModeInpaintInsertion: "EDIT_MODE_INPAINT_INSERTION",
	EditModeInpaintRemoval:   "EDIT_MODE_INPAINT_REMOVAL",
	EditModeOutpaint:         "EDIT_MODE_OUTPAINT",
	EditModeBackgroundSwap:   "EDIT_MODE_BGSWAP",
}

func (m EditMode) String() string { return string(m) }

func (m EditMode) IsValid() bool { return contains(validEditModes, m) }

// Remote is the value the edit model expects.
func (m EditMode) Remote() string { return remoteEditModes[m] }

// NeedsPrompt is false only for removal, where the mask says everything.
func (m EditMode) NeedsPrompt() bool { return m != EditModeInpaintRemoval }

func ParseEditMode(value string) (EditMode, error) {
	return parse(validEditModes, value, "edit mode")
}

// MaskMode tells the edit model where the mask comes from.
type MaskMode string

const (
	MaskModeUserProvided MaskMode = "user_provided"
	MaskModeBackground   MaskMode = "background"
	MaskModeForeground   MaskMode = "foreground"
	MaskModeSemantic     MaskMode = "semantic"
)

var validMaskModes = []MaskMode{
	MaskModeUserProvided,
	MaskModeBackground,
	MaskModeForeground,
	MaskModeSemantic,
}

var remoteMaskModes = map[MaskMode]string{
	MaskModeUserProvided: "MASK_MODE_USER_PROVIDED",
	MaskModeBackground:   "MASK_MODE_BACKGROUND",
	MaskModeForeground:   "MASK_MODE_FOREGROUND",
	MaskModeSemantic:     "MASK_MODE_SEMANTIC",
}

func (m MaskMode) String() string { return string(m) }

func (m MaskMode) IsValid() bool { return contains(validMaskModes, m) }

func (m MaskMode) Remote() string { return remoteMaskModes[m] }

func ParseMaskMode(value string) (MaskMode, error) {
	return parse(validMaskModes, value, "mask mode")
}

// UpscaleFactor is the resolution multiplier of an upscale.
type UpscaleFactor string

const (
	UpscaleX2 UpscaleFactor = "x2"
	UpscaleX4 UpscaleFactor = "x4"
)

var validUpscaleFactors = []UpscaleFactor{UpscaleX2, UpscaleX4}

func (f UpscaleFactor) String() string { return string(f) }

func (f UpscaleFactor) IsValid() bool { return contains(validUpscaleFactors, f) }

func ParseUpscaleFactor(value string) (UpscaleFactor, error) {
	return parse(validUpscaleFactors, value, "upscale factor")
}
