package enums

// AspectRatio is the output frame shape requested from the model.
type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio3x4  AspectRatio = "3:4"
	AspectRatio4x3  AspectRatio = "4:3"
)

var validAspectRatios = []AspectRatio{
	AspectRatio1x1,
	AspectRatio9x16,
	AspectRatio16x9,
	AspectRatio3x4,
	AspectRatio4x3,
}

func (a AspectRatio) String() string { return string(a) }

func (a AspectRatio) IsValid() bool { return contains(validAspectRatios, a) }

// SupportsVideo reports whether video models accept this ratio.
func (a AspectRatio) SupportsVideo() bool {
	return a == AspectRatio16x9 || a == AspectRatio9x16
}

func ParseAspectRatio(value string) (AspectRatio, error) {
	return parse(validAspectRatios, value, "aspect ratio")
}

type Style string

const (
	StyleModern         Style = "Modern"
	StyleRealistic      Style = "Realistic"
	StyleVintage        Style = "Vintage"
	StyleMonochrome     Style = "Monochrome"
	StyleFantasy        Style = "Fantasy"
	StyleSketch         Style = "Sketch"
	StylePhotorealistic Style = "Photorealistic"
	StyleCinematic      Style = "Cinematic"
)

var validStyles = []Style{
	StyleModern,
	StyleRealistic,
	StyleVintage,
	StyleMonochrome,
	StyleFantasy,
	StyleSketch,
	StylePhotorealistic,
	StyleCinematic,
}

func (s Style) String() string { return string(s) }

func (s Style) IsValid() bool { return contains(validStyles, s) }

func ParseStyle(value string) (Style, error) {
	return parse(validStyles, value, "style")
}

type Lighting string

const (
	LightingBacklighting  Lighting = "Backlighting"
	LightingDramaticLight Lighting = "Dramatic Light"
	LightingGoldenHour    Lighting = "Golden Hour"
	LightingExposure      Lighting = "Exposure"
	LightingLowLighting   Lighting = "Low Lighting"
	LightingMultiexposure Lighting = "Multiexposure"
	LightingStudioLight   Lighting = "Studio Light"
	LightingCinematic     Lighting = "Cinematic"
	LightingStudio        Lighting = "Studio"
	LightingNatural       Lighting = "Natural"
	LightingDramatic      Lighting = "Dramatic"
	LightingAmbient       Lighting = "Ambient"
)

var validLightings = []Lighting{
	LightingBacklighting,
	LightingDramaticLight,
	LightingGoldenHour,
	LightingExposure,
	LightingLowLighting,
	LightingMultiexposure,
	LightingStudioLight,
	LightingCinematic,
	LightingStudio,
	LightingNatural,
	LightingDramatic,
	LightingAmbient,
}

func (l Lighting) String() string { return string(l) }

func (l Lighting) IsValid() bool { return contains(validLightings, l) }

func ParseLighting(value string) (Lighting, error) {
	return parse(validLightings, value, "lighting")
}

type ColorAndTone string

const (
	ColorAndToneBlackAndWhite ColorAndTone = "Black & White"
	ColorAndToneGolden        ColorAndTone = "Golden"
	ColorAndToneMonochromatic ColorAndTone = "Monochromatic"
	ColorAndToneMuted         ColorAndTone = "Muted"
	ColorAndTonePastel        ColorAndTone = "Pastel"
	ColorAndToneToned         ColorAndTone = "Toned"
	ColorAndToneVibrant       ColorAndTone = "Vibrant"
	ColorAndToneWarm          ColorAndTone = "Warm"
	ColorAndToneCool          ColorAndTone = "Cool"
	ColorAndToneMonochrome    ColorAndTone = "Monochrome"
)

var validColorAndTones = []ColorAndTone{
	ColorAndToneBlackAndWhite,
	ColorAndToneGolden,
	ColorAndToneMonochromatic,
	ColorAndToneMuted,
	ColorAndTonePastel,
	ColorAndToneToned,
	ColorAndToneVibrant,
	ColorAndToneWarm,
	ColorAndToneCool,
	ColorAndToneMonochrome,
}

func (c ColorAndTone) String() string { return string(c) }

func (c ColorAndTone) IsValid() bool { return contains(validColorAndTones, c) }

func ParseColorAndTone(value string) (ColorAndTone, error) {
	return parse(validColorAndTones, value, "color and tone")
}

type Composition string

const (
	CompositionCloseup       Composition = "Closeup"
	CompositionKnolling      Composition = "Knolling"
	CompositionLandscape     Composition = "Landscape photography"
	CompositionThroughWindow Composition = "Photographed through window"
	CompositionShallowDepth  Composition = "Shallow depth of field"
	CompositionShotFromAbove Composition = "Shot from above"
	CompositionShotFromBelow Composition = "Shot from below"
	CompositionSurfaceDetail Composition = "Surface detail"
	CompositionWideAngle     Composition = "Wide angle"
)

var validCompositions = []Composition{
	CompositionCloseup,
	CompositionKnolling,
	CompositionLandscape,
	CompositionThroughWindow,
	CompositionShallowDepth,
	CompositionShotFromAbove,
	CompositionShotFromBelow,
	CompositionSurfaceDetail,
	CompositionWideAngle,
}

func (c Composition) String() string { return string(c) }

func (c Composition) IsValid() bool { return contains(validCompositions, c) }

func ParseComposition(value string) (Composition, error) {
	return parse(validCompositions, value, "composition")
}
