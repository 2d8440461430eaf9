package enums

import "strings"

// AssetScope controls who can use an uploaded source asset.
type AssetScope string

const (
	AssetScopePrivate AssetScope = "private"
	AssetScopeSystem  AssetScope = "system"
)

var validAssetScopes = []AssetScope{
	AssetScopePrivate,
	AssetScopeSystem,
}

func (s AssetScope) String() string {
	return string(s)
}

func (s AssetScope) IsValid() bool {
	return contains(validAssetScopes, s)
}

// ParseAssetScope converts raw input into an AssetScope.
func ParseAssetScope(value string) (AssetScope, error) {
	return parse(validAssetScopes, value, "asset scope")
}

// AssetType tags what an uploaded asset depicts.
type AssetType string

const (
	AssetTypeGenericImage    AssetType = "generic_image"
	AssetTypeGenericVideo    AssetType = "generic_video"
	AssetTypeVTOProduct      AssetType = "vto_product"
	AssetTypeVTOPersonFemale AssetType = "vto_person_female"
	AssetTypeVTOPersonMale   AssetType = "vto_person_male"
	AssetTypeVTOTop          AssetType = "vto_top"
	AssetTypeVTOBottom       AssetType = "vto_bottom"
	AssetTypeVTODress        AssetType = "vto_dress"
	AssetTypeVTOShoe         AssetType = "vto_shoe"
)

var validAssetTypes = []AssetType{
	AssetTypeGenericImage,
	AssetTypeGenericVideo,
	AssetTypeVTOProduct,
	AssetTypeVTOPersonFemale,
	AssetTypeVTOPersonMale,
	AssetTypeVTOTop,
	AssetTypeVTOBottom,
	AssetTypeVTODress,
	AssetTypeVTOShoe,
}

func (t AssetType) String() string {
	return string(t)
}

func (t AssetType) IsValid() bool {
	return contains(validAssetTypes, t)
}

// IsVTO reports whether the asset belongs to a virtual try-on category.
func (t AssetType) IsVTO() bool {
	return strings.HasPrefix(string(t), "vto_")
}

// VTOAssetTypes lists the virtual try-on categories in display order.
func VTOAssetTypes() []AssetType {
	out := make([]AssetType, 0, len(validAssetTypes))
	for _, t := range validAssetTypes {
		if t.IsVTO() {
			out = append(out, t)
		}
	}
	return out
}

// ParseAssetType converts raw input into an AssetType.
func ParseAssetType(value string) (AssetType, error) {
	return parse(validAssetTypes, value, "asset type")
}

// AssetRole is the part a linked input plays in a generation.
type AssetRole string

const (
	AssetRoleInput                AssetRole = "input"
	AssetRoleStyleReference       AssetRole = "style_reference"
	AssetRoleStartFrame           AssetRole = "start_frame"
	AssetRoleEndFrame             AssetRole = "end_frame"
	AssetRoleMask                 AssetRole = "mask"
	AssetRoleVTOPerson            AssetRole = "vto_person"
	AssetRoleVTOTop               AssetRole = "vto_top"
	AssetRoleVTOBottom            AssetRole = "vto_bottom"
	AssetRoleVTODress             AssetRole = "vto_dress"
	AssetRoleVTOShoe              AssetRole = "vto_shoe"
	AssetRoleVideoExtensionSource AssetRole = "video_extension_source"
	AssetRoleProduct              AssetRole = "product"
)

var validAssetRoles = []AssetRole{
	AssetRoleInput,
	AssetRoleStyleReference,
	AssetRoleStartFrame,
	AssetRoleEndFrame,
	AssetRoleMask,
	AssetRoleVTOPerson,
	AssetRoleVTOTop,
	AssetRoleVTOBottom,
	AssetRoleVTODress,
	AssetRoleVTOShoe,
	AssetRoleVideoExtensionSource,
	AssetRoleProduct,
}

var videoSourceRoles = []AssetRole{
	AssetRoleStartFrame,
	AssetRoleEndFrame,
	AssetRoleVideoExtensionSource,
}

func (r AssetRole) String() string {
	return string(r)
}

func (r AssetRole) IsValid() bool {
	return contains(validAssetRoles, r)
}

// AllowedForVideo reports whether a gallery item may feed a video generation in this role.
func (r AssetRole) AllowedForVideo() bool {
	return contains(videoSourceRoles, r)
}

// IsGarment reports whether the role is a piece of clothing for virtual try-on.
func (r AssetRole) IsGarment() bool {
	switch r {
	case AssetRoleVTOTop, AssetRoleVTOBottom, AssetRoleVTODress, AssetRoleVTOShoe:
		return true
	}
	return false
}

// ParseAssetRole converts raw input into an AssetRole.
func ParseAssetRole(value string) (AssetRole, error) {
	return parse(validAssetRoles, value, "asset role")
}
