package assets

// AssetType classifies a watched file by what can load it.
type AssetType int

const (
	AssetTypeNone AssetType = iota
	AssetTypeImage
	AssetTypeScene
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeImage:
		return "image"
	case AssetTypeScene:
		return "scene"
	}
	return "none"
}
