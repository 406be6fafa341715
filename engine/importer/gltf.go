package importer

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/ember/engine/math"
	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

var (
	ErrInvalidGLTFVersion = errors.New("gltf: version must be 2.x")
	ErrInvalidGLB         = errors.New("gltf: invalid binary container")
)

// glTF sampler wrap constants.
const (
	gltfWrapClampToEdge    = 33071
	gltfWrapMirroredRepeat = 33648
	gltfWrapRepeat         = 10497
)

// GLB container constants.
const (
	glbMagic     = 0x46546C67
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A
	glbChunkBIN  = 0x004E4942
)

// Wire types mirroring the glTF 2.0 JSON schema, limited to what material
// texture import needs.
type gltfDocument struct {
	Asset struct {
		Version string `json:"version"`
	} `json:"asset"`
	Materials   []gltfMaterial   `json:"materials"`
	Textures    []gltfTexture    `json:"textures"`
	Images      []gltfImage      `json:"images"`
	Samplers    []gltfSampler    `json:"samplers"`
	BufferViews []gltfBufferView `json:"bufferViews"`
	Buffers     []gltfBuffer     `json:"buffers"`
}

type gltfMaterial struct {
	Name                 string `json:"name"`
	PbrMetallicRoughness *struct {
		BaseColorFactor          *[4]float32      `json:"baseColorFactor"`
		BaseColorTexture         *gltfTextureInfo `json:"baseColorTexture"`
		MetallicFactor           *float32         `json:"metallicFactor"`
		RoughnessFactor          *float32         `json:"roughnessFactor"`
		MetallicRoughnessTexture *gltfTextureInfo `json:"metallicRoughnessTexture"`
	} `json:"pbrMetallicRoughness"`
	NormalTexture *struct {
		gltfTextureInfo
		Scale *float32 `json:"scale"`
	} `json:"normalTexture"`
	OcclusionTexture *struct {
		gltfTextureInfo
		Strength *float32 `json:"strength"`
	} `json:"occlusionTexture"`
	EmissiveTexture *gltfTextureInfo `json:"emissiveTexture"`
	EmissiveFactor  *[3]float32      `json:"emissiveFactor"`
}

type gltfTextureInfo struct {
	Index int `json:"index"`
}

type gltfTexture struct {
	Sampler *int `json:"sampler"`
	Source  *int `json:"source"`
}

type gltfImage struct {
	URI        string `json:"uri"`
	MimeType   string `json:"mimeType"`
	BufferView *int   `json:"bufferView"`
}

type gltfSampler struct {
	WrapS *int `json:"wrapS"`
	WrapT *int `json:"wrapT"`
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
}

type gltfBuffer struct {
	URI        string `json:"uri"`
	ByteLength int    `json:"byteLength"`
}

// GLTFScene adapts a parsed .gltf or .glb file to the Scene interface.
// Images referenced by URI stay file references; data URIs and bufferView
// images become embedded compressed textures.
type GLTFScene struct {
	baseDir   string
	materials []*gltfSceneMaterial
	embedded  []EmbeddedTexture
}

type gltfSceneMaterial struct {
	name       string
	textures   map[TextureChannel]TextureRef
	properties metadata.MaterialProperties
}

func (m *gltfSceneMaterial) Name() string { return m.name }

func (m *gltfSceneMaterial) Texture(channel TextureChannel) (TextureRef, bool) {
	ref, ok := m.textures[channel]
	return ref, ok
}

func (m *gltfSceneMaterial) Properties() metadata.MaterialProperties {
	return m.properties
}

func (s *GLTFScene) BaseDir() string    { return s.baseDir }
func (s *GLTFScene) MaterialCount() int { return len(s.materials) }

func (s *GLTFScene) Material(index int) Material {
	if index < 0 || index >= len(s.materials) {
		return nil
	}
	return s.materials[index]
}

func (s *GLTFScene) EmbeddedTexture(index int) *EmbeddedTexture {
	if index < 0 || index >= len(s.embedded) {
		return nil
	}
	return &s.embedded[index]
}

// LoadGLTF parses a glTF 2.0 file, binary or JSON, and returns it as an
// importable scene. Buffers are only loaded when some image actually lives
// in one.
func LoadGLTF(path string) (*GLTFScene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gltf: reading '%s': %w", path, err)
	}

	var jsonChunk, binChunk []byte
	if len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == glbMagic {
		jsonChunk, binChunk, err = splitGLB(data)
		if err != nil {
			return nil, err
		}
	} else {
		jsonChunk = data
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonChunk, &doc); err != nil {
		return nil, fmt.Errorf("gltf: parsing JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, ErrInvalidGLTFVersion
	}

	return buildGLTFScene(&doc, filepath.Dir(path), binChunk)
}

// splitGLB splits a binary container into its JSON and BIN chunks.
func splitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	if len(data) < 12 {
		return nil, nil, ErrInvalidGLB
	}
	if binary.LittleEndian.Uint32(data[4:8]) != glbVersion {
		return nil, nil, ErrInvalidGLB
	}

	offset := 12
	for offset+8 <= len(data) {
		length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		chunkType := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		offset += 8
		if offset+length > len(data) {
			return nil, nil, ErrInvalidGLB
		}
		chunk := data[offset : offset+length]
		offset += length

		switch chunkType {
		case glbChunkJSON:
			jsonChunk = chunk
		case glbChunkBIN:
			binChunk = chunk
		}
	}
	if jsonChunk == nil {
		return nil, nil, ErrInvalidGLB
	}
	return jsonChunk, binChunk, nil
}

type gltfSceneBuilder struct {
	doc      *gltfDocument
	baseDir  string
	binChunk []byte
	scene    *GLTFScene
	// Lazily resolved per-image references; data URI and bufferView images
	// are only materialized once however many textures point at them.
	imageRefs []*TextureRef
}

func buildGLTFScene(doc *gltfDocument, baseDir string, binChunk []byte) (*GLTFScene, error) {
	b := &gltfSceneBuilder{
		doc:       doc,
		baseDir:   baseDir,
		binChunk:  binChunk,
		scene:     &GLTFScene{baseDir: baseDir},
		imageRefs: make([]*TextureRef, len(doc.Images)),
	}

	for i := range doc.Materials {
		mat, err := b.buildMaterial(&doc.Materials[i], i)
		if err != nil {
			return nil, err
		}
		b.scene.materials = append(b.scene.materials, mat)
	}

	return b.scene, nil
}

func (b *gltfSceneBuilder) buildMaterial(src *gltfMaterial, index int) (*gltfSceneMaterial, error) {
	mat := &gltfSceneMaterial{
		name:       src.Name,
		textures:   make(map[TextureChannel]TextureRef),
		properties: metadata.NewMaterialProperties(),
	}
	if mat.name == "" {
		mat.name = fmt.Sprintf("material_%d", index)
	}

	bind := func(channel TextureChannel, info *gltfTextureInfo) error {
		if info == nil {
			return nil
		}
		ref, err := b.resolveTexture(info.Index)
		if err != nil {
			return fmt.Errorf("gltf: material '%s': %w", mat.name, err)
		}
		mat.textures[channel] = ref
		return nil
	}

	if pbr := src.PbrMetallicRoughness; pbr != nil {
		if err := bind(ChannelBaseColor, pbr.BaseColorTexture); err != nil {
			return nil, err
		}
		if err := bind(ChannelMetallicRoughness, pbr.MetallicRoughnessTexture); err != nil {
			return nil, err
		}
		if pbr.BaseColorFactor != nil {
			f := pbr.BaseColorFactor
			mat.properties.AlbedoColor = math.NewVec4(f[0], f[1], f[2], f[3])
		}
		if pbr.MetallicFactor != nil {
			mat.properties.Metalness = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			mat.properties.Roughness = *pbr.RoughnessFactor
		}
	}
	if src.NormalTexture != nil {
		if err := bind(ChannelNormals, &src.NormalTexture.gltfTextureInfo); err != nil {
			return nil, err
		}
		if src.NormalTexture.Scale != nil {
			mat.properties.NormalScale = *src.NormalTexture.Scale
		}
	}
	if src.OcclusionTexture != nil {
		if err := bind(ChannelAmbientOcclusion, &src.OcclusionTexture.gltfTextureInfo); err != nil {
			return nil, err
		}
		if src.OcclusionTexture.Strength != nil {
			mat.properties.Occlusion = *src.OcclusionTexture.Strength
		}
	}
	if err := bind(ChannelEmissive, src.EmissiveTexture); err != nil {
		return nil, err
	}
	if src.EmissiveFactor != nil {
		f := src.EmissiveFactor
		mat.properties.EmissionColor = math.NewVec3(f[0], f[1], f[2])
	}

	return mat, nil
}

// resolveTexture turns a glTF texture index into a TextureRef, carrying the
// sampler's wrap modes along.
func (b *gltfSceneBuilder) resolveTexture(index int) (TextureRef, error) {
	if index < 0 || index >= len(b.doc.Textures) {
		return TextureRef{}, fmt.Errorf("texture index %d out of range", index)
	}
	tex := &b.doc.Textures[index]
	if tex.Source == nil {
		return TextureRef{}, fmt.Errorf("texture %d has no image source", index)
	}

	wrapU, wrapV := WrapRepeat, WrapRepeat
	if tex.Sampler != nil && *tex.Sampler >= 0 && *tex.Sampler < len(b.doc.Samplers) {
		s := &b.doc.Samplers[*tex.Sampler]
		wrapU = gltfWrapMode(s.WrapS)
		wrapV = gltfWrapMode(s.WrapT)
	}

	base, err := b.resolveImage(*tex.Source)
	if err != nil {
		return TextureRef{}, err
	}
	ref := *base
	ref.WrapU, ref.WrapV = wrapU, wrapV
	return ref, nil
}

func gltfWrapMode(v *int) WrapMode {
	if v == nil {
		return WrapRepeat
	}
	switch *v {
	case gltfWrapMirroredRepeat:
		return WrapMirroredRepeat
	case gltfWrapClampToEdge:
		return WrapClamp
	default:
		return WrapRepeat
	}
}

// resolveImage returns the canonical reference for a glTF image, creating an
// embedded texture on first use for non-file sources. Reusing one reference
// per image keeps dedup effective across materials.
func (b *gltfSceneBuilder) resolveImage(index int) (*TextureRef, error) {
	if index < 0 || index >= len(b.doc.Images) {
		return nil, fmt.Errorf("image index %d out of range", index)
	}
	if b.imageRefs[index] != nil {
		return b.imageRefs[index], nil
	}

	img := &b.doc.Images[index]
	var ref TextureRef
	switch {
	case img.BufferView != nil:
		data, err := b.bufferViewData(*img.BufferView)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", index, err)
		}
		ref = b.addEmbedded(data)
	case strings.HasPrefix(img.URI, "data:"):
		data, err := decodeDataURI(img.URI)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", index, err)
		}
		ref = b.addEmbedded(data)
	case img.URI != "":
		ref = NewFileRef(img.URI, WrapRepeat, WrapRepeat)
	default:
		return nil, fmt.Errorf("image %d has no URI and no bufferView", index)
	}

	b.imageRefs[index] = &ref
	return &ref, nil
}

func (b *gltfSceneBuilder) addEmbedded(data []byte) TextureRef {
	b.scene.embedded = append(b.scene.embedded, EmbeddedTexture{Data: data})
	return NewEmbeddedRef(int32(len(b.scene.embedded)-1), WrapRepeat, WrapRepeat)
}

func (b *gltfSceneBuilder) bufferViewData(index int) ([]byte, error) {
	if index < 0 || index >= len(b.doc.BufferViews) {
		return nil, fmt.Errorf("bufferView index %d out of range", index)
	}
	bv := &b.doc.BufferViews[index]
	data, err := b.bufferData(bv.Buffer)
	if err != nil {
		return nil, err
	}
	if bv.ByteOffset+bv.ByteLength > len(data) {
		return nil, fmt.Errorf("bufferView %d exceeds buffer bounds", index)
	}
	return data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength], nil
}

func (b *gltfSceneBuilder) bufferData(index int) ([]byte, error) {
	if index < 0 || index >= len(b.doc.Buffers) {
		return nil, fmt.Errorf("buffer index %d out of range", index)
	}
	buf := &b.doc.Buffers[index]

	switch {
	case buf.URI == "":
		// GLB binary chunk backs the first URI-less buffer.
		if index == 0 && b.binChunk != nil {
			return b.binChunk, nil
		}
		return nil, fmt.Errorf("buffer %d has no URI and no binary chunk", index)
	case strings.HasPrefix(buf.URI, "data:"):
		return decodeDataURI(buf.URI)
	default:
		data, err := os.ReadFile(filepath.Join(b.baseDir, buf.URI))
		if err != nil {
			return nil, fmt.Errorf("loading buffer '%s': %w", buf.URI, err)
		}
		return data, nil
	}
}

// decodeDataURI decodes a base64 data URI of the form
// data:<mediatype>;base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return nil, errors.New("malformed data URI")
	}
	if !strings.Contains(uri[:comma], "base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %s", uri[5:comma])
	}
	return base64.StdEncoding.DecodeString(uri[comma+1:])
}
