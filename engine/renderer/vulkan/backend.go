package vulkan

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/platform"
	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

// vulkanTexture is the backend-private payload stored in
// metadata.Texture.InternalData.
type vulkanTexture struct {
	image   *VulkanImage
	sampler vk.Sampler
}

// VulkanRenderer implements renderer.Backend on top of goki/vulkan. All
// texture operations record single-use command buffers on the graphics
// queue and must run on the goroutine that initialized the backend.
type VulkanRenderer struct {
	platform    *platform.Platform
	FrameNumber uint64
	context     *VulkanContext

	nextTextureID uint32

	debug bool
}

func New(p *platform.Platform) *VulkanRenderer {
	return &VulkanRenderer{
		platform: p,
		context: &VulkanContext{
			Device: &VulkanDevice{GraphicsQueueIndex: -1},
		},
		debug: true,
	}
}

func (vr *VulkanRenderer) Initialize(appName string, appWidth, appHeight uint32) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return err
	}

	vr.context.FramebufferWidth = appWidth
	vr.context.FramebufferHeight = appHeight

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Ember Engine"),
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, vr.platform.GetRequiredExtensionNames()...)
	if vr.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(requiredExtensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(requiredExtensions),
	}

	if vr.debug {
		layers := []string{"VK_LAYER_KHRONOS_validation"}
		if instanceHasLayers(layers) {
			createInfo.EnabledLayerCount = uint32(len(layers))
			createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)
		} else {
			core.LogWarn("validation layers requested but not available")
		}
	}

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		err := fmt.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		core.LogError(err.Error())
		return err
	}
	core.LogInfo("Vulkan Instance created.")

	if vr.debug {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogWarn("vk.CreateDebugReportCallback failed with %s", err)
		} else {
			vr.context.debugMessenger = dbg
		}
	}

	if err := DeviceCreate(vr.context); err != nil {
		core.LogError("Failed to create device!")
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) Shutdown() error {
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	// Destroy in the opposite order of creation.
	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vr.context)

	if vr.debug && vr.context.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugMessenger, vr.context.Allocator)
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)
	return nil
}

func (vr *VulkanRenderer) Resized(width, height uint16) error {
	vr.context.FramebufferWidth = uint32(width)
	vr.context.FramebufferHeight = uint32(height)
	core.LogDebug("Vulkan renderer backend->resized: w/h: %d/%d", width, height)
	return nil
}

func (vr *VulkanRenderer) BeginFrame(deltaTime float64) error {
	vr.FrameNumber++
	return nil
}

func (vr *VulkanRenderer) EndFrame(deltaTime float64) error {
	return nil
}

// IsMultithreaded reports false: uploads record on the single graphics
// queue and must stay on the initializing goroutine.
func (vr *VulkanRenderer) IsMultithreaded() bool { return false }

// TextureCreate uploads pixels into a new device-local sampled image,
// optionally generating its full mip chain, and creates the sampler the
// upload options describe.
func (vr *VulkanRenderer) TextureCreate(pixels []uint8, texture *metadata.Texture, opts metadata.TextureUploadOptions) error {
	if texture.Width == 0 || texture.Height == 0 {
		return fmt.Errorf("texture '%s' has zero dimension", texture.Name)
	}

	// Tightly packed 1 and 3 channel data is expanded: linear RGBA8 is
	// universally sampled, RGB8 often is not.
	rgba := expandToRGBA(pixels, int(texture.Width)*int(texture.Height), int(texture.ChannelCount))

	format := vk.FormatR8g8b8a8Unorm
	if opts.SRGB {
		format = vk.FormatR8g8b8a8Srgb
	}

	mipLevels := uint32(1)
	if opts.GenerateMipmaps {
		mipLevels = fullMipChainLevels(texture.Width, texture.Height)
	}

	usage := vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit
	if mipLevels > 1 {
		usage |= vk.ImageUsageTransferSrcBit
	}

	image, err := ImageCreate(vr.context, texture.Width, texture.Height, mipLevels, format, usage)
	if err != nil {
		return err
	}

	staging, err := BufferCreate(vr.context,
		vk.DeviceSize(len(rgba)),
		vk.BufferUsageTransferSrcBit,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		image.Destroy(vr.context)
		return err
	}
	defer staging.Destroy(vr.context)

	if err := staging.LoadData(vr.context, rgba); err != nil {
		image.Destroy(vr.context)
		return err
	}

	cb, err := AllocateAndBeginSingleUse(vr.context, vr.context.Device.GraphicsCommandPool)
	if err != nil {
		image.Destroy(vr.context)
		return err
	}

	if err := image.TransitionLayout(cb, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		image.Destroy(vr.context)
		return err
	}
	image.CopyFromBuffer(cb, staging)
	if mipLevels > 1 {
		image.GenerateMipmaps(cb)
	} else {
		if err := image.TransitionLayout(cb, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
			image.Destroy(vr.context)
			return err
		}
	}

	if err := cb.EndSingleUse(vr.context, vr.context.Device.GraphicsCommandPool, vr.context.Device.GraphicsQueue); err != nil {
		image.Destroy(vr.context)
		return err
	}

	sampler, err := vr.createSampler(opts, mipLevels)
	if err != nil {
		image.Destroy(vr.context)
		return err
	}

	vr.nextTextureID++
	texture.ID = vr.nextTextureID
	texture.MipLevels = uint8(mipLevels)
	texture.Generation++
	texture.InternalData = &vulkanTexture{image: image, sampler: sampler}

	return nil
}

func (vr *VulkanRenderer) TextureDestroy(texture *metadata.Texture) error {
	internal, ok := texture.InternalData.(*vulkanTexture)
	if !ok || internal == nil {
		return nil
	}
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	if internal.sampler != vk.NullSampler {
		vk.DestroySampler(vr.context.Device.LogicalDevice, internal.sampler, vr.context.Allocator)
	}
	internal.image.Destroy(vr.context)

	texture.InternalData = nil
	texture.ID = metadata.InvalidID
	return nil
}

func (vr *VulkanRenderer) createSampler(opts metadata.TextureUploadOptions, mipLevels uint32) (vk.Sampler, error) {
	filter := vk.FilterLinear
	if opts.Filter == metadata.TextureFilterNearest {
		filter = vk.FilterNearest
	}

	samplerInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    filter,
		MinFilter:    filter,
		AddressModeU: samplerAddressMode(opts.RepeatU),
		AddressModeV: samplerAddressMode(opts.RepeatV),
		AddressModeW: vk.SamplerAddressModeRepeat,
		MipmapMode:   vk.SamplerMipmapModeLinear,
		MaxLod:       float32(mipLevels),
		BorderColor:  vk.BorderColorIntOpaqueBlack,
	}

	vr.context.Device.Features.Deref()
	if anisotropy := opts.Filter.Anisotropy(); anisotropy > 0 && vr.context.Device.Features.SamplerAnisotropy == vk.True {
		samplerInfo.AnisotropyEnable = vk.True
		samplerInfo.MaxAnisotropy = anisotropy
	}

	var sampler vk.Sampler
	if res := vk.CreateSampler(vr.context.Device.LogicalDevice, &samplerInfo, vr.context.Allocator, &sampler); res != vk.Success {
		return vk.NullSampler, fmt.Errorf("failed to create sampler: %s", VulkanResultString(res))
	}
	return sampler, nil
}

func samplerAddressMode(repeat metadata.TextureRepeat) vk.SamplerAddressMode {
	switch repeat {
	case metadata.TextureRepeatMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case metadata.TextureRepeatClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case metadata.TextureRepeatClampToBorder:
		return vk.SamplerAddressModeClampToBorder
	default:
		return vk.SamplerAddressModeRepeat
	}
}

// expandToRGBA repacks 1 or 3 channel pixel data into RGBA8. Grayscale
// broadcasts into RGB. 4-channel input is returned as is.
func expandToRGBA(pixels []uint8, pixelCount, channels int) []uint8 {
	if channels == 4 {
		return pixels
	}
	out := make([]uint8, pixelCount*4)
	switch channels {
	case 1:
		for i := 0; i < pixelCount; i++ {
			v := pixels[i]
			out[i*4+0] = v
			out[i*4+1] = v
			out[i*4+2] = v
			out[i*4+3] = 255
		}
	case 2:
		for i := 0; i < pixelCount; i++ {
			out[i*4+0] = pixels[i*2]
			out[i*4+1] = pixels[i*2]
			out[i*4+2] = pixels[i*2]
			out[i*4+3] = pixels[i*2+1]
		}
	case 3:
		for i := 0; i < pixelCount; i++ {
			out[i*4+0] = pixels[i*3+0]
			out[i*4+1] = pixels[i*3+1]
			out[i*4+2] = pixels[i*3+2]
			out[i*4+3] = 255
		}
	}
	return out
}

func fullMipChainLevels(width, height uint32) uint32 {
	largest := width
	if height > largest {
		largest = height
	}
	return uint32(math.Floor(math.Log2(float64(largest)))) + 1
}

func instanceHasLayers(required []string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return false
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return false
	}
	for _, name := range required {
		found := false
		for i := range layers {
			layers[i].Deref()
			end := 0
			for j, b := range layers[i].LayerName {
				if b == 0 {
					end = j
					break
				}
			}
			if name == string(layers[i].LayerName[:end]) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
