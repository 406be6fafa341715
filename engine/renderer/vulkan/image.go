package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// VulkanImage is a sampled 2D image with its allocation, view and the mip
// chain it was created with.
type VulkanImage struct {
	Handle    vk.Image
	Memory    vk.DeviceMemory
	View      vk.ImageView
	Width     uint32
	Height    uint32
	Format    vk.Format
	MipLevels uint32
}

// ImageCreate creates an optimal-tiling 2D image in device-local memory,
// binds it and creates its view.
func ImageCreate(context *VulkanContext, width, height, mipLevels uint32, format vk.Format, usage vk.ImageUsageFlagBits) (*VulkanImage, error) {
	image := &VulkanImage{
		Width:     width,
		Height:    height,
		Format:    format,
		MipLevels: mipLevels,
	}

	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     mipLevels,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	if res := vk.CreateImage(context.Device.LogicalDevice, &imageInfo, context.Allocator, &image.Handle); res != vk.Success {
		return nil, fmt.Errorf("failed to create image: %s", VulkanResultString(res))
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, image.Handle, &memReqs)
	memReqs.Deref()

	memoryIndex := context.FindMemoryIndex(memReqs.MemoryTypeBits, uint32(vk.MemoryPropertyDeviceLocalBit))
	if memoryIndex < 0 {
		image.Destroy(context)
		return nil, fmt.Errorf("no suitable memory type for image")
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocInfo, context.Allocator, &image.Memory); res != vk.Success {
		image.Destroy(context)
		return nil, fmt.Errorf("failed to allocate image memory: %s", VulkanResultString(res))
	}
	if res := vk.BindImageMemory(context.Device.LogicalDevice, image.Handle, image.Memory, 0); res != vk.Success {
		image.Destroy(context)
		return nil, fmt.Errorf("failed to bind image memory: %s", VulkanResultString(res))
	}

	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: mipLevels,
			LayerCount: 1,
		},
	}
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &image.View); res != vk.Success {
		image.Destroy(context)
		return nil, fmt.Errorf("failed to create image view: %s", VulkanResultString(res))
	}

	return image, nil
}

// TransitionLayout records a barrier moving every mip level of the image
// between the layouts the upload sequence needs.
func (i *VulkanImage) TransitionLayout(cb *VulkanCommandBuffer, oldLayout, newLayout vk.ImageLayout) error {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               i.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: i.MipLevels,
			LayerCount: 1,
		},
	}

	var srcStage, dstStage vk.PipelineStageFlags
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	default:
		return fmt.Errorf("unsupported layout transition %d -> %d", oldLayout, newLayout)
	}

	vk.CmdPipelineBarrier(cb.Handle, srcStage, dstStage, 0,
		0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return nil
}

// CopyFromBuffer records a full copy of the staging buffer into mip level 0.
func (i *VulkanImage) CopyFromBuffer(cb *VulkanCommandBuffer, buffer *VulkanBuffer) {
	region := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{
			Width:  i.Width,
			Height: i.Height,
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(cb.Handle, buffer.Handle, i.Handle,
		vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

// GenerateMipmaps records the blit chain that fills mip levels 1..n from
// level 0 and leaves every level in shader-read layout. Level 0 must be in
// transfer-dst layout when this records.
func (i *VulkanImage) GenerateMipmaps(cb *VulkanCommandBuffer) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		Image:               i.Handle,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	mipWidth := int32(i.Width)
	mipHeight := int32(i.Height)

	for level := uint32(1); level < i.MipLevels; level++ {
		// Source level becomes a transfer source.
		barrier.SubresourceRange.BaseMipLevel = level - 1
		barrier.OldLayout = vk.ImageLayoutTransferDstOptimal
		barrier.NewLayout = vk.ImageLayoutTransferSrcOptimal
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		vk.CmdPipelineBarrier(cb.Handle,
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit), 0,
			0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

		dstWidth := mipWidth
		if dstWidth > 1 {
			dstWidth /= 2
		}
		dstHeight := mipHeight
		if dstHeight > 1 {
			dstHeight /= 2
		}

		blit := vk.ImageBlit{
			SrcSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:   level - 1,
				LayerCount: 1,
			},
			DstSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:   level,
				LayerCount: 1,
			},
		}
		blit.SrcOffsets[1] = vk.Offset3D{X: mipWidth, Y: mipHeight, Z: 1}
		blit.DstOffsets[1] = vk.Offset3D{X: dstWidth, Y: dstHeight, Z: 1}

		vk.CmdBlitImage(cb.Handle,
			i.Handle, vk.ImageLayoutTransferSrcOptimal,
			i.Handle, vk.ImageLayoutTransferDstOptimal,
			1, []vk.ImageBlit{blit}, vk.FilterLinear)

		// Source level is done; hand it to the fragment shader.
		barrier.OldLayout = vk.ImageLayoutTransferSrcOptimal
		barrier.NewLayout = vk.ImageLayoutShaderReadOnlyOptimal
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		vk.CmdPipelineBarrier(cb.Handle,
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), 0,
			0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

		mipWidth = dstWidth
		mipHeight = dstHeight
	}

	// The last level was only ever a transfer destination.
	barrier.SubresourceRange.BaseMipLevel = i.MipLevels - 1
	barrier.OldLayout = vk.ImageLayoutTransferDstOptimal
	barrier.NewLayout = vk.ImageLayoutShaderReadOnlyOptimal
	barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
	barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
	vk.CmdPipelineBarrier(cb.Handle,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), 0,
		0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

func (i *VulkanImage) Destroy(context *VulkanContext) {
	if i.View != vk.NullImageView {
		vk.DestroyImageView(context.Device.LogicalDevice, i.View, context.Allocator)
		i.View = vk.NullImageView
	}
	if i.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, i.Memory, context.Allocator)
		i.Memory = vk.NullDeviceMemory
	}
	if i.Handle != vk.NullImage {
		vk.DestroyImage(context.Device.LogicalDevice, i.Handle, context.Allocator)
		i.Handle = vk.NullImage
	}
}
