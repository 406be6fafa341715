package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// VulkanBuffer is a raw device buffer with its backing allocation. Texture
// uploads use one as a host-visible staging area.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
}

func BufferCreate(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlagBits, memoryFlags vk.MemoryPropertyFlagBits) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{Size: size}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &buffer.Handle); res != vk.Success {
		return nil, fmt.Errorf("failed to create buffer: %s", VulkanResultString(res))
	}

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &memReqs)
	memReqs.Deref()

	memoryIndex := context.FindMemoryIndex(memReqs.MemoryTypeBits, uint32(memoryFlags))
	if memoryIndex < 0 {
		buffer.Destroy(context)
		return nil, fmt.Errorf("no suitable memory type for buffer")
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocInfo, context.Allocator, &buffer.Memory); res != vk.Success {
		buffer.Destroy(context)
		return nil, fmt.Errorf("failed to allocate buffer memory: %s", VulkanResultString(res))
	}

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		buffer.Destroy(context)
		return nil, fmt.Errorf("failed to bind buffer memory: %s", VulkanResultString(res))
	}

	return buffer, nil
}

// LoadData copies the byte slice into the buffer's memory. The buffer must
// be host visible and coherent.
func (b *VulkanBuffer) LoadData(context *VulkanContext, data []byte) error {
	var mapped unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, b.Memory, 0, vk.DeviceSize(len(data)), 0, &mapped); res != vk.Success {
		return fmt.Errorf("failed to map buffer memory: %s", VulkanResultString(res))
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
	return nil
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
		b.Handle = vk.NullBuffer
	}
	b.Size = 0
}
