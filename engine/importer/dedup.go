package importer

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

// Sentinel bytes folded into the content key so that an absent source is
// distinguishable from any present one.
const (
	keySourceAbsent  byte = 0xF0
	keySourcePresent byte = 0xF1
)

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// contentKey hashes the descriptor's identity: kind, colour class, wrap
// modes, flags and every source in fixed slot order. Two descriptors that
// decode to the same pixels hash equal; equality of keys alone is never
// trusted, see jobSet.add.
func (d *JobDescriptor) contentKey() uint64 {
	h := fnv.New64a()
	h.Write([]byte{
		byte(d.kind),
		boolByte(d.srgb),
		byte(d.wrapU),
		byte(d.wrapV),
		boolByte(d.invertRoughness),
		boolByte(d.combinedMR),
	})

	var buf [4]byte
	writeSource := func(present bool, s textureSource) {
		if !present {
			h.Write([]byte{keySourceAbsent})
			return
		}
		h.Write([]byte{keySourcePresent})
		binary.LittleEndian.PutUint32(buf[:], uint32(s.embedded))
		h.Write(buf[:])
		h.Write([]byte(s.path))
		h.Write([]byte{0})
	}

	if d.kind == jobSimple {
		writeSource(true, d.source)
	} else {
		for i := 0; i < 3; i++ {
			writeSource(d.ormPresent[i], d.ormSources[i])
		}
	}

	return h.Sum64()
}

// jobSet is the outcome of the single-threaded discovery phase: the ordered
// table of unique job descriptors and the (material, slot) projection onto
// it. Both are read-only once workers start.
type jobSet struct {
	jobs  []JobDescriptor
	slots []int // materialCount × MapSlotCount, -1 = no source for the slot
	byKey map[uint64][]int
}

// discoverJobs walks every (material, slot) pair in order, extracts a
// descriptor and collapses duplicates by content key. The unique table keeps
// first-occurrence order, so the result is reproducible for the same scene
// whatever the map iteration or hash internals do.
func discoverJobs(scene Scene) *jobSet {
	materialCount := scene.MaterialCount()
	set := &jobSet{
		slots: make([]int, materialCount*metadata.MapSlotCount),
		byKey: make(map[uint64][]int),
	}

	for m := 0; m < materialCount; m++ {
		mat := scene.Material(m)
		for s := 0; s < metadata.MapSlotCount; s++ {
			index := -1
			if mat != nil {
				if desc, ok := ExtractJob(mat, metadata.TextureMapSlot(s)); ok {
					index = set.add(desc)
				}
			}
			set.slots[m*metadata.MapSlotCount+s] = index
		}
	}

	return set
}

// add returns the unique index for the descriptor, appending it when no
// existing entry matches. A key hit is confirmed by full descriptor
// comparison; distinct descriptors colliding on the key coexist in the
// bucket.
func (s *jobSet) add(desc JobDescriptor) int {
	key := desc.contentKey()
	for _, i := range s.byKey[key] {
		if s.jobs[i] == desc {
			return i
		}
	}
	s.jobs = append(s.jobs, desc)
	index := len(s.jobs) - 1
	s.byKey[key] = append(s.byKey[key], index)
	return index
}

func (s *jobSet) slot(material int, slot metadata.TextureMapSlot) int {
	return s.slots[material*metadata.MapSlotCount+int(slot)]
}
