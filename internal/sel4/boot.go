package sel4

import "math/bits"

// BootInfo summarises what the kernel hands the initial task at boot.
// Produced by the allocator layer, read-only here.
type BootInfo struct {
	FixedCapCount     uint64
	SchedControlCap   uint64
	PagingCapCount    uint64
	PageCapCount      uint64
	UntypedObjects    []UntypedObject
	FirstAvailableCap uint64
}

// MemoryRegion is a physical address range [Base, End).
type MemoryRegion struct {
	Base uint64
	End  uint64
}

func (r MemoryRegion) Size() uint64 {
	return r.End - r.Base
}

// UntypedObject is a range of untyped memory available for retyping.
// Untyped regions are always power-of-two sized.
type UntypedObject struct {
	Cap      uint64
	Region   MemoryRegion
	IsDevice bool
}

func (u UntypedObject) Base() uint64 {
	return u.Region.Base
}

func (u UntypedObject) End() uint64 {
	return u.Region.End
}

func (u UntypedObject) SizeBits() uint64 {
	return uint64(bits.TrailingZeros64(u.Region.Size()))
}

// Object is one allocated kernel object instance.
//
// Kernel objects can have multiple caps (and caps can have multiple
// addresses). The cap address here is the one allocated when the object is
// first created and is valid within the context of the initial task.
type Object struct {
	ObjectType ObjectType
	CapAddr    uint64
	PhysAddr   uint64
}
