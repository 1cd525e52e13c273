package sel4

import "fmt"

// ObjectType enumerates the kernel object kinds the tool can create.
type ObjectType int

const (
	ObjectTypeUntyped ObjectType = iota
	ObjectTypeTCB
	ObjectTypeEndpoint
	ObjectTypeNotification
	ObjectTypeCNode
	ObjectTypeSchedContext
	ObjectTypeReply
	ObjectTypeHugePage
	ObjectTypeVSpace
	ObjectTypeSmallPage
	ObjectTypeLargePage
	ObjectTypePageTable
	ObjectTypeVcpu
	ObjectTypePageDirectory
	ObjectTypePdPt
	ObjectTypePml4
	ObjectTypeIOPageTable
	ObjectTypeEptPml4
	ObjectTypeEptPdPt
	ObjectTypeEptPageDirectory
	ObjectTypeEptPageTable
)

// ObjectTypes lists every object type, in declaration order.
var ObjectTypes = []ObjectType{
	ObjectTypeUntyped,
	ObjectTypeTCB,
	ObjectTypeEndpoint,
	ObjectTypeNotification,
	ObjectTypeCNode,
	ObjectTypeSchedContext,
	ObjectTypeReply,
	ObjectTypeHugePage,
	ObjectTypeVSpace,
	ObjectTypeSmallPage,
	ObjectTypeLargePage,
	ObjectTypePageTable,
	ObjectTypeVcpu,
	ObjectTypePageDirectory,
	ObjectTypePdPt,
	ObjectTypePml4,
	ObjectTypeIOPageTable,
	ObjectTypeEptPml4,
	ObjectTypeEptPdPt,
	ObjectTypeEptPageDirectory,
	ObjectTypeEptPageTable,
}

var objectTypeNames = map[ObjectType]string{
	ObjectTypeUntyped:          "SEL4_UNTYPED_OBJECT",
	ObjectTypeTCB:              "SEL4_TCB_OBJECT",
	ObjectTypeEndpoint:         "SEL4_ENDPOINT_OBJECT",
	ObjectTypeNotification:     "SEL4_NOTIFICATION_OBJECT",
	ObjectTypeCNode:            "SEL4_CNODE_OBJECT",
	ObjectTypeSchedContext:     "SEL4_SCHEDCONTEXT_OBJECT",
	ObjectTypeReply:            "SEL4_REPLY_OBJECT",
	ObjectTypeHugePage:         "SEL4_HUGE_PAGE_OBJECT",
	ObjectTypeVSpace:           "SEL4_VSPACE_OBJECT",
	ObjectTypeSmallPage:        "SEL4_SMALL_PAGE_OBJECT",
	ObjectTypeLargePage:        "SEL4_LARGE_PAGE_OBJECT",
	ObjectTypePageTable:        "SEL4_PAGE_TABLE_OBJECT",
	ObjectTypeVcpu:             "SEL4_VCPU_OBJECT",
	ObjectTypePageDirectory:    "SEL4_PAGE_DIRECTORY_OBJECT",
	ObjectTypePdPt:             "SEL4_PDPT_OBJECT",
	ObjectTypePml4:             "SEL4_PML4_OBJECT",
	ObjectTypeIOPageTable:      "SEL4_IO_PAGE_TABLE_OBJECT",
	ObjectTypeEptPml4:          "SEL4_EPT_PML4_OBJECT",
	ObjectTypeEptPdPt:          "SEL4_EPT_PDPT_OBJECT",
	ObjectTypeEptPageDirectory: "SEL4_EPT_PAGE_DIRECTORY_OBJECT",
	ObjectTypeEptPageTable:     "SEL4_EPT_PAGE_TABLE_OBJECT",
}

func (t ObjectType) String() string {
	if name, ok := objectTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ObjectType(%d)", int(t))
}

// Raw object-type identifiers that are the same on every architecture.
var objectTypeValues = map[ObjectType]uint64{
	ObjectTypeUntyped:          0,
	ObjectTypeTCB:              1,
	ObjectTypeEndpoint:         2,
	ObjectTypeNotification:     3,
	ObjectTypeCNode:            4,
	ObjectTypeSchedContext:     5,
	ObjectTypeReply:            6,
	ObjectTypePdPt:             7,
	ObjectTypePml4:             8,
	ObjectTypePageDirectory:    13,
	ObjectTypeIOPageTable:      14,
	ObjectTypeEptPml4:          16,
	ObjectTypeEptPdPt:          17,
	ObjectTypeEptPageDirectory: 18,
	ObjectTypeEptPageTable:     19,
}

// Raw object-type identifiers that differ between architectures. This
// table must exactly mirror the target kernel's object-type table; the
// tests pin down every entry per architecture.
var objectTypeValuesByArch = map[ObjectType]map[Arch]uint64{
	ObjectTypeHugePage: {
		ArchAarch64: 7,
		ArchRiscv64: 7,
		ArchX86_64:  9,
	},
	ObjectTypeVSpace: {
		ArchAarch64: 8,
		ArchRiscv64: 10,
		ArchX86_64:  8,
	},
	ObjectTypeSmallPage: {
		ArchAarch64: 9,
		ArchRiscv64: 8,
		ArchX86_64:  10,
	},
	ObjectTypeLargePage: {
		ArchAarch64: 10,
		ArchRiscv64: 9,
		ArchX86_64:  11,
	},
	ObjectTypePageTable: {
		ArchAarch64: 11,
		ArchRiscv64: 10,
		ArchX86_64:  12,
	},
	ObjectTypeVcpu: {
		ArchAarch64: 12,
		ArchX86_64:  15,
	},
}

// Value returns the raw numeric identifier the kernel associates with the
// object type. Required for any UntypedRetype invocation.
func (t ObjectType) Value(config *Config) (uint64, error) {
	if value, ok := objectTypeValues[t]; ok {
		return value, nil
	}
	if byArch, ok := objectTypeValuesByArch[t]; ok {
		if value, ok := byArch[config.Arch]; ok {
			return value, nil
		}
		return 0, fmt.Errorf("sel4: %w: %s has no identifier on %s", ErrUnsupportedConfig, t, config.Arch)
	}
	return 0, fmt.Errorf("sel4: %w: unknown object type %d", ErrUnsupportedConfig, int(t))
}

// Size bits that do not depend on architecture or kernel flags.
var objectTypeSizeBits = map[ObjectType]uint64{
	ObjectTypeEndpoint:         4,
	ObjectTypeNotification:     6,
	ObjectTypeReply:            5,
	ObjectTypeHugePage:         30,
	ObjectTypeSmallPage:        12,
	ObjectTypeLargePage:        21,
	ObjectTypePageTable:        12,
	ObjectTypePageDirectory:    12,
	ObjectTypePdPt:             12,
	ObjectTypePml4:             12,
	ObjectTypeIOPageTable:      12,
	ObjectTypeEptPml4:          12,
	ObjectTypeEptPdPt:          12,
	ObjectTypeEptPageDirectory: 12,
	ObjectTypeEptPageTable:     12,
}

// HasFixedSize reports whether the object type has a kernel-determined
// size. Untyped memory, CNodes and scheduling contexts are sized by the
// caller instead.
func (t ObjectType) HasFixedSize() bool {
	switch t {
	case ObjectTypeUntyped, ObjectTypeCNode, ObjectTypeSchedContext:
		return false
	default:
		return true
	}
}

// FixedSizeBits returns the number of bits representing the size of the
// object. The size depends on the architecture as well as the kernel
// configuration. Querying a variable-size type is a caller contract
// violation reported as ErrVariableSizeObject.
func (t ObjectType) FixedSizeBits(config *Config) (uint64, error) {
	switch t {
	case ObjectTypeUntyped, ObjectTypeCNode, ObjectTypeSchedContext:
		return 0, fmt.Errorf("sel4: %w: %s", ErrVariableSizeObject, t)
	case ObjectTypeTCB:
		return tcbSizeBits(config)
	case ObjectTypeVSpace:
		return vspaceSizeBits(config)
	case ObjectTypeVcpu:
		return vcpuSizeBits(config)
	}
	if bits, ok := objectTypeSizeBits[t]; ok {
		return bits, nil
	}
	return 0, fmt.Errorf("sel4: %w: unknown object type %d", ErrUnsupportedConfig, int(t))
}

// FixedSize returns the size of the object in bytes.
func (t ObjectType) FixedSize(config *Config) (uint64, error) {
	bits, err := t.FixedSizeBits(config)
	if err != nil {
		return 0, err
	}
	return 1 << bits, nil
}

func tcbSizeBits(config *Config) (uint64, error) {
	switch config.Arch {
	case ArchAarch64:
		return 11, nil
	case ArchRiscv64:
		if config.FPU {
			return 11, nil
		}
		return 10, nil
	case ArchX86_64:
		if config.X86XsaveSize != nil && *config.X86XsaveSize >= 832 {
			return 12, nil
		}
		return 11, nil
	default:
		return 0, fmt.Errorf("sel4: %w: TCB size bits on %s", ErrUnsupportedConfig, config.Arch)
	}
}

func vspaceSizeBits(config *Config) (uint64, error) {
	switch config.Arch {
	case ArchAarch64:
		if !config.Hypervisor {
			return 12, nil
		}
		if config.ArmPASizeBits == nil {
			return 0, fmt.Errorf("sel4: %w: hypervisor configured without arm_pa_size_bits", ErrUnsupportedConfig)
		}
		switch *config.ArmPASizeBits {
		case 40:
			return 13, nil
		case 44:
			return 12, nil
		default:
			return 0, fmt.Errorf("sel4: %w: ARM physical address size bits %d for VSpace size", ErrUnsupportedConfig, *config.ArmPASizeBits)
		}
	case ArchRiscv64, ArchX86_64:
		return 12, nil
	default:
		return 0, fmt.Errorf("sel4: %w: VSpace size bits on %s", ErrUnsupportedConfig, config.Arch)
	}
}

func vcpuSizeBits(config *Config) (uint64, error) {
	switch config.Arch {
	case ArchAarch64:
		return 12, nil
	case ArchX86_64:
		return 14, nil
	default:
		return 0, fmt.Errorf("sel4: %w: vCPU objects on %s", ErrUnsupportedConfig, config.Arch)
	}
}

// Format renders the object type for the diagnostic report.
func (t ObjectType) Format(config *Config) (string, error) {
	value, err := t.Value(config)
	if err != nil {
		return "", err
	}
	objectSize := "variable size"
	if t.HasFixedSize() {
		size, err := t.FixedSize(config)
		if err != nil {
			return "", err
		}
		objectSize = fmt.Sprintf("0x%x", size)
	}
	return fmt.Sprintf("         object_type          %d (%s - %s)", value, t, objectSize), nil
}

// PageSize is one of the mappable page sizes.
type PageSize uint64

const (
	PageSizeSmall PageSize = 0x1000
	PageSizeLarge PageSize = 0x200_000
)

// PageSizeFromValue converts a raw size in bytes to a PageSize.
func PageSizeFromValue(value uint64) (PageSize, error) {
	switch value {
	case uint64(PageSizeSmall):
		return PageSizeSmall, nil
	case uint64(PageSizeLarge):
		return PageSizeLarge, nil
	default:
		return 0, fmt.Errorf("sel4: %w: page size 0x%x", ErrUnsupportedConfig, value)
	}
}

// Capability rights masks. The same values apply on every architecture.
const (
	RightsNone       uint64 = 0x0
	RightsWrite      uint64 = 0x1
	RightsRead       uint64 = 0x2
	RightsGrant      uint64 = 0x4
	RightsGrantReply uint64 = 0x8
	RightsAll        uint64 = 0xf
)

// IrqTrigger selects how an interrupt line is sensed. The same values
// apply on every architecture.
type IrqTrigger uint64

const (
	IrqTriggerLevel IrqTrigger = 0
	IrqTriggerEdge  IrqTrigger = 1
)

// Virtual memory attribute bits, as the kernel expects them in mapping
// invocations.
const (
	ArmVmAttrCacheable     uint64 = 1
	ArmVmAttrParityEnabled uint64 = 2
	ArmVmAttrExecuteNever  uint64 = 4

	RiscvVmAttrExecuteNever uint64 = 1

	X86VmAttrPageAttributeTable uint64 = 1
	X86VmAttrCacheDisable       uint64 = 2
	X86VmAttrWriteThrough       uint64 = 4
)

// DefaultVMAttributes returns the attribute mask used for ordinary memory
// mappings on the configured architecture.
func DefaultVMAttributes(config *Config) uint64 {
	switch config.Arch {
	case ArchAarch64:
		return ArmVmAttrCacheable | ArmVmAttrParityEnabled
	default:
		return 0
	}
}
