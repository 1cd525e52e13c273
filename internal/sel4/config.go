package sel4

import "fmt"

// LabelTable maps a symbolic invocation-label name to the raw numeric
// value it has in one specific kernel build. The table is produced by the
// kernel build system; this package treats it as an opaque lookup and
// never computes raw label numbers itself.
type LabelTable map[string]uint64

// Config carries the immutable, per-build parameters of the target kernel.
// The optional pointer fields are set iff the architecture requires them;
// every query checks before dereferencing and reports ErrUnsupportedConfig
// on a mismatch.
type Config struct {
	Arch               Arch
	WordSize           uint64
	MinimumPageSize    uint64
	PaddrUserDeviceTop uint64
	KernelFrameSize    uint64
	InitCnodeBits      uint64
	CapAddressBits     uint64
	FanOutLimit        uint64

	Hypervisor bool
	Benchmark  bool
	FPU        bool

	// ArmPASizeBits is the number of physical address bits. aarch64 only.
	ArmPASizeBits *int
	// ArmSMC reports whether SMC forwarding is enabled in the kernel
	// configuration. aarch64 only.
	ArmSMC *bool
	// RiscvPTLevels selects the virtual memory system. riscv64 only.
	RiscvPTLevels *RiscvVirtualMemory
	// X86XsaveSize is the size in bytes of the XSAVE state area. x86_64
	// only.
	X86XsaveSize *uint64

	InvocationLabels LabelTable
}

// UserTop returns the top of the user-addressable virtual range.
func (c *Config) UserTop() (uint64, error) {
	switch c.Arch {
	case ArchAarch64:
		if !c.Hypervisor {
			return 0x800000000000, nil
		}
		if c.ArmPASizeBits == nil {
			return 0, fmt.Errorf("sel4: %w: hypervisor configured without arm_pa_size_bits", ErrUnsupportedConfig)
		}
		switch *c.ArmPASizeBits {
		case 40:
			return 0x10000000000, nil
		case 44:
			return 0x100000000000, nil
		default:
			return 0, fmt.Errorf("sel4: %w: ARM physical address size bits %d", ErrUnsupportedConfig, *c.ArmPASizeBits)
		}
	case ArchRiscv64:
		return 0x0000003ffffff000, nil
	case ArchX86_64:
		// On x86 USER_TOP is really 0x7fffffffffff but since it isn't a
		// nicely aligned address we round it down, at the cost of one
		// wasted page, so stack pages can be allocated there.
		return 0x7ffffffff000, nil
	default:
		return 0, fmt.Errorf("sel4: %w: architecture %q", ErrUnsupportedConfig, string(c.Arch))
	}
}

// KernelVirtualBase returns the start of the kernel-reserved virtual
// address space.
func (c *Config) KernelVirtualBase() (uint64, error) {
	switch c.Arch {
	case ArchAarch64:
		if c.Hypervisor {
			return 0x0000008000000000, nil
		}
		return 1<<64 - 1<<39, nil
	case ArchRiscv64:
		if c.RiscvPTLevels == nil {
			return 0, fmt.Errorf("sel4: %w: riscv64 configured without a virtual memory system", ErrUnsupportedConfig)
		}
		switch *c.RiscvPTLevels {
		case RiscvSv39:
			return 1<<64 - 1<<38, nil
		default:
			return 0, fmt.Errorf("sel4: %w: RISC-V virtual memory system %q", ErrUnsupportedConfig, string(*c.RiscvPTLevels))
		}
	case ArchX86_64:
		return 1<<64 - 1<<39, nil
	default:
		return 0, fmt.Errorf("sel4: %w: architecture %q", ErrUnsupportedConfig, string(c.Arch))
	}
}

// PageSizes returns the supported page sizes in increasing order.
func (c *Config) PageSizes() []uint64 {
	return []uint64{0x1000, 0x200_000}
}

// OptimalPageSize returns the largest supported page size that evenly
// divides size. Passing a size that is not a multiple of the minimum page
// size is a caller contract violation.
func (c *Config) OptimalPageSize(size uint64) (uint64, error) {
	pageSizes := c.PageSizes()
	for i := len(pageSizes) - 1; i >= 0; i-- {
		if size%pageSizes[i] == 0 {
			return pageSizes[i], nil
		}
	}
	return 0, fmt.Errorf("sel4: %w: 0x%x", ErrUnalignedSize, size)
}

// PDStackTop returns the top of a protection domain's stack, which is
// pinned at the top of the user address range.
func (c *Config) PDStackTop() (uint64, error) {
	return c.UserTop()
}

func (c *Config) PDStackBottom(stackSize uint64) (uint64, error) {
	top, err := c.PDStackTop()
	if err != nil {
		return 0, err
	}
	return top - stackSize, nil
}

// PDMapMaxVaddr returns the highest address at which a protection domain
// mapping may be created. The stack of a PD occupies the highest possible
// virtual memory region, so the answer is the stack's lower bound. The
// check against UserTop guards that invariant.
func (c *Config) PDMapMaxVaddr(stackSize uint64) (uint64, error) {
	stackTop, err := c.PDStackTop()
	if err != nil {
		return 0, err
	}
	userTop, err := c.UserTop()
	if err != nil {
		return 0, err
	}
	if stackTop != userTop {
		return 0, fmt.Errorf("sel4: internal error: PD stack top 0x%x is not the top of the user address space 0x%x", stackTop, userTop)
	}
	return c.PDStackBottom(stackSize)
}

// VMMapMaxVaddr returns the highest address at which a virtual machine
// mapping may be created. Virtual machines have no stack and may use the
// full user range.
func (c *Config) VMMapMaxVaddr() (uint64, error) {
	return c.UserTop()
}
