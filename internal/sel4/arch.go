package sel4

import (
	"errors"
	"fmt"
)

// Arch identifies the kernel architecture a system image is built for.
type Arch string

const (
	ArchInvalid Arch = "invalid"
	ArchAarch64 Arch = "aarch64"
	ArchRiscv64 Arch = "riscv64"
	ArchX86_64  Arch = "x86_64"
)

var (
	// ErrUnsupportedConfig reports an architecture/flag combination this
	// tool does not model. Never defaulted over.
	ErrUnsupportedConfig = errors.New("unsupported architecture or kernel configuration")
	// ErrFieldOutOfRange reports an invocation field that exceeds the
	// width budget of the kernel wire format.
	ErrFieldOutOfRange = errors.New("invocation field out of range")
	// ErrRepeatMismatch reports a repeat payload whose variant does not
	// match the base invocation, or a second repeat attachment.
	ErrRepeatMismatch = errors.New("repeat does not match base invocation")
	// ErrUnknownLabel reports a symbolic invocation label that is absent
	// from the supplied label table or not representable as a uint32. The
	// tool was built against a label table incompatible with the target
	// kernel.
	ErrUnknownLabel = errors.New("invocation label missing from label table")
	// ErrVariableSizeObject reports a fixed-size query on an object type
	// whose size is caller supplied.
	ErrVariableSizeObject = errors.New("object type has no fixed size")
	// ErrUnalignedSize reports a size that is not a multiple of the
	// minimum page size.
	ErrUnalignedSize = errors.New("size is not aligned to the minimum page size")
)

// RiscvVirtualMemory names a RISC-V virtual memory system. Only Sv39 is
// supported by the kernels this tool targets.
type RiscvVirtualMemory string

const RiscvSv39 RiscvVirtualMemory = "Sv39"

// Levels returns the number of page-table levels for the virtual memory
// system.
func (v RiscvVirtualMemory) Levels() (int, error) {
	switch v {
	case RiscvSv39:
		return 3, nil
	default:
		return 0, fmt.Errorf("sel4: %w: RISC-V virtual memory system %q", ErrUnsupportedConfig, string(v))
	}
}
