// Package platform loads target-platform descriptions for the invocation
// encoder: which kernel architecture and configuration a system image is
// being built against, and the invocation-label table of that specific
// kernel build.
package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Neutrality-ch/microkit/internal/sel4"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDescription reports a platform description that names an
// architecture/flag combination the encoder does not model.
var ErrInvalidDescription = errors.New("invalid platform description")

// Description mirrors the platform file exported by a kernel build.
type Description struct {
	Arch               string `yaml:"arch"`
	WordSize           uint64 `yaml:"word_size,omitempty"`
	MinimumPageSize    uint64 `yaml:"minimum_page_size,omitempty"`
	PaddrUserDeviceTop uint64 `yaml:"paddr_user_device_top,omitempty"`
	KernelFrameSize    uint64 `yaml:"kernel_frame_size,omitempty"`
	InitCnodeBits      uint64 `yaml:"init_cnode_bits,omitempty"`
	CapAddressBits     uint64 `yaml:"cap_address_bits,omitempty"`
	FanOutLimit        uint64 `yaml:"fan_out_limit,omitempty"`

	Hypervisor bool `yaml:"hypervisor,omitempty"`
	Benchmark  bool `yaml:"benchmark,omitempty"`
	FPU        bool `yaml:"fpu,omitempty"`

	ArmPASizeBits *int    `yaml:"arm_pa_size_bits,omitempty"`
	ArmSMC        *bool   `yaml:"arm_smc,omitempty"`
	RiscvPTLevels *string `yaml:"riscv_pt_levels,omitempty"`
	X86XsaveSize  *uint64 `yaml:"x86_xsave_size,omitempty"`

	// InvocationLabels may be left empty and supplied separately through
	// LoadLabels.
	InvocationLabels map[string]uint64 `yaml:"invocation_labels,omitempty"`
}

func (d *Description) normalize() {
	if d.WordSize == 0 {
		d.WordSize = 64
	}
	if d.MinimumPageSize == 0 {
		d.MinimumPageSize = 0x1000
	}
	if d.KernelFrameSize == 0 {
		d.KernelFrameSize = d.MinimumPageSize
	}
}

func (d *Description) validate() error {
	switch sel4.Arch(d.Arch) {
	case sel4.ArchAarch64:
		if d.Hypervisor && d.ArmPASizeBits == nil {
			return fmt.Errorf("%w: aarch64 hypervisor build requires arm_pa_size_bits", ErrInvalidDescription)
		}
		if d.RiscvPTLevels != nil {
			return fmt.Errorf("%w: riscv_pt_levels set on aarch64", ErrInvalidDescription)
		}
		if d.X86XsaveSize != nil {
			return fmt.Errorf("%w: x86_xsave_size set on aarch64", ErrInvalidDescription)
		}
	case sel4.ArchRiscv64:
		if d.RiscvPTLevels == nil {
			return fmt.Errorf("%w: riscv64 build requires riscv_pt_levels", ErrInvalidDescription)
		}
		if d.ArmPASizeBits != nil || d.ArmSMC != nil {
			return fmt.Errorf("%w: ARM fields set on riscv64", ErrInvalidDescription)
		}
		if d.X86XsaveSize != nil {
			return fmt.Errorf("%w: x86_xsave_size set on riscv64", ErrInvalidDescription)
		}
	case sel4.ArchX86_64:
		if d.ArmPASizeBits != nil || d.ArmSMC != nil {
			return fmt.Errorf("%w: ARM fields set on x86_64", ErrInvalidDescription)
		}
		if d.RiscvPTLevels != nil {
			return fmt.Errorf("%w: riscv_pt_levels set on x86_64", ErrInvalidDescription)
		}
	default:
		return fmt.Errorf("%w: unknown architecture %q", ErrInvalidDescription, d.Arch)
	}
	return nil
}

// Config builds the validated encoder configuration for the description.
func (d *Description) Config() (*sel4.Config, error) {
	d.normalize()
	if err := d.validate(); err != nil {
		return nil, err
	}

	config := &sel4.Config{
		Arch:               sel4.Arch(d.Arch),
		WordSize:           d.WordSize,
		MinimumPageSize:    d.MinimumPageSize,
		PaddrUserDeviceTop: d.PaddrUserDeviceTop,
		KernelFrameSize:    d.KernelFrameSize,
		InitCnodeBits:      d.InitCnodeBits,
		CapAddressBits:     d.CapAddressBits,
		FanOutLimit:        d.FanOutLimit,
		Hypervisor:         d.Hypervisor,
		Benchmark:          d.Benchmark,
		FPU:                d.FPU,
		ArmPASizeBits:      d.ArmPASizeBits,
		ArmSMC:             d.ArmSMC,
		X86XsaveSize:       d.X86XsaveSize,
		InvocationLabels:   sel4.LabelTable(d.InvocationLabels),
	}

	if d.RiscvPTLevels != nil {
		levels := sel4.RiscvVirtualMemory(*d.RiscvPTLevels)
		if _, err := levels.Levels(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
		}
		config.RiscvPTLevels = &levels
	}

	return config, nil
}

// Parse reads a YAML platform description.
func Parse(data []byte) (*sel4.Config, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("platform: parse description: %w", err)
	}
	return desc.Config()
}

// Load reads a YAML platform description from a file.
func Load(path string) (*sel4.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("platform: read %s: %w", path, err)
	}
	config, err := Parse(data)
	if err != nil {
		return nil, err
	}
	slog.Debug("platform: loaded description",
		"path", path, "arch", config.Arch, "labels", len(config.InvocationLabels))
	return config, nil
}

// LoadLabels reads an invocation-label table from the JSON file emitted by
// the kernel build (a flat object mapping label name to number).
func LoadLabels(path string) (sel4.LabelTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("platform: read %s: %w", path, err)
	}
	var labels sel4.LabelTable
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("platform: parse label table %s: %w", path, err)
	}
	return labels, nil
}
