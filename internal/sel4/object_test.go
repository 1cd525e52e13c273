package sel4

import (
	"errors"
	"testing"
)

// Reference object-type identifier tables per architecture. These must
// match the target kernel's object-type tables entry for entry; a type
// absent from a table is expected to report ErrUnsupportedConfig.
var objectTypeValueReference = map[Arch]map[ObjectType]uint64{
	ArchAarch64: {
		ObjectTypeUntyped:          0,
		ObjectTypeTCB:              1,
		ObjectTypeEndpoint:         2,
		ObjectTypeNotification:     3,
		ObjectTypeCNode:            4,
		ObjectTypeSchedContext:     5,
		ObjectTypeReply:            6,
		ObjectTypeHugePage:         7,
		ObjectTypeVSpace:           8,
		ObjectTypeSmallPage:        9,
		ObjectTypeLargePage:        10,
		ObjectTypePageTable:        11,
		ObjectTypeVcpu:             12,
		ObjectTypePageDirectory:    13,
		ObjectTypePdPt:             7,
		ObjectTypePml4:             8,
		ObjectTypeIOPageTable:      14,
		ObjectTypeEptPml4:          16,
		ObjectTypeEptPdPt:          17,
		ObjectTypeEptPageDirectory: 18,
		ObjectTypeEptPageTable:     19,
	},
	ArchRiscv64: {
		ObjectTypeUntyped:          0,
		ObjectTypeTCB:              1,
		ObjectTypeEndpoint:         2,
		ObjectTypeNotification:     3,
		ObjectTypeCNode:            4,
		ObjectTypeSchedContext:     5,
		ObjectTypeReply:            6,
		ObjectTypeHugePage:         7,
		ObjectTypeVSpace:           10,
		ObjectTypeSmallPage:        8,
		ObjectTypeLargePage:        9,
		ObjectTypePageTable:        10,
		ObjectTypePageDirectory:    13,
		ObjectTypePdPt:             7,
		ObjectTypePml4:             8,
		ObjectTypeIOPageTable:      14,
		ObjectTypeEptPml4:          16,
		ObjectTypeEptPdPt:          17,
		ObjectTypeEptPageDirectory: 18,
		ObjectTypeEptPageTable:     19,
	},
	ArchX86_64: {
		ObjectTypeUntyped:          0,
		ObjectTypeTCB:              1,
		ObjectTypeEndpoint:         2,
		ObjectTypeNotification:     3,
		ObjectTypeCNode:            4,
		ObjectTypeSchedContext:     5,
		ObjectTypeReply:            6,
		ObjectTypeHugePage:         9,
		ObjectTypeVSpace:           8,
		ObjectTypeSmallPage:        10,
		ObjectTypeLargePage:        11,
		ObjectTypePageTable:        12,
		ObjectTypeVcpu:             15,
		ObjectTypePageDirectory:    13,
		ObjectTypePdPt:             7,
		ObjectTypePml4:             8,
		ObjectTypeIOPageTable:      14,
		ObjectTypeEptPml4:          16,
		ObjectTypeEptPdPt:          17,
		ObjectTypeEptPageDirectory: 18,
		ObjectTypeEptPageTable:     19,
	},
}

func TestObjectTypeValues(t *testing.T) {
	for arch, reference := range objectTypeValueReference {
		config := configForArch(arch)
		for _, objectType := range ObjectTypes {
			want, supported := reference[objectType]
			got, err := objectType.Value(config)
			if !supported {
				if !errors.Is(err, ErrUnsupportedConfig) {
					t.Errorf("%s: %s: expected ErrUnsupportedConfig, got value=%d err=%v", arch, objectType, got, err)
				}
				continue
			}
			if err != nil {
				t.Errorf("%s: %s: Value: %v", arch, objectType, err)
				continue
			}
			if got != want {
				t.Errorf("%s: %s: Value = %d, want %d", arch, objectType, got, want)
			}
		}
	}
}

func TestFixedSizeBits(t *testing.T) {
	xsaveLarge := uint64(832)
	xsaveSmall := uint64(576)

	cases := []struct {
		name       string
		config     *Config
		objectType ObjectType
		want       uint64
	}{
		{"tcb-aarch64", aarch64Config(false, 40), ObjectTypeTCB, 11},
		{"tcb-riscv-fpu", riscvConfig(true), ObjectTypeTCB, 11},
		{"tcb-riscv-nofpu", riscvConfig(false), ObjectTypeTCB, 10},
		{"tcb-x86-xsave-832", x86Config(&xsaveLarge), ObjectTypeTCB, 12},
		{"tcb-x86-xsave-576", x86Config(&xsaveSmall), ObjectTypeTCB, 11},
		{"tcb-x86-no-xsave", x86Config(nil), ObjectTypeTCB, 11},
		{"vspace-aarch64", aarch64Config(false, 40), ObjectTypeVSpace, 12},
		{"vspace-aarch64-hyp-pa40", aarch64Config(true, 40), ObjectTypeVSpace, 13},
		{"vspace-aarch64-hyp-pa44", aarch64Config(true, 44), ObjectTypeVSpace, 12},
		{"vspace-riscv", riscvConfig(true), ObjectTypeVSpace, 12},
		{"vspace-x86", x86Config(nil), ObjectTypeVSpace, 12},
		{"vcpu-aarch64", aarch64Config(false, 40), ObjectTypeVcpu, 12},
		{"vcpu-x86", x86Config(nil), ObjectTypeVcpu, 14},
		{"endpoint", riscvConfig(true), ObjectTypeEndpoint, 4},
		{"notification", riscvConfig(true), ObjectTypeNotification, 6},
		{"reply", riscvConfig(true), ObjectTypeReply, 5},
		{"huge-page", x86Config(nil), ObjectTypeHugePage, 30},
		{"large-page", x86Config(nil), ObjectTypeLargePage, 21},
		{"small-page", x86Config(nil), ObjectTypeSmallPage, 12},
		{"page-table", x86Config(nil), ObjectTypePageTable, 12},
		{"ept-pml4", x86Config(nil), ObjectTypeEptPml4, 12},
	}
	for _, tc := range cases {
		got, err := tc.objectType.FixedSizeBits(tc.config)
		if err != nil {
			t.Fatalf("%s: FixedSizeBits: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: FixedSizeBits = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestFixedSizeBitsVariableSize(t *testing.T) {
	config := aarch64Config(false, 40)
	for _, objectType := range []ObjectType{ObjectTypeUntyped, ObjectTypeCNode, ObjectTypeSchedContext} {
		if objectType.HasFixedSize() {
			t.Errorf("%s: HasFixedSize = true, want false", objectType)
		}
		if _, err := objectType.FixedSizeBits(config); !errors.Is(err, ErrVariableSizeObject) {
			t.Errorf("%s: expected ErrVariableSizeObject, got %v", objectType, err)
		}
	}
}

func TestVcpuUnsupportedOnRiscv(t *testing.T) {
	config := riscvConfig(true)
	if _, err := ObjectTypeVcpu.FixedSizeBits(config); !errors.Is(err, ErrUnsupportedConfig) {
		t.Fatalf("FixedSizeBits: expected ErrUnsupportedConfig, got %v", err)
	}
	if _, err := ObjectTypeVcpu.Value(config); !errors.Is(err, ErrUnsupportedConfig) {
		t.Fatalf("Value: expected ErrUnsupportedConfig, got %v", err)
	}
}

func TestFixedSizeShiftIdentity(t *testing.T) {
	xsaveLarge := uint64(832)
	configs := []*Config{
		aarch64Config(false, 40),
		aarch64Config(true, 40),
		aarch64Config(true, 44),
		riscvConfig(true),
		riscvConfig(false),
		x86Config(nil),
		x86Config(&xsaveLarge),
	}
	for _, config := range configs {
		for _, objectType := range ObjectTypes {
			if !objectType.HasFixedSize() {
				continue
			}
			bits, err := objectType.FixedSizeBits(config)
			if err != nil {
				// vCPU on riscv64 has no size at all; the pairing is
				// checked by TestVcpuUnsupportedOnRiscv.
				if _, sizeErr := objectType.FixedSize(config); sizeErr == nil {
					t.Errorf("%s on %s: FixedSize succeeded but FixedSizeBits failed: %v", objectType, config.Arch, err)
				}
				continue
			}
			size, err := objectType.FixedSize(config)
			if err != nil {
				t.Fatalf("%s on %s: FixedSize: %v", objectType, config.Arch, err)
			}
			if size != 1<<bits {
				t.Errorf("%s on %s: FixedSize = 0x%x, want 1<<%d", objectType, config.Arch, size, bits)
			}
		}
	}
}

func TestObjectTypeFormat(t *testing.T) {
	config := aarch64Config(false, 40)

	got, err := ObjectTypeSmallPage.Format(config)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "         object_type          9 (SEL4_SMALL_PAGE_OBJECT - 0x1000)"
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}

	got, err = ObjectTypeUntyped.Format(config)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want = "         object_type          0 (SEL4_UNTYPED_OBJECT - variable size)"
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestPageSizeFromValue(t *testing.T) {
	if size, err := PageSizeFromValue(0x1000); err != nil || size != PageSizeSmall {
		t.Errorf("PageSizeFromValue(0x1000) = %v, %v", size, err)
	}
	if size, err := PageSizeFromValue(0x200_000); err != nil || size != PageSizeLarge {
		t.Errorf("PageSizeFromValue(0x200000) = %v, %v", size, err)
	}
	if _, err := PageSizeFromValue(0x4000); !errors.Is(err, ErrUnsupportedConfig) {
		t.Errorf("expected ErrUnsupportedConfig, got %v", err)
	}
}

func TestDefaultVMAttributes(t *testing.T) {
	if got := DefaultVMAttributes(aarch64Config(false, 40)); got != (ArmVmAttrCacheable | ArmVmAttrParityEnabled) {
		t.Errorf("aarch64 attributes = %d", got)
	}
	if got := DefaultVMAttributes(riscvConfig(true)); got != 0 {
		t.Errorf("riscv64 attributes = %d", got)
	}
	if got := DefaultVMAttributes(x86Config(nil)); got != 0 {
		t.Errorf("x86_64 attributes = %d", got)
	}
}
