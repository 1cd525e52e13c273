package sel4

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func decodeWords(t *testing.T, data []byte) []uint64 {
	t.Helper()
	if len(data)%8 != 0 {
		t.Fatalf("encoded length %d is not a multiple of the word size", len(data))
	}
	words := make([]uint64, len(data)/8)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
	return words
}

func TestMessageInfoRoundTrip(t *testing.T) {
	cases := []struct {
		label     uint64
		extraCaps uint64
		length    uint64
	}{
		{0, 0, 0},
		{1, 1, 6},
		{14, 0, 0},
		{1<<50 - 1, 7, 127},
	}
	for _, tc := range cases {
		tag, err := MessageInfo(tc.label, 0, tc.extraCaps, tc.length)
		if err != nil {
			t.Fatalf("MessageInfo(%d, 0, %d, %d): %v", tc.label, tc.extraCaps, tc.length, err)
		}
		if got := tag >> 12; got != tc.label {
			t.Errorf("label = %d, want %d", got, tc.label)
		}
		// With a zero capability count the extra-caps field occupies
		// bits 7-9 exclusively.
		if got := (tag >> 7) & 7; got != tc.extraCaps {
			t.Errorf("extraCaps = %d, want %d", got, tc.extraCaps)
		}
		if got := tag & 0x7f; got != tc.length {
			t.Errorf("length = %d, want %d", got, tc.length)
		}
	}
}

func TestMessageInfoBounds(t *testing.T) {
	cases := []struct {
		name                            string
		label, caps, extraCaps, length uint64
	}{
		{"label", 1 << 50, 0, 0, 0},
		{"caps", 0, 8, 0, 0},
		{"extra-caps", 0, 0, 8, 0},
		{"length", 0, 0, 0, 128},
	}
	for _, tc := range cases {
		if _, err := MessageInfo(tc.label, tc.caps, tc.extraCaps, tc.length); !errors.Is(err, ErrFieldOutOfRange) {
			t.Errorf("%s: expected ErrFieldOutOfRange, got %v", tc.name, err)
		}
	}
}

func TestTCBResumeEncoding(t *testing.T) {
	config := aarch64Config(false, 40)
	inv, err := NewInvocation(config, &TCBResume{TCB: 0x1000})
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	data, err := inv.AppendBytes(config, nil)
	if err != nil {
		t.Fatalf("AppendBytes: %v", err)
	}
	words := decodeWords(t, data)
	if len(words) != 2 {
		t.Fatalf("encoded %d words, want 2", len(words))
	}
	if want := testLabels["TCBResume"] << 12; words[0] != want {
		t.Errorf("tag = 0x%x, want 0x%x", words[0], want)
	}
	if words[1] != 0x1000 {
		t.Errorf("service = 0x%x, want 0x1000", words[1])
	}
}

func TestUntypedRetypeEmbedsArchPageValue(t *testing.T) {
	cases := []struct {
		config *Config
		want   uint64
	}{
		{aarch64Config(false, 40), 9},
		{riscvConfig(true), 8},
		{x86Config(nil), 10},
	}
	for _, tc := range cases {
		inv, err := NewInvocation(tc.config, &UntypedRetype{
			Untyped:    0x40,
			ObjectType: ObjectTypeSmallPage,
			SizeBits:   12,
			Root:       0x2,
			NodeOffset: 100,
			NumObjects: 1,
		})
		if err != nil {
			t.Fatalf("%s: NewInvocation: %v", tc.config.Arch, err)
		}
		data, err := inv.AppendBytes(tc.config, nil)
		if err != nil {
			t.Fatalf("%s: AppendBytes: %v", tc.config.Arch, err)
		}
		words := decodeWords(t, data)
		// tag, service, root cap, then six plain arguments.
		if len(words) != 9 {
			t.Fatalf("%s: encoded %d words, want 9", tc.config.Arch, len(words))
		}
		if words[1] != 0x40 {
			t.Errorf("%s: service = 0x%x, want 0x40", tc.config.Arch, words[1])
		}
		if words[2] != 0x2 {
			t.Errorf("%s: root = 0x%x, want 0x2", tc.config.Arch, words[2])
		}
		if words[3] != tc.want {
			t.Errorf("%s: object type value = %d, want %d", tc.config.Arch, words[3], tc.want)
		}
		if words[4] != 12 {
			t.Errorf("%s: size bits = %d, want 12", tc.config.Arch, words[4])
		}
	}
}

func TestWriteRegistersRiscvOrder(t *testing.T) {
	config := riscvConfig(true)
	regs := Riscv64Regs{
		PC: 1, RA: 2, SP: 3, GP: 4,
		S0: 5, S1: 6, S2: 7, S3: 8, S4: 9, S5: 10, S6: 11, S7: 12,
		S8: 13, S9: 14, S10: 15, S11: 16,
		A0: 17, A1: 18, A2: 19, A3: 20, A4: 21, A5: 22, A6: 23, A7: 24,
		T0: 25, T1: 26, T2: 27, T3: 28, T4: 29, T5: 30, T6: 31,
		TP: 32,
	}
	inv, err := NewInvocation(config, &TCBWriteRegisters{
		TCB:    0x1000,
		Resume: true,
		Count:  Riscv64RegisterCount,
		Regs:   regs.NamedRegisters(),
	})
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	data, err := inv.AppendBytes(config, nil)
	if err != nil {
		t.Fatalf("AppendBytes: %v", err)
	}
	words := decodeWords(t, data)
	// tag, service, flags, count, 32 registers.
	if len(words) != 4+Riscv64RegisterCount {
		t.Fatalf("encoded %d words, want %d", len(words), 4+Riscv64RegisterCount)
	}
	if words[2] != 1 {
		t.Errorf("flags = 0x%x, want 0x1 (resume set, no arch flags)", words[2])
	}
	if words[3] != Riscv64RegisterCount {
		t.Errorf("count = %d, want %d", words[3], Riscv64RegisterCount)
	}
	for i := 0; i < Riscv64RegisterCount; i++ {
		if words[4+i] != uint64(i+1) {
			t.Errorf("register %d = %d, want %d", i, words[4+i], i+1)
		}
	}
}

func TestWriteRegistersArchFlags(t *testing.T) {
	config := riscvConfig(true)
	inv, err := NewInvocation(config, &TCBWriteRegisters{
		TCB:       0x1000,
		Resume:    false,
		ArchFlags: 0x3,
	})
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	data, err := inv.AppendBytes(config, nil)
	if err != nil {
		t.Fatalf("AppendBytes: %v", err)
	}
	words := decodeWords(t, data)
	if words[2] != 0x3<<8 {
		t.Errorf("flags = 0x%x, want 0x300", words[2])
	}
}

func TestRepeatCountOneIsNoRepeat(t *testing.T) {
	config := aarch64Config(false, 40)

	plain, err := NewInvocation(config, &TCBResume{TCB: 0x1000})
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	plainData, err := plain.AppendBytes(config, nil)
	if err != nil {
		t.Fatalf("AppendBytes: %v", err)
	}

	repeated, err := NewInvocation(config, &TCBResume{TCB: 0x1000})
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	if err := repeated.Repeat(1, &TCBResume{TCB: 0x2000}); err != nil {
		t.Fatalf("Repeat: %v", err)
	}
	repeatedData, err := repeated.AppendBytes(config, nil)
	if err != nil {
		t.Fatalf("AppendBytes: %v", err)
	}

	if !bytes.Equal(plainData, repeatedData) {
		t.Errorf("repeat of count 1 changed encoding: %x vs %x", plainData, repeatedData)
	}
}

func TestRepeatEncoding(t *testing.T) {
	config := aarch64Config(false, 40)
	inv, err := NewInvocation(config, &PageMap{
		Page:   0x100,
		VSpace: 0x10,
		Vaddr:  0x200000,
		Rights: RightsAll,
		Attr:   DefaultVMAttributes(config),
	})
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	if err := inv.Repeat(5, &PageMap{
		Page:   0x101,
		VSpace: 0x10,
		Vaddr:  0x201000,
		Rights: RightsAll,
		Attr:   DefaultVMAttributes(config),
	}); err != nil {
		t.Fatalf("Repeat: %v", err)
	}

	data, err := inv.AppendBytes(config, nil)
	if err != nil {
		t.Fatalf("AppendBytes: %v", err)
	}
	words := decodeWords(t, data)
	// One tag, then two service/extra-caps/args groups of 5 words each.
	if len(words) != 11 {
		t.Fatalf("encoded %d words, want 11", len(words))
	}
	if got := words[0] >> 32; got != 4 {
		t.Errorf("repeat count field = %d, want 4", got)
	}
	if words[1] != 0x100 || words[6] != 0x101 {
		t.Errorf("services = 0x%x, 0x%x; want 0x100, 0x101", words[1], words[6])
	}
	if words[2] != 0x10 || words[7] != 0x10 {
		t.Errorf("vspace caps = 0x%x, 0x%x; want 0x10, 0x10", words[2], words[7])
	}
	if words[3] != 0x200000 || words[8] != 0x201000 {
		t.Errorf("vaddrs = 0x%x, 0x%x", words[3], words[8])
	}
}

func TestRepeatVariantMismatch(t *testing.T) {
	config := aarch64Config(false, 40)
	inv, err := NewInvocation(config, &TCBResume{TCB: 0x1000})
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	if err := inv.Repeat(2, &PageMap{}); !errors.Is(err, ErrRepeatMismatch) {
		t.Fatalf("expected ErrRepeatMismatch, got %v", err)
	}
}

func TestRepeatAlreadyAttached(t *testing.T) {
	config := aarch64Config(false, 40)
	inv, err := NewInvocation(config, &TCBResume{TCB: 0x1000})
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	if err := inv.Repeat(2, &TCBResume{TCB: 0x2000}); err != nil {
		t.Fatalf("Repeat: %v", err)
	}
	if err := inv.Repeat(2, &TCBResume{TCB: 0x3000}); !errors.Is(err, ErrRepeatMismatch) {
		t.Fatalf("expected ErrRepeatMismatch on second attach, got %v", err)
	}
}

func TestUnknownLabel(t *testing.T) {
	config := aarch64Config(false, 40)
	config.InvocationLabels = LabelTable{}
	if _, err := NewInvocation(config, &TCBResume{TCB: 0x1000}); !errors.Is(err, ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}
}

func TestLabelValueTooWide(t *testing.T) {
	config := aarch64Config(false, 40)
	config.InvocationLabels = LabelTable{"TCBResume": 1 << 40}
	if _, err := NewInvocation(config, &TCBResume{TCB: 0x1000}); !errors.Is(err, ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}
}

func TestArchBranchedLabels(t *testing.T) {
	cases := []struct {
		args InvocationArgs
		want map[Arch]InvocationLabel
	}{
		{&ASIDPoolAssign{}, map[Arch]InvocationLabel{
			ArchAarch64: LabelARMASIDPoolAssign,
			ArchRiscv64: LabelRISCVASIDPoolAssign,
			ArchX86_64:  LabelX86ASIDPoolAssign,
		}},
		{&IRQControlGetTrigger{}, map[Arch]InvocationLabel{
			ArchAarch64: LabelARMIRQIssueIRQHandlerTrigger,
			ArchRiscv64: LabelRISCVIRQIssueIRQHandlerTrigger,
			ArchX86_64:  LabelX86IRQIssueIRQHandlerIOAPIC,
		}},
		{&PageUpperDirectoryMap{}, map[Arch]InvocationLabel{
			ArchAarch64: LabelARMPageTableMap,
			ArchRiscv64: LabelRISCVPageTableMap,
			ArchX86_64:  LabelX86PDPTMap,
		}},
		{&PageDirectoryMap{}, map[Arch]InvocationLabel{
			ArchAarch64: LabelARMPageTableMap,
			ArchRiscv64: LabelRISCVPageTableMap,
			ArchX86_64:  LabelX86PageDirectoryMap,
		}},
		{&PageTableMap{}, map[Arch]InvocationLabel{
			ArchAarch64: LabelARMPageTableMap,
			ArchRiscv64: LabelRISCVPageTableMap,
			ArchX86_64:  LabelX86PageTableMap,
		}},
		{&PageMap{}, map[Arch]InvocationLabel{
			ArchAarch64: LabelARMPageMap,
			ArchRiscv64: LabelRISCVPageMap,
			ArchX86_64:  LabelX86PageMap,
		}},
	}
	for _, tc := range cases {
		for arch, want := range tc.want {
			got, err := tc.args.label(configForArch(arch))
			if err != nil {
				t.Fatalf("%T on %s: label: %v", tc.args, arch, err)
			}
			if got != want {
				t.Errorf("%T on %s: label = %s, want %s", tc.args, arch, got, want)
			}
		}
	}
}

func TestInvocationSequenceAppends(t *testing.T) {
	config := aarch64Config(false, 40)
	var data []byte

	first, err := NewInvocation(config, &TCBResume{TCB: 0x1000})
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	data, err = first.AppendBytes(config, data)
	if err != nil {
		t.Fatalf("AppendBytes: %v", err)
	}

	second, err := NewInvocation(config, &TCBBindNotification{TCB: 0x1000, Notification: 0x2000})
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	data, err = second.AppendBytes(config, data)
	if err != nil {
		t.Fatalf("AppendBytes: %v", err)
	}

	words := decodeWords(t, data)
	if len(words) != 5 {
		t.Fatalf("encoded %d words, want 5", len(words))
	}
	// The second invocation starts right after the first; order in the
	// stream is order of the calls.
	if want := testLabels["TCBBindNotification"]<<12 | 1<<7; words[2] != want {
		t.Errorf("second tag = 0x%x, want 0x%x", words[2], want)
	}
	if words[4] != 0x2000 {
		t.Errorf("notification cap = 0x%x, want 0x2000", words[4])
	}
}
