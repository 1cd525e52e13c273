package sel4

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// Invocation is one prepared, ready-to-serialize kernel request. The
// symbolic label is resolved to its raw numeric value once, at
// construction; the raw value is what the wire format carries.
type Invocation struct {
	label    InvocationLabel
	labelRaw uint32
	args     InvocationArgs

	repeatCount uint32
	repeatArgs  InvocationArgs
}

// NewInvocation resolves the invocation label for args against the
// configured label table.
func NewInvocation(config *Config, args InvocationArgs) (*Invocation, error) {
	label, err := args.label(config)
	if err != nil {
		return nil, err
	}
	raw, err := config.LabelValue(label)
	if err != nil {
		return nil, err
	}
	return &Invocation{label: label, labelRaw: raw, args: args}, nil
}

// Label returns the resolved symbolic label.
func (inv *Invocation) Label() InvocationLabel {
	return inv.label
}

// Repeat schedules count-1 compressed replays of the invocation, with the
// fields of args substituted on each iteration. The repeat payload must be
// the same variant as the base invocation. A count of 0 or 1 degenerates
// to no repeat at all.
func (inv *Invocation) Repeat(count uint32, args InvocationArgs) error {
	if inv.repeatArgs != nil {
		return fmt.Errorf("sel4: %w: invocation already has a repeat attached", ErrRepeatMismatch)
	}
	if count <= 1 {
		return nil
	}
	if reflect.TypeOf(args) != reflect.TypeOf(inv.args) {
		return fmt.Errorf("sel4: %w: base is %T, repeat is %T", ErrRepeatMismatch, inv.args, args)
	}
	inv.repeatCount = count
	inv.repeatArgs = args
	return nil
}

// MessageInfo packs the kernel's message-tag word. The label must fit in
// 50 bits, the capability counts in 3 bits each and the length in 7 bits;
// an invocation shape outside these bounds cannot be expressed in the wire
// format.
func MessageInfo(label, caps, extraCaps, length uint64) (uint64, error) {
	if label >= 1<<50 {
		return 0, fmt.Errorf("sel4: %w: label 0x%x does not fit in 50 bits", ErrFieldOutOfRange, label)
	}
	if caps >= 8 {
		return 0, fmt.Errorf("sel4: %w: capability count %d", ErrFieldOutOfRange, caps)
	}
	if extraCaps >= 8 {
		return 0, fmt.Errorf("sel4: %w: extra capability count %d", ErrFieldOutOfRange, extraCaps)
	}
	if length >= 0x80 {
		return 0, fmt.Errorf("sel4: %w: argument count %d", ErrFieldOutOfRange, length)
	}
	return label<<12 | caps<<9 | extraCaps<<7 | length, nil
}

// AppendBytes appends the raw little-endian encoding of the invocation to
// data and returns the extended slice. This is the byte stream the
// initial task replays at boot: tag word, service capability, extra
// capability words, plain argument words. A repeat contributes its own
// service/extra-caps/args triple immediately after, with no second tag
// word; the kernel replays the first tag's shape, with the repeat count
// minus one carried in bits 32-63 of the tag.
func (inv *Invocation) AppendBytes(config *Config, data []byte) ([]byte, error) {
	service, args, extraCaps, err := inv.args.rawArgs(config)
	if err != nil {
		return nil, err
	}

	tag, err := MessageInfo(uint64(inv.labelRaw), 0, uint64(len(extraCaps)), uint64(len(args)))
	if err != nil {
		return nil, err
	}
	if inv.repeatArgs != nil {
		tag |= uint64(inv.repeatCount-1) << 32
	}

	data = binary.LittleEndian.AppendUint64(data, tag)
	data = binary.LittleEndian.AppendUint64(data, service)
	for _, capWord := range extraCaps {
		data = binary.LittleEndian.AppendUint64(data, capWord)
	}
	for _, arg := range args {
		data = binary.LittleEndian.AppendUint64(data, arg)
	}

	if inv.repeatArgs != nil {
		repeatService, repeatArgs, repeatExtraCaps, err := inv.repeatArgs.rawArgs(config)
		if err != nil {
			return nil, err
		}
		data = binary.LittleEndian.AppendUint64(data, repeatService)
		for _, capWord := range repeatExtraCaps {
			data = binary.LittleEndian.AppendUint64(data, capWord)
		}
		for _, arg := range repeatArgs {
			data = binary.LittleEndian.AppendUint64(data, arg)
		}
	}

	return data, nil
}
