package sel4

import "fmt"

// InvocationArgs is the closed set of argument payloads, one per kernel
// operation this tool emits. Each variant knows its symbolic label and how
// to decompose into the (service, args, extra caps) triple of the wire
// format; the field order inside rawArgs must match the kernel's expected
// argument order exactly.
type InvocationArgs interface {
	label(config *Config) (InvocationLabel, error)
	rawArgs(config *Config) (service uint64, args []uint64, extraCaps []uint64, err error)
}

var (
	_ InvocationArgs = &UntypedRetype{}
	_ InvocationArgs = &TCBSetSchedParams{}
	_ InvocationArgs = &TCBSetSpace{}
	_ InvocationArgs = &TCBSetIPCBuffer{}
	_ InvocationArgs = &TCBResume{}
	_ InvocationArgs = &TCBWriteRegisters{}
	_ InvocationArgs = &TCBBindNotification{}
	_ InvocationArgs = &ASIDPoolAssign{}
	_ InvocationArgs = &IRQControlGetTrigger{}
	_ InvocationArgs = &IRQHandlerSetNotification{}
	_ InvocationArgs = &IOPortControlIssue{}
	_ InvocationArgs = &PageUpperDirectoryMap{}
	_ InvocationArgs = &PageDirectoryMap{}
	_ InvocationArgs = &PageTableMap{}
	_ InvocationArgs = &PageMap{}
	_ InvocationArgs = &CNodeCopy{}
	_ InvocationArgs = &CNodeMint{}
	_ InvocationArgs = &SchedControlConfigureFlags{}
	_ InvocationArgs = &ARMVCPUSetTCB{}
)

// UntypedRetype turns part of an untyped memory object into NumObjects
// kernel objects of the given type.
type UntypedRetype struct {
	Untyped    uint64
	ObjectType ObjectType
	SizeBits   uint64
	Root       uint64
	NodeIndex  uint64
	NodeDepth  uint64
	NodeOffset uint64
	NumObjects uint64
}

func (a *UntypedRetype) label(config *Config) (InvocationLabel, error) {
	return LabelUntypedRetype, nil
}

func (a *UntypedRetype) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	value, err := a.ObjectType.Value(config)
	if err != nil {
		return 0, nil, nil, err
	}
	args := []uint64{value, a.SizeBits, a.NodeIndex, a.NodeDepth, a.NodeOffset, a.NumObjects}
	return a.Untyped, args, []uint64{a.Root}, nil
}

type TCBSetSchedParams struct {
	TCB          uint64
	Authority    uint64
	MCP          uint64
	Priority     uint64
	SchedContext uint64
	FaultEP      uint64
}

func (a *TCBSetSchedParams) label(config *Config) (InvocationLabel, error) {
	return LabelTCBSetSchedParams, nil
}

func (a *TCBSetSchedParams) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	return a.TCB, []uint64{a.MCP, a.Priority}, []uint64{a.Authority, a.SchedContext, a.FaultEP}, nil
}

type TCBSetSpace struct {
	TCB            uint64
	FaultEP        uint64
	CSpaceRoot     uint64
	CSpaceRootData uint64
	VSpaceRoot     uint64
	VSpaceRootData uint64
}

func (a *TCBSetSpace) label(config *Config) (InvocationLabel, error) {
	return LabelTCBSetSpace, nil
}

func (a *TCBSetSpace) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	return a.TCB, []uint64{a.CSpaceRootData, a.VSpaceRootData}, []uint64{a.FaultEP, a.CSpaceRoot, a.VSpaceRoot}, nil
}

type TCBSetIPCBuffer struct {
	TCB         uint64
	Buffer      uint64
	BufferFrame uint64
}

func (a *TCBSetIPCBuffer) label(config *Config) (InvocationLabel, error) {
	return LabelTCBSetIPCBuffer, nil
}

func (a *TCBSetIPCBuffer) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	return a.TCB, []uint64{a.Buffer}, []uint64{a.BufferFrame}, nil
}

type TCBResume struct {
	TCB uint64
}

func (a *TCBResume) label(config *Config) (InvocationLabel, error) {
	return LabelTCBResume, nil
}

func (a *TCBResume) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	return a.TCB, nil, nil, nil
}

// TCBWriteRegisters loads a full register file into a TCB. Regs must be in
// the architecture's canonical order; build it with the NamedRegisters
// method of the matching register file.
type TCBWriteRegisters struct {
	TCB       uint64
	Resume    bool
	ArchFlags uint8
	Count     uint64
	Regs      []NamedRegister
}

func (a *TCBWriteRegisters) label(config *Config) (InvocationLabel, error) {
	return LabelTCBWriteRegisters, nil
}

func (a *TCBWriteRegisters) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	// The resume flag and the architecture flags do not correspond
	// one-to-one to invocation words; they are packed into a single word
	// ahead of the register count.
	var resumeBit uint64
	if a.Resume {
		resumeBit = 1
	}
	flags := uint64(a.ArchFlags)<<8 | resumeBit
	args := make([]uint64, 0, 2+len(a.Regs))
	args = append(args, flags, a.Count)
	for _, reg := range a.Regs {
		args = append(args, reg.Value)
	}
	return a.TCB, args, nil, nil
}

type TCBBindNotification struct {
	TCB          uint64
	Notification uint64
}

func (a *TCBBindNotification) label(config *Config) (InvocationLabel, error) {
	return LabelTCBBindNotification, nil
}

func (a *TCBBindNotification) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	return a.TCB, nil, []uint64{a.Notification}, nil
}

type ASIDPoolAssign struct {
	ASIDPool uint64
	VSpace   uint64
}

func (a *ASIDPoolAssign) label(config *Config) (InvocationLabel, error) {
	switch config.Arch {
	case ArchAarch64:
		return LabelARMASIDPoolAssign, nil
	case ArchRiscv64:
		return LabelRISCVASIDPoolAssign, nil
	case ArchX86_64:
		return LabelX86ASIDPoolAssign, nil
	default:
		return "", fmt.Errorf("sel4: %w: ASID pool assignment on %s", ErrUnsupportedConfig, config.Arch)
	}
}

func (a *ASIDPoolAssign) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	return a.ASIDPool, nil, []uint64{a.VSpace}, nil
}

type IRQControlGetTrigger struct {
	IRQControl uint64
	IRQ        uint64
	Trigger    IrqTrigger
	DestRoot   uint64
	DestIndex  uint64
	DestDepth  uint64
}

func (a *IRQControlGetTrigger) label(config *Config) (InvocationLabel, error) {
	switch config.Arch {
	case ArchAarch64:
		return LabelARMIRQIssueIRQHandlerTrigger, nil
	case ArchRiscv64:
		return LabelRISCVIRQIssueIRQHandlerTrigger, nil
	case ArchX86_64:
		return LabelX86IRQIssueIRQHandlerIOAPIC, nil
	default:
		return "", fmt.Errorf("sel4: %w: IRQ trigger registration on %s", ErrUnsupportedConfig, config.Arch)
	}
}

func (a *IRQControlGetTrigger) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	args := []uint64{a.IRQ, uint64(a.Trigger), a.DestIndex, a.DestDepth}
	return a.IRQControl, args, []uint64{a.DestRoot}, nil
}

type IRQHandlerSetNotification struct {
	IRQHandler   uint64
	Notification uint64
}

func (a *IRQHandlerSetNotification) label(config *Config) (InvocationLabel, error) {
	return LabelIRQSetIRQHandler, nil
}

func (a *IRQHandlerSetNotification) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	return a.IRQHandler, nil, []uint64{a.Notification}, nil
}

type IOPortControlIssue struct {
	IOPortControl uint64
	FirstPort     uint64
	LastPort      uint64
	DestRoot      uint64
	DestIndex     uint64
	DestDepth     uint64
}

func (a *IOPortControlIssue) label(config *Config) (InvocationLabel, error) {
	return LabelX86IOPortControlIssue, nil
}

func (a *IOPortControlIssue) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	args := []uint64{a.FirstPort, a.LastPort, a.DestIndex, a.DestDepth}
	return a.IOPortControl, args, []uint64{a.DestRoot}, nil
}

type PageUpperDirectoryMap struct {
	PageUpperDirectory uint64
	VSpace             uint64
	Vaddr              uint64
	Attr               uint64
}

func (a *PageUpperDirectoryMap) label(config *Config) (InvocationLabel, error) {
	switch config.Arch {
	case ArchAarch64:
		return LabelARMPageTableMap, nil
	case ArchRiscv64:
		return LabelRISCVPageTableMap, nil
	case ArchX86_64:
		return LabelX86PDPTMap, nil
	default:
		return "", fmt.Errorf("sel4: %w: page upper directory mapping on %s", ErrUnsupportedConfig, config.Arch)
	}
}

func (a *PageUpperDirectoryMap) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	return a.PageUpperDirectory, []uint64{a.Vaddr, a.Attr}, []uint64{a.VSpace}, nil
}

type PageDirectoryMap struct {
	PageDirectory uint64
	VSpace        uint64
	Vaddr         uint64
	Attr          uint64
}

func (a *PageDirectoryMap) label(config *Config) (InvocationLabel, error) {
	switch config.Arch {
	case ArchAarch64:
		return LabelARMPageTableMap, nil
	case ArchRiscv64:
		return LabelRISCVPageTableMap, nil
	case ArchX86_64:
		return LabelX86PageDirectoryMap, nil
	default:
		return "", fmt.Errorf("sel4: %w: page directory mapping on %s", ErrUnsupportedConfig, config.Arch)
	}
}

func (a *PageDirectoryMap) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	return a.PageDirectory, []uint64{a.Vaddr, a.Attr}, []uint64{a.VSpace}, nil
}

type PageTableMap struct {
	PageTable uint64
	VSpace    uint64
	Vaddr     uint64
	Attr      uint64
}

func (a *PageTableMap) label(config *Config) (InvocationLabel, error) {
	switch config.Arch {
	case ArchAarch64:
		return LabelARMPageTableMap, nil
	case ArchRiscv64:
		return LabelRISCVPageTableMap, nil
	case ArchX86_64:
		return LabelX86PageTableMap, nil
	default:
		return "", fmt.Errorf("sel4: %w: page table mapping on %s", ErrUnsupportedConfig, config.Arch)
	}
}

func (a *PageTableMap) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	return a.PageTable, []uint64{a.Vaddr, a.Attr}, []uint64{a.VSpace}, nil
}

type PageMap struct {
	Page   uint64
	VSpace uint64
	Vaddr  uint64
	Rights uint64
	Attr   uint64
}

func (a *PageMap) label(config *Config) (InvocationLabel, error) {
	switch config.Arch {
	case ArchAarch64:
		return LabelARMPageMap, nil
	case ArchRiscv64:
		return LabelRISCVPageMap, nil
	case ArchX86_64:
		return LabelX86PageMap, nil
	default:
		return "", fmt.Errorf("sel4: %w: page mapping on %s", ErrUnsupportedConfig, config.Arch)
	}
}

func (a *PageMap) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	return a.Page, []uint64{a.Vaddr, a.Rights, a.Attr}, []uint64{a.VSpace}, nil
}

type CNodeCopy struct {
	CNode     uint64
	DestIndex uint64
	DestDepth uint64
	SrcRoot   uint64
	SrcObj    uint64
	SrcDepth  uint64
	Rights    uint64
}

func (a *CNodeCopy) label(config *Config) (InvocationLabel, error) {
	return LabelCNodeCopy, nil
}

func (a *CNodeCopy) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	args := []uint64{a.DestIndex, a.DestDepth, a.SrcObj, a.SrcDepth, a.Rights}
	return a.CNode, args, []uint64{a.SrcRoot}, nil
}

type CNodeMint struct {
	CNode     uint64
	DestIndex uint64
	DestDepth uint64
	SrcRoot   uint64
	SrcObj    uint64
	SrcDepth  uint64
	Rights    uint64
	Badge     uint64
}

func (a *CNodeMint) label(config *Config) (InvocationLabel, error) {
	return LabelCNodeMint, nil
}

func (a *CNodeMint) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	args := []uint64{a.DestIndex, a.DestDepth, a.SrcObj, a.SrcDepth, a.Rights, a.Badge}
	return a.CNode, args, []uint64{a.SrcRoot}, nil
}

type SchedControlConfigureFlags struct {
	SchedControl uint64
	SchedContext uint64
	Budget       uint64
	Period       uint64
	ExtraRefills uint64
	Badge        uint64
	Flags        uint64
}

func (a *SchedControlConfigureFlags) label(config *Config) (InvocationLabel, error) {
	return LabelSchedControlConfigureFlags, nil
}

func (a *SchedControlConfigureFlags) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	args := []uint64{a.Budget, a.Period, a.ExtraRefills, a.Badge, a.Flags}
	return a.SchedControl, args, []uint64{a.SchedContext}, nil
}

type ARMVCPUSetTCB struct {
	VCPU uint64
	TCB  uint64
}

func (a *ARMVCPUSetTCB) label(config *Config) (InvocationLabel, error) {
	return LabelARMVCPUSetTCB, nil
}

func (a *ARMVCPUSetTCB) rawArgs(config *Config) (uint64, []uint64, []uint64, error) {
	return a.VCPU, nil, []uint64{a.TCB}, nil
}
