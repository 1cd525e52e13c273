package sel4

import (
	"fmt"
	"math"
)

// InvocationLabel is the symbolic name of a kernel invocation. The raw
// numeric value a label encodes to depends on the kernel configuration and
// is supplied externally through the Config's label table, keyed by the
// symbolic name.
type InvocationLabel string

const (
	// Untyped
	LabelUntypedRetype InvocationLabel = "UntypedRetype"
	// TCB
	LabelTCBReadRegisters       InvocationLabel = "TCBReadRegisters"
	LabelTCBWriteRegisters      InvocationLabel = "TCBWriteRegisters"
	LabelTCBCopyRegisters       InvocationLabel = "TCBCopyRegisters"
	LabelTCBConfigure           InvocationLabel = "TCBConfigure"
	LabelTCBSetPriority         InvocationLabel = "TCBSetPriority"
	LabelTCBSetMCPriority       InvocationLabel = "TCBSetMCPriority"
	LabelTCBSetSchedParams      InvocationLabel = "TCBSetSchedParams"
	LabelTCBSetTimeoutEndpoint  InvocationLabel = "TCBSetTimeoutEndpoint"
	LabelTCBSetIPCBuffer        InvocationLabel = "TCBSetIPCBuffer"
	LabelTCBSetSpace            InvocationLabel = "TCBSetSpace"
	LabelTCBSuspend             InvocationLabel = "TCBSuspend"
	LabelTCBResume              InvocationLabel = "TCBResume"
	LabelTCBBindNotification    InvocationLabel = "TCBBindNotification"
	LabelTCBUnbindNotification  InvocationLabel = "TCBUnbindNotification"
	LabelTCBSetTLSBase          InvocationLabel = "TCBSetTLSBase"
	// CNode
	LabelCNodeRevoke            InvocationLabel = "CNodeRevoke"
	LabelCNodeDelete            InvocationLabel = "CNodeDelete"
	LabelCNodeCancelBadgedSends InvocationLabel = "CNodeCancelBadgedSends"
	LabelCNodeCopy              InvocationLabel = "CNodeCopy"
	LabelCNodeMint              InvocationLabel = "CNodeMint"
	LabelCNodeMove              InvocationLabel = "CNodeMove"
	LabelCNodeMutate            InvocationLabel = "CNodeMutate"
	LabelCNodeRotate            InvocationLabel = "CNodeRotate"
	// IRQ
	LabelIRQIssueIRQHandler InvocationLabel = "IRQIssueIRQHandler"
	LabelIRQAckIRQ          InvocationLabel = "IRQAckIRQ"
	LabelIRQSetIRQHandler   InvocationLabel = "IRQSetIRQHandler"
	LabelIRQClearIRQHandler InvocationLabel = "IRQClearIRQHandler"
	// Domain
	LabelDomainSetSet InvocationLabel = "DomainSetSet"
	// Scheduling
	LabelSchedControlConfigureFlags InvocationLabel = "SchedControlConfigureFlags"
	LabelSchedContextBind           InvocationLabel = "SchedContextBind"
	LabelSchedContextUnbind         InvocationLabel = "SchedContextUnbind"
	LabelSchedContextUnbindObject   InvocationLabel = "SchedContextUnbindObject"
	LabelSchedContextConsume        InvocationLabel = "SchedContextConsume"
	LabelSchedContextYieldTo        InvocationLabel = "SchedContextYieldTo"
	// ARM VSpace
	LabelARMVSpaceCleanData           InvocationLabel = "ARMVSpaceCleanData"
	LabelARMVSpaceInvalidateData      InvocationLabel = "ARMVSpaceInvalidateData"
	LabelARMVSpaceCleanInvalidateData InvocationLabel = "ARMVSpaceCleanInvalidateData"
	LabelARMVSpaceUnifyInstruction    InvocationLabel = "ARMVSpaceUnifyInstruction"
	// ARM SMC
	LabelARMSMCCall InvocationLabel = "ARMSMCCall"
	// ARM page table
	LabelARMPageTableMap   InvocationLabel = "ARMPageTableMap"
	LabelARMPageTableUnmap InvocationLabel = "ARMPageTableUnmap"
	// ARM page
	LabelARMPageMap                 InvocationLabel = "ARMPageMap"
	LabelARMPageUnmap               InvocationLabel = "ARMPageUnmap"
	LabelARMPageCleanData           InvocationLabel = "ARMPageCleanData"
	LabelARMPageInvalidateData      InvocationLabel = "ARMPageInvalidateData"
	LabelARMPageCleanInvalidateData InvocationLabel = "ARMPageCleanInvalidateData"
	LabelARMPageUnifyInstruction    InvocationLabel = "ARMPageUnifyInstruction"
	LabelARMPageGetAddress          InvocationLabel = "ARMPageGetAddress"
	// ARM ASID
	LabelARMASIDControlMakePool InvocationLabel = "ARMASIDControlMakePool"
	LabelARMASIDPoolAssign      InvocationLabel = "ARMASIDPoolAssign"
	// ARM vCPU
	LabelARMVCPUSetTCB     InvocationLabel = "ARMVCPUSetTCB"
	LabelARMVCPUInjectIRQ  InvocationLabel = "ARMVCPUInjectIRQ"
	LabelARMVCPUReadReg    InvocationLabel = "ARMVCPUReadReg"
	LabelARMVCPUWriteReg   InvocationLabel = "ARMVCPUWriteReg"
	LabelARMVCPUAckVppi    InvocationLabel = "ARMVCPUAckVppi"
	// ARM IRQ
	LabelARMIRQIssueIRQHandlerTrigger InvocationLabel = "ARMIRQIssueIRQHandlerTrigger"
	// RISC-V page table
	LabelRISCVPageTableMap   InvocationLabel = "RISCVPageTableMap"
	LabelRISCVPageTableUnmap InvocationLabel = "RISCVPageTableUnmap"
	// RISC-V page
	LabelRISCVPageMap        InvocationLabel = "RISCVPageMap"
	LabelRISCVPageUnmap      InvocationLabel = "RISCVPageUnmap"
	LabelRISCVPageGetAddress InvocationLabel = "RISCVPageGetAddress"
	// RISC-V ASID
	LabelRISCVASIDControlMakePool InvocationLabel = "RISCVASIDControlMakePool"
	LabelRISCVASIDPoolAssign      InvocationLabel = "RISCVASIDPoolAssign"
	// RISC-V IRQ
	LabelRISCVIRQIssueIRQHandlerTrigger InvocationLabel = "RISCVIRQIssueIRQHandlerTrigger"
	// x86 PDPT
	LabelX86PDPTMap   InvocationLabel = "X86PDPTMap"
	LabelX86PDPTUnmap InvocationLabel = "X86PDPTUnmap"
	// x86 page directory
	LabelX86PageDirectoryMap   InvocationLabel = "X86PageDirectoryMap"
	LabelX86PageDirectoryUnmap InvocationLabel = "X86PageDirectoryUnmap"
	// x86 page table
	LabelX86PageTableMap   InvocationLabel = "X86PageTableMap"
	LabelX86PageTableUnmap InvocationLabel = "X86PageTableUnmap"
	// x86 IO page table
	LabelX86IOPageTableMap   InvocationLabel = "X86IOPageTableMap"
	LabelX86IOPageTableUnmap InvocationLabel = "X86IOPageTableUnmap"
	// x86 page
	LabelX86PageMap        InvocationLabel = "X86PageMap"
	LabelX86PageUnmap      InvocationLabel = "X86PageUnmap"
	LabelX86PageMapIO      InvocationLabel = "X86PageMapIO"
	LabelX86PageGetAddress InvocationLabel = "X86PageGetAddress"
	LabelX86PageMapEPT     InvocationLabel = "X86PageMapEPT"
	// x86 ASID
	LabelX86ASIDControlMakePool InvocationLabel = "X86ASIDControlMakePool"
	LabelX86ASIDPoolAssign      InvocationLabel = "X86ASIDPoolAssign"
	// x86 IO port
	LabelX86IOPortControlIssue InvocationLabel = "X86IOPortControlIssue"
	LabelX86IOPortIn8          InvocationLabel = "X86IOPortIn8"
	LabelX86IOPortIn16         InvocationLabel = "X86IOPortIn16"
	LabelX86IOPortIn32         InvocationLabel = "X86IOPortIn32"
	LabelX86IOPortOut8         InvocationLabel = "X86IOPortOut8"
	LabelX86IOPortOut16        InvocationLabel = "X86IOPortOut16"
	LabelX86IOPortOut32        InvocationLabel = "X86IOPortOut32"
	// x86 IRQ
	LabelX86IRQIssueIRQHandlerIOAPIC InvocationLabel = "X86IRQIssueIRQHandlerIOAPIC"
	LabelX86IRQIssueIRQHandlerMSI    InvocationLabel = "X86IRQIssueIRQHandlerMSI"
	// x86 TCB
	LabelTCBSetEPTRoot InvocationLabel = "TCBSetEPTRoot"
	// x86 vCPU
	LabelX86VCPUSetTCB         InvocationLabel = "X86VCPUSetTCB"
	LabelX86VCPUReadVMCS       InvocationLabel = "X86VCPUReadVMCS"
	LabelX86VCPUWriteVMCS      InvocationLabel = "X86VCPUWriteVMCS"
	LabelX86VCPUEnableIOPort   InvocationLabel = "X86VCPUEnableIOPort"
	LabelX86VCPUDisableIOPort  InvocationLabel = "X86VCPUDisableIOPort"
	LabelX86VCPUWriteRegisters InvocationLabel = "X86VCPUWriteRegisters"
	// x86 EPT structures
	LabelX86EPTPDPTMap   InvocationLabel = "X86EPTPDPTMap"
	LabelX86EPTPDPTUnmap InvocationLabel = "X86EPTPDPTUnmap"
	LabelX86EPTPDMap     InvocationLabel = "X86EPTPDMap"
	LabelX86EPTPDUnmap   InvocationLabel = "X86EPTPDUnmap"
	LabelX86EPTPTMap     InvocationLabel = "X86EPTPTMap"
	LabelX86EPTPTUnmap   InvocationLabel = "X86EPTPTUnmap"
)

// LabelValue resolves a symbolic label against the configuration's label
// table. A missing entry, or one that does not fit the kernel's 32-bit
// label encoding, means the tool's label catalogue is out of sync with the
// target kernel build.
func (c *Config) LabelValue(label InvocationLabel) (uint32, error) {
	raw, ok := c.InvocationLabels[string(label)]
	if !ok {
		return 0, fmt.Errorf("sel4: %w: %s", ErrUnknownLabel, label)
	}
	if raw > math.MaxUint32 {
		return 0, fmt.Errorf("sel4: %w: %s has value 0x%x which does not fit in 32 bits", ErrUnknownLabel, label, raw)
	}
	return uint32(raw), nil
}

// RequiredLabels returns every symbolic label an invocation can resolve to
// on the given architecture. Used to validate a kernel build's label table
// up front instead of failing on the first encode.
func RequiredLabels(arch Arch) []InvocationLabel {
	labels := []InvocationLabel{
		LabelUntypedRetype,
		LabelTCBSetSchedParams,
		LabelTCBSetSpace,
		LabelTCBSetIPCBuffer,
		LabelTCBResume,
		LabelTCBWriteRegisters,
		LabelTCBBindNotification,
		LabelIRQSetIRQHandler,
		LabelCNodeCopy,
		LabelCNodeMint,
		LabelSchedControlConfigureFlags,
	}
	switch arch {
	case ArchAarch64:
		labels = append(labels,
			LabelARMASIDPoolAssign,
			LabelARMIRQIssueIRQHandlerTrigger,
			LabelARMPageTableMap,
			LabelARMPageMap,
			LabelARMVCPUSetTCB,
		)
	case ArchRiscv64:
		labels = append(labels,
			LabelRISCVASIDPoolAssign,
			LabelRISCVIRQIssueIRQHandlerTrigger,
			LabelRISCVPageTableMap,
			LabelRISCVPageMap,
		)
	case ArchX86_64:
		labels = append(labels,
			LabelX86ASIDPoolAssign,
			LabelX86IRQIssueIRQHandlerIOAPIC,
			LabelX86PDPTMap,
			LabelX86PageDirectoryMap,
			LabelX86PageTableMap,
			LabelX86PageMap,
			LabelX86IOPortControlIssue,
		)
	}
	return labels
}

// MissingLabels returns the required labels absent from the configured
// label table.
func (c *Config) MissingLabels() []InvocationLabel {
	var missing []InvocationLabel
	for _, label := range RequiredLabels(c.Arch) {
		if _, ok := c.InvocationLabels[string(label)]; !ok {
			missing = append(missing, label)
		}
	}
	return missing
}
