package sel4

import (
	"fmt"
	"io"
	"strings"
)

// CapLookup resolves a capability address to the human-readable name the
// allocator assigned to it. It is built incrementally as objects are
// allocated and only ever borrowed here.
type CapLookup map[uint64]string

func (l CapLookup) name(capAddr uint64) string {
	if name, ok := l[capAddr]; ok {
		return name
	}
	return "None"
}

func fmtField(name string, value uint64) string {
	return fmt.Sprintf("         %-20s %d", name, value)
}

func fmtFieldStr(name, value string) string {
	return fmt.Sprintf("         %-20s %s", name, value)
}

func fmtFieldHex(name string, value uint64) string {
	return fmt.Sprintf("         %-20s 0x%x", name, value)
}

func fmtFieldBool(name string, value bool) string {
	return fmt.Sprintf("         %-20s %t", name, value)
}

func fmtFieldReg(reg string, value uint64) string {
	return fmt.Sprintf("%s: 0x%016x", reg, value)
}

func fmtFieldCap(name string, capAddr uint64, capLookup CapLookup) string {
	return fmt.Sprintf("         %-20s 0x%016x (%s)", name+" (cap)", capAddr, capLookup.name(capAddr))
}

// Report renders a human-readable trace of the invocation for the build
// log. Each invocation is formatted explicitly per variant; with only a
// dozen or so operations that beats any reflective scheme.
func (inv *Invocation) Report(w io.Writer, config *Config, capLookup CapLookup) error {
	kind, err := inv.objectKind()
	if err != nil {
		return err
	}
	method, err := inv.methodName()
	if err != nil {
		return err
	}

	var service uint64
	var argStrs []string

	switch args := inv.args.(type) {
	case *UntypedRetype:
		objectType, err := args.ObjectType.Format(config)
		if err != nil {
			return err
		}
		argStrs = append(argStrs, objectType)
		szFmt := "N/A"
		if args.SizeBits != 0 {
			szFmt = fmt.Sprintf("0x%x", uint64(1)<<args.SizeBits)
		}
		argStrs = append(argStrs,
			fmtFieldStr("size_bits", fmt.Sprintf("%d (%s)", args.SizeBits, szFmt)),
			fmtFieldCap("root", args.Root, capLookup),
			fmtField("node_index", args.NodeIndex),
			fmtField("node_depth", args.NodeDepth),
			fmtField("node_offset", args.NodeOffset),
			fmtField("num_objects", args.NumObjects),
		)
		service = args.Untyped
	case *TCBSetSchedParams:
		argStrs = append(argStrs,
			fmtFieldCap("authority", args.Authority, capLookup),
			fmtField("mcp", args.MCP),
			fmtField("priority", args.Priority),
			fmtFieldCap("sched_context", args.SchedContext, capLookup),
			fmtFieldCap("fault_ep", args.FaultEP, capLookup),
		)
		service = args.TCB
	case *TCBSetSpace:
		argStrs = append(argStrs,
			fmtFieldCap("fault_ep", args.FaultEP, capLookup),
			fmtFieldCap("cspace_root", args.CSpaceRoot, capLookup),
			fmtField("cspace_root_data", args.CSpaceRootData),
			fmtFieldCap("vspace_root", args.VSpaceRoot, capLookup),
			fmtField("vspace_root_data", args.VSpaceRootData),
		)
		service = args.TCB
	case *TCBSetIPCBuffer:
		argStrs = append(argStrs,
			fmtFieldHex("buffer", args.Buffer),
			fmtFieldCap("buffer_frame", args.BufferFrame, capLookup),
		)
		service = args.TCB
	case *TCBResume:
		service = args.TCB
	case *TCBWriteRegisters:
		argStrs = append(argStrs,
			fmtFieldBool("resume", args.Resume),
			fmtField("arch_flags", uint64(args.ArchFlags)),
		)
		for i, reg := range args.Regs {
			line := fmtFieldReg(reg.Name, reg.Value)
			if i == 0 {
				argStrs = append(argStrs, fmtFieldStr("regs", line))
			} else {
				argStrs = append(argStrs, "                              "+line)
			}
		}
		service = args.TCB
	case *TCBBindNotification:
		argStrs = append(argStrs, fmtFieldCap("notification", args.Notification, capLookup))
		service = args.TCB
	case *ASIDPoolAssign:
		argStrs = append(argStrs, fmtFieldCap("vspace", args.VSpace, capLookup))
		service = args.ASIDPool
	case *IRQControlGetTrigger:
		argStrs = append(argStrs,
			fmtField("irq", args.IRQ),
			fmtField("trigger", uint64(args.Trigger)),
			fmtFieldCap("dest_root", args.DestRoot, capLookup),
			fmtField("dest_index", args.DestIndex),
			fmtField("dest_depth", args.DestDepth),
		)
		service = args.IRQControl
	case *IRQHandlerSetNotification:
		argStrs = append(argStrs, fmtFieldCap("notification", args.Notification, capLookup))
		service = args.IRQHandler
	case *IOPortControlIssue:
		argStrs = append(argStrs,
			fmtField("addr", args.FirstPort),
			fmtField("size", args.LastPort-args.FirstPort),
			fmtFieldCap("dest_root", args.DestRoot, capLookup),
			fmtField("dest_index", args.DestIndex),
			fmtField("dest_depth", args.DestDepth),
		)
		service = args.IOPortControl
	case *PageUpperDirectoryMap:
		argStrs = append(argStrs,
			fmtFieldCap("vspace", args.VSpace, capLookup),
			fmtFieldHex("vaddr", args.Vaddr),
			fmtField("attr", args.Attr),
		)
		service = args.PageUpperDirectory
	case *PageDirectoryMap:
		argStrs = append(argStrs,
			fmtFieldCap("vspace", args.VSpace, capLookup),
			fmtFieldHex("vaddr", args.Vaddr),
			fmtField("attr", args.Attr),
		)
		service = args.PageDirectory
	case *PageTableMap:
		argStrs = append(argStrs,
			fmtFieldCap("vspace", args.VSpace, capLookup),
			fmtFieldHex("vaddr", args.Vaddr),
			fmtField("attr", args.Attr),
		)
		service = args.PageTable
	case *PageMap:
		argStrs = append(argStrs,
			fmtFieldCap("vspace", args.VSpace, capLookup),
			fmtFieldHex("vaddr", args.Vaddr),
			fmtField("rights", args.Rights),
			fmtField("attr", args.Attr),
		)
		service = args.Page
	case *CNodeCopy:
		argStrs = append(argStrs,
			fmtField("dest_index", args.DestIndex),
			fmtField("dest_depth", args.DestDepth),
			fmtFieldCap("src_root", args.SrcRoot, capLookup),
			fmtFieldCap("src_obj", args.SrcObj, capLookup),
			fmtField("src_depth", args.SrcDepth),
			fmtField("rights", args.Rights),
		)
		service = args.CNode
	case *CNodeMint:
		argStrs = append(argStrs,
			fmtField("dest_index", args.DestIndex),
			fmtField("dest_depth", args.DestDepth),
			fmtFieldCap("src_root", args.SrcRoot, capLookup),
			fmtFieldCap("src_obj", args.SrcObj, capLookup),
			fmtField("src_depth", args.SrcDepth),
			fmtField("rights", args.Rights),
			fmtField("badge", args.Badge),
		)
		service = args.CNode
	case *SchedControlConfigureFlags:
		argStrs = append(argStrs,
			fmtFieldCap("schedcontext", args.SchedContext, capLookup),
			fmtField("budget", args.Budget),
			fmtField("period", args.Period),
			fmtField("extra_refills", args.ExtraRefills),
			fmtField("badge", args.Badge),
			fmtField("flags", args.Flags),
		)
		service = args.SchedControl
	case *ARMVCPUSetTCB:
		argStrs = append(argStrs, fmtFieldCap("tcb", args.TCB, capLookup))
		service = args.VCPU
	default:
		return fmt.Errorf("sel4: internal error: cannot report invocation arguments of type %T", inv.args)
	}

	serviceStr := capLookup.name(service)
	// The sched control capability is not named by the allocator.
	if _, ok := inv.args.(*SchedControlConfigureFlags); ok {
		serviceStr = "None"
	}

	if _, err := fmt.Fprintf(w, "%-20s - %-17s - 0x%016x (%s)\n%s\n",
		kind, method, service, serviceStr, strings.Join(argStrs, "\n")); err != nil {
		return err
	}
	if inv.repeatArgs != nil {
		if _, err := fmt.Fprintf(w, "      REPEAT: count=%d\n", inv.repeatCount); err != nil {
			return err
		}
	}
	return nil
}

// objectKind returns the display label for the kind of kernel object the
// invocation operates on. A label outside the documented set means label
// resolution produced something the reporter does not recognize, which is
// an internal-consistency failure.
func (inv *Invocation) objectKind() (string, error) {
	switch inv.label {
	case LabelUntypedRetype:
		return "Untyped", nil
	case LabelTCBSetSchedParams,
		LabelTCBSetSpace,
		LabelTCBSetIPCBuffer,
		LabelTCBResume,
		LabelTCBWriteRegisters,
		LabelTCBBindNotification:
		return "TCB", nil
	case LabelARMASIDPoolAssign, LabelRISCVASIDPoolAssign, LabelX86ASIDPoolAssign:
		return "ASID Pool", nil
	case LabelARMIRQIssueIRQHandlerTrigger,
		LabelRISCVIRQIssueIRQHandlerTrigger,
		LabelX86IRQIssueIRQHandlerIOAPIC,
		LabelX86IRQIssueIRQHandlerMSI:
		return "IRQ Control", nil
	case LabelIRQSetIRQHandler:
		return "IRQ Handler", nil
	case LabelX86IOPortControlIssue:
		return "I/O Port", nil
	case LabelX86PDPTMap:
		return "Page Upper Directory", nil
	case LabelX86PageDirectoryMap:
		return "Page Directory", nil
	case LabelARMPageTableMap, LabelRISCVPageTableMap, LabelX86PageTableMap:
		return "Page Table", nil
	case LabelARMPageMap, LabelRISCVPageMap, LabelX86PageMap:
		return "Page", nil
	case LabelCNodeCopy, LabelCNodeMint:
		return "CNode", nil
	case LabelSchedControlConfigureFlags:
		return "SchedControl", nil
	case LabelARMVCPUSetTCB:
		return "VCPU", nil
	default:
		return "", fmt.Errorf("sel4: internal error: unexpected label %q when resolving object kind", inv.label)
	}
}

func (inv *Invocation) methodName() (string, error) {
	switch inv.label {
	case LabelUntypedRetype:
		return "Retype", nil
	case LabelTCBSetSchedParams:
		return "SetSchedParams", nil
	case LabelTCBSetSpace:
		return "SetSpace", nil
	case LabelTCBSetIPCBuffer:
		return "SetIPCBuffer", nil
	case LabelTCBResume:
		return "Resume", nil
	case LabelTCBWriteRegisters:
		return "WriteRegisters", nil
	case LabelTCBBindNotification:
		return "BindNotification", nil
	case LabelARMASIDPoolAssign, LabelRISCVASIDPoolAssign, LabelX86ASIDPoolAssign:
		return "Assign", nil
	case LabelARMIRQIssueIRQHandlerTrigger,
		LabelRISCVIRQIssueIRQHandlerTrigger,
		LabelX86IRQIssueIRQHandlerIOAPIC,
		LabelX86IRQIssueIRQHandlerMSI:
		return "Get", nil
	case LabelIRQSetIRQHandler:
		return "SetNotification", nil
	case LabelX86IOPortControlIssue:
		return "Issue", nil
	case LabelARMPageTableMap,
		LabelARMPageMap,
		LabelRISCVPageTableMap,
		LabelRISCVPageMap,
		LabelX86PDPTMap,
		LabelX86PageDirectoryMap,
		LabelX86PageTableMap,
		LabelX86PageMap:
		return "Map", nil
	case LabelCNodeCopy:
		return "Copy", nil
	case LabelCNodeMint:
		return "Mint", nil
	case LabelSchedControlConfigureFlags:
		return "ConfigureFlags", nil
	case LabelARMVCPUSetTCB:
		return "VCPUSetTcb", nil
	default:
		return "", fmt.Errorf("sel4: internal error: unexpected label %q when resolving method name", inv.label)
	}
}
