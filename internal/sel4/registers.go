package sel4

// NamedRegister pairs a register's canonical name with its value. The
// kernel consumes registers positionally, so the order in which these are
// produced is load-bearing.
type NamedRegister struct {
	Name  string
	Value uint64
}

// Riscv64Regs is the RISC-V user register file in the order the kernel's
// TCB_WriteRegisters expects it.
type Riscv64Regs struct {
	PC  uint64
	RA  uint64
	SP  uint64
	GP  uint64
	S0  uint64
	S1  uint64
	S2  uint64
	S3  uint64
	S4  uint64
	S5  uint64
	S6  uint64
	S7  uint64
	S8  uint64
	S9  uint64
	S10 uint64
	S11 uint64
	A0  uint64
	A1  uint64
	A2  uint64
	A3  uint64
	A4  uint64
	A5  uint64
	A6  uint64
	A7  uint64
	T0  uint64
	T1  uint64
	T2  uint64
	T3  uint64
	T4  uint64
	T5  uint64
	T6  uint64
	TP  uint64
}

// Riscv64RegisterCount is the number of registers in the RISC-V file.
const Riscv64RegisterCount = 32

// NamedRegisters returns the register file in canonical order.
func (r Riscv64Regs) NamedRegisters() []NamedRegister {
	return []NamedRegister{
		{"pc", r.PC},
		{"ra", r.RA},
		{"sp", r.SP},
		{"gp", r.GP},
		{"s0", r.S0},
		{"s1", r.S1},
		{"s2", r.S2},
		{"s3", r.S3},
		{"s4", r.S4},
		{"s5", r.S5},
		{"s6", r.S6},
		{"s7", r.S7},
		{"s8", r.S8},
		{"s9", r.S9},
		{"s10", r.S10},
		{"s11", r.S11},
		{"a0", r.A0},
		{"a1", r.A1},
		{"a2", r.A2},
		{"a3", r.A3},
		{"a4", r.A4},
		{"a5", r.A5},
		{"a6", r.A6},
		{"a7", r.A7},
		{"t0", r.T0},
		{"t1", r.T1},
		{"t2", r.T2},
		{"t3", r.T3},
		{"t4", r.T4},
		{"t5", r.T5},
		{"t6", r.T6},
		{"tp", r.TP},
	}
}

// X86_64Regs is the x86-64 user register file in the order the kernel's
// TCB_WriteRegisters expects it.
type X86_64Regs struct {
	RIP    uint64
	RSP    uint64
	RFlags uint64
	RAX    uint64
	RBX    uint64
	RCX    uint64
	RDX    uint64
	RSI    uint64
	RDI    uint64
	RBP    uint64
	R8     uint64
	R9     uint64
	R10    uint64
	R11    uint64
	R12    uint64
	R13    uint64
	R14    uint64
	R15    uint64
	FSBase uint64
	GSBase uint64
}

// X86_64RegisterCount is the number of registers in the x86-64 file.
const X86_64RegisterCount = 20

// NamedRegisters returns the register file in canonical order.
func (r X86_64Regs) NamedRegisters() []NamedRegister {
	return []NamedRegister{
		{"rip", r.RIP},
		{"rsp", r.RSP},
		{"rflags", r.RFlags},
		{"rax", r.RAX},
		{"rbx", r.RBX},
		{"rcx", r.RCX},
		{"rdx", r.RDX},
		{"rsi", r.RSI},
		{"rdi", r.RDI},
		{"rbp", r.RBP},
		{"r8", r.R8},
		{"r9", r.R9},
		{"r10", r.R10},
		{"r11", r.R11},
		{"r12", r.R12},
		{"r13", r.R13},
		{"r14", r.R14},
		{"r15", r.R15},
		{"fs_base", r.FSBase},
		{"gs_base", r.GSBase},
	}
}

// Aarch64Regs is the AArch64 user register file in the order the kernel's
// TCB_WriteRegisters expects it. Note the non-sequential numbering: the
// frame registers (x0-x8, x16-x18, x29, x30) come before the remaining
// general-purpose registers.
type Aarch64Regs struct {
	PC   uint64
	SP   uint64
	SPSR uint64
	X0   uint64
	X1   uint64
	X2   uint64
	X3   uint64
	X4   uint64
	X5   uint64
	X6   uint64
	X7   uint64
	X8   uint64
	X16  uint64
	X17  uint64
	X18  uint64
	X29  uint64
	X30  uint64
	X9   uint64
	X10  uint64
	X11  uint64
	X12  uint64
	X13  uint64
	X14  uint64
	X15  uint64
	X19  uint64
	X20  uint64
	X21  uint64
	X22  uint64
	X23  uint64
	X24  uint64
	X25  uint64
	X26  uint64
	X27  uint64
	X28  uint64

	TpidrEl0   uint64
	TpidrroEl0 uint64
}

// Aarch64RegisterCount is the number of registers in the AArch64 file.
const Aarch64RegisterCount = 36

// NamedRegisters returns the register file in canonical order.
func (r Aarch64Regs) NamedRegisters() []NamedRegister {
	return []NamedRegister{
		{"pc", r.PC},
		{"sp", r.SP},
		{"spsr", r.SPSR},
		{"x0", r.X0},
		{"x1", r.X1},
		{"x2", r.X2},
		{"x3", r.X3},
		{"x4", r.X4},
		{"x5", r.X5},
		{"x6", r.X6},
		{"x7", r.X7},
		{"x8", r.X8},
		{"x16", r.X16},
		{"x17", r.X17},
		{"x18", r.X18},
		{"x29", r.X29},
		{"x30", r.X30},
		{"x9", r.X9},
		{"x10", r.X10},
		{"x11", r.X11},
		{"x12", r.X12},
		{"x13", r.X13},
		{"x14", r.X14},
		{"x15", r.X15},
		{"x19", r.X19},
		{"x20", r.X20},
		{"x21", r.X21},
		{"x22", r.X22},
		{"x23", r.X23},
		{"x24", r.X24},
		{"x25", r.X25},
		{"x26", r.X26},
		{"x27", r.X27},
		{"x28", r.X28},
		{"tpidr_el0", r.TpidrEl0},
		{"tpidrro_el0", r.TpidrroEl0},
	}
}
