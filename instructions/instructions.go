// Package instructions names the small, fixed pieces of the System V
// AMD64 calling convention the code generator has to walk in order:
// which general-purpose register holds the Nth integer/pointer
// argument, and which register holds a function's return value.
//
// The generator walks straight over the typed AST without lowering to
// an intermediate form first - there is no separate instruction-stream
// pass - so what used to be a per-operator instruction enum here now
// just enumerates the ABI's argument-register assignment, the one
// other place this compiler needs a small ordered table of named
// constants.
package instructions

// Register is the name of a general-purpose x86-64 register, as it
// appears in Intel-syntax assembly.
type Register string

// ArgRegisters holds the SysV AMD64 integer/pointer argument registers,
// in calling-convention order. This subset never passes more than six
// arguments; a call with more is a compile-time error.
var ArgRegisters = []Register{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// ReturnRegister holds an integer or pointer return value.
const ReturnRegister Register = "rax"

// MaxRegisterArgs is the number of arguments this subset can pass in
// registers; SysV would spill the rest to the stack, which this
// compiler does not implement.
var MaxRegisterArgs = len(ArgRegisters)
