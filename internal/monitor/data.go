package monitor

import "github.com/mipssim/r2000/internal/vm"

// kernelDataOrigin is where the kernel's re-entrancy save area and scratch
// buffers live, at the base of kernel_data (spec section 4.3).
const kernelDataOrigin = vm.Word(0x90000000)

// kernelDataSource lays out the trap vector's re-entrancy stack: a depth
// counter and three 64-byte save frames (spec section 9, "re-entrant kernel
// save stack of fixed depth, three levels, 192 bytes", carried from
// original_source/spym/vm/exceptions.py's __register_storage), plus a small
// scratch buffer the syscall handler uses to format print_int's argument.
const kernelDataSource = `
.kdata 0x90000000
.globl kernel_depth
.globl kernel_stack
.globl print_buf
kernel_depth: .word 0
kernel_stack: .space 192
print_buf:    .space 16
`
