package monitor

// startSource is the default startup stub, __start, laid out just below the
// trap vector (spec section 4.11). It loads argc/argv/envp from the stack
// frame the engine prepares at startup, jumps to the user's main, and exits
// via syscall 10 if main ever returns.
const startSource = `
.ktext 0x80000000
.globl __start
__start:
    lw    $a0, 0($sp)
    addi  $a1, $sp, 4
    li    $a2, 0
    la    $t0, main
    jalr  $t0
    sll   $zero, $zero, 0
    li    $v0, 10
    syscall
`
