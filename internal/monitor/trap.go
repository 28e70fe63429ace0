package monitor

// trapVectorSource is the kernel's single entry point for every exception:
// interrupts, syscalls, and everything else (spec section 4.11, "A trap
// vector at 0x80000080"). Grounded on original_source/spym/vm/core.py's
// processException and exceptions.py's EXCEPTION_HANDLER text, reimplemented
// as real MIPS assembly run through this simulator's own assembler rather
// than a Python string template.
//
// $k0/$k1 are reserved by convention for the vector's own bookkeeping; $at
// is used directly (.set noat), matching how a real kernel entry point
// exempts itself from the assembler's $at reservation.
//
// Known simplification: Cause.ExcCode is left set across rfe rather than
// explicitly cleared; the next exception overwrites it before it is read
// again, so this is observable only to code that inspects Cause between
// traps, which nothing in this kernel does.
const trapVectorSource = `
.ktext 0x80000080
.set noat
trap_vector:
    la    $k0, kernel_depth
    lw    $k1, 0($k0)
    sll   $k1, $k1, 6
    la    $k0, kernel_stack
    add   $k0, $k0, $k1

    sw    $at, 0($k0)
    sw    $v0, 4($k0)
    sw    $a0, 8($k0)
    sw    $t0, 12($k0)
    sw    $t1, 16($k0)
    sw    $t2, 20($k0)
    sw    $t3, 24($k0)
    sw    $t4, 28($k0)
    sw    $t5, 32($k0)
    sw    $t6, 36($k0)
    sw    $t7, 40($k0)
    sw    $sp, 44($k0)
    sw    $fp, 48($k0)
    sw    $ra, 52($k0)
    mfc0  $t0, EPC
    sw    $t0, 56($k0)
    mfc0  $t0, BadVAddr
    sw    $t0, 60($k0)

    la    $at, kernel_depth
    lw    $t0, 0($at)
    addi  $t0, $t0, 1
    sw    $t0, 0($at)

    mfc0  $t1, Cause
    andi  $t0, $t1, 0x7c
    beq   $t0, $zero, trap_interrupt
    sll   $zero, $zero, 0
    li    $t1, 0x20
    beq   $t0, $t1, trap_syscall
    sll   $zero, $zero, 0
    j     trap_unhandled
    sll   $zero, $zero, 0

trap_syscall:
    move  $t0, $v0
    jal   0x80001000
    sll   $zero, $zero, 0
    j     trap_restore
    sll   $zero, $zero, 0

trap_interrupt:
    mfc0  $t1, Cause
    mfc0  $t2, Status
    li    $t3, 0
ir_scan:
    li    $t4, 1
    sllv  $t5, $t4, $t3
    sll   $t6, $t5, 10
    and   $t7, $t1, $t6
    beq   $t7, $zero, ir_next
    sll   $zero, $zero, 0
    sll   $t6, $t5, 8
    and   $t7, $t2, $t6
    beq   $t7, $zero, ir_next
    sll   $zero, $zero, 0
    j     ir_found
    sll   $zero, $zero, 0
ir_next:
    addi  $t3, $t3, 1
    li    $t4, 8
    bne   $t3, $t4, ir_scan
    sll   $zero, $zero, 0
    j     trap_restore_nobump
    sll   $zero, $zero, 0
ir_found:
    li    $t4, 0x80002000
    sll   $t5, $t3, 2
    add   $t4, $t4, $t5
    lw    $t4, 0($t4)
    beq   $t4, $zero, trap_restore_nobump
    sll   $zero, $zero, 0
    jalr  $t4
    sll   $zero, $zero, 0
    j     trap_restore_nobump
    sll   $zero, $zero, 0

trap_unhandled:
    mfc0  $t0, Cause
    andi  $t0, $t0, 0x7c
    srl   $a0, $t0, 2
    li    $v0, 17
    syscall
    sll   $zero, $zero, 0

trap_restore:
    la    $at, kernel_depth
    lw    $t0, 0($at)
    addi  $t0, $t0, -1
    sw    $t0, 0($at)
    sll   $t1, $t0, 6
    la    $k0, kernel_stack
    add   $k0, $k0, $t1
    lw    $at, 0($k0)
    lw    $v0, 4($k0)
    lw    $a0, 8($k0)
    lw    $t1, 16($k0)
    lw    $t2, 20($k0)
    lw    $t3, 24($k0)
    lw    $t4, 28($k0)
    lw    $t5, 32($k0)
    lw    $t6, 36($k0)
    lw    $t7, 40($k0)
    lw    $sp, 44($k0)
    lw    $fp, 48($k0)
    lw    $ra, 52($k0)
    lw    $k1, 56($k0)
    addi  $k1, $k1, 4
    lw    $t0, 12($k0)
    rfe
    jr    $k1
    sll   $zero, $zero, 0

trap_restore_nobump:
    la    $at, kernel_depth
    lw    $t0, 0($at)
    addi  $t0, $t0, -1
    sw    $t0, 0($at)
    sll   $t1, $t0, 6
    la    $k0, kernel_stack
    add   $k0, $k0, $t1
    lw    $at, 0($k0)
    lw    $v0, 4($k0)
    lw    $a0, 8($k0)
    lw    $t1, 16($k0)
    lw    $t2, 20($k0)
    lw    $t3, 24($k0)
    lw    $t4, 28($k0)
    lw    $t5, 32($k0)
    lw    $t6, 36($k0)
    lw    $t7, 40($k0)
    lw    $sp, 44($k0)
    lw    $fp, 48($k0)
    lw    $ra, 52($k0)
    lw    $k1, 56($k0)
    lw    $t0, 12($k0)
    rfe
    jr    $k1
    sll   $zero, $zero, 0
`
