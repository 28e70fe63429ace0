package monitor

// interruptRouterSource is the table trap_vector consults once it has
// decided an exception is an interrupt: eight words, one per source (spec
// section 4.11), each either zero or the address of a handler that
// acknowledges the device and returns via jr $ra. Source numbers are
// assigned in internal/vm/devices.go (keyboard 0, screen 1, clock 2);
// sources 3..7 are unassigned and route to nothing.
const interruptRouterSource = `
.ktext 0x80002000
interrupt_table:
    .word kbd_isr
    .word scr_isr
    .word clk_isr
    .word 0
    .word 0
    .word 0
    .word 0
    .word 0

kbd_isr:
    li    $t0, 0xFFFF0004
    lw    $t1, 0($t0)
    jr    $ra
    sll   $zero, $zero, 0

scr_isr:
    jr    $ra
    sll   $zero, $zero, 0

clk_isr:
    li    $t0, 0xFFFF0010
    li    $t1, 2
    sw    $t1, 0($t0)
    jr    $ra
    sll   $zero, $zero, 0
`
