package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mipssim/r2000/internal/asm"
	"github.com/mipssim/r2000/internal/vm"
)

// userProgram is a minimal main that the kernel's __start stub jumps to: it
// prints a string, then exits. Assembling it together with Units() exercises
// __start -> main resolution across the kernel/user unit boundary.
const userProgram = `
.data
greeting: .asciiz "ok"

.text
.globl main
main:
    la    $a0, greeting
    li    $v0, 4
    syscall
    li    $v0, 10
    syscall
`

func TestRoutinesAssemble(t *testing.T) {
	mem := vm.NewMemory(nil, vm.DefaultBlockSize)

	units := append(Units(), asm.Unit{Name: "user", Source: userProgram})

	p, err := asm.Assemble(mem, units, true)
	require.NoError(t, err)
	require.NotNil(t, p)

	start, ok := p.Global().Get("__start")
	require.True(t, ok)
	require.Equal(t, vm.Word(0x80000000), vm.Word(start))

	main, ok := p.Global().Get("main")
	require.True(t, ok)
	require.Equal(t, vm.Word(0x00400000), vm.Word(main))
}

func TestInterruptTableAddresses(t *testing.T) {
	mem := vm.NewMemory(nil, vm.DefaultBlockSize)

	units := append(Units(), asm.Unit{Name: "user", Source: userProgram})

	_, err := asm.Assemble(mem, units, true)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		v, err := mem.Load(vm.InterruptRouterAddr+vm.Word(i*4), 4)
		require.NoError(t, err)
		require.NotZero(t, v, "slot %d should route to a device ISR", i)
	}

	for i := 3; i < 8; i++ {
		v, err := mem.Load(vm.InterruptRouterAddr+vm.Word(i*4), 4)
		require.NoError(t, err)
		require.Zero(t, v, "unassigned slot %d should be zero", i)
	}
}
