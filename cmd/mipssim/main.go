// Command mipssim is the external front end for the R2000 simulator: a
// small cobra command tree (run, asm, disasm, help) with viper-backed
// flag/env binding, mirroring rcornwell-S370's cmd/ layout. It is the only
// package in this module that imports cobra or viper; everything it does
// is implemented by internal/cli/cmd, which stays on the standard flag
// package so the simulator's core never depends on a CLI framework.
package main

import "os"

func main() {
	os.Exit(execute())
}
