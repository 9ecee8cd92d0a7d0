// Package hostproc is the single seam through which singalong reads another
// process's memory.
//
// Every raw address dereference goes through a MemoryReader; the helpers in
// this package perform the null and bounds checks and hand back owned value
// copies, so decoding code never holds a pointer into foreign memory. Process
// implements MemoryReader for a live Linux process using process_vm_readv,
// and Snapshot implements it over captured byte regions for tests and
// offline diagnostics.
package hostproc
