// Package memscan locates code and data in a copy of a host executable's
// text region using byte signatures with wildcards.
//
// Signatures are written the way disassemblers print them, e.g.
// "48 8B 05 ?? ?? ?? ?? 48 85 C0". A Resolver answers two questions about a
// signature: where the matched instruction (or the target of a matched
// call/jmp) lives, and which static address a RIP-relative operand inside the
// match refers to. The package never touches live memory; callers provide an
// Image copied out of the host beforehand.
package memscan
