// Package bgm reads the host's background-music scene table and reports which
// track is audible.
//
// The host keeps a fixed array of scene slots, each naming the track that a
// game system (zone, cutscene, duty, ...) wants played. Slots are ordered by
// priority, so the first slot that references a real track is the one the
// player hears. Addresses for the table are resolved once from byte
// signatures; after that each poll performs two pointer reads and one block
// copy through a hostproc.MemoryReader.
package bgm
