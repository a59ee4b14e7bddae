// ABOUTME: Track scheduler package for the digital music engine
// ABOUTME: Drives tracks through regions, jumps, triggers and fades on a fixed tick
// Package imuse schedules playback tracks.
//
// An Engine owns a fixed pool of live tracks, each paired with a shadow
// track used to let old audio fade out while the live slot moves on. A
// periodic tick walks every used track: it steps volume fades, pulls the
// next slice of region data from the sound manager, queues it to the
// track's mixer channel, and switches regions when one ends. Region
// switches honour one-shot triggers and hook-selected jumps.
//
// Every operation takes the engine lock, and a tick holds it for the whole
// pass over the track table.
package imuse
