// ABOUTME: Music director package
// ABOUTME: Drives the scheduler's music tracks from game state and sequence ids
// Package music maps game music states and sequences to scheduler calls.
//
// States describe the ambient music of a location; sequences are short
// cues that override the state music while they play. Each table entry
// names a transition type that decides whether the new music crossfades,
// restarts at the old position, only changes the hook of the playing
// music, or waits for the next exit marker.
package music
