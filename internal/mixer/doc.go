// ABOUTME: Software channel mixer package
// ABOUTME: Mixes queued PCM fragments and pulled sources into stereo output
// Package mixer mixes engine channels into a single stereo stream.
//
// A channel is either queue-fed (the track scheduler pushes raw PCM
// fragments each tick) or source-fed (an external stream is pulled on
// demand). Every channel is resampled to the mixer rate, scaled by its
// volume, balance and group volume, and summed in 24-bit range.
//
// A queue-fed channel stays active until it is stopped, or until it has
// been finished and its queue has drained.
//
// Example:
//
//	m := mixer.New(22050, logger)
//	id := m.OpenChannel(format, groupMusic)
//	m.Queue(id, pcm)
//	go m.Run(ctx, out, 1024)
package mixer
