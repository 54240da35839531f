// Package viz replays a finished yo-yo trajectory in the terminal.
//
// [Replay] is a Bubble Tea model that draws the yo-yo on a Braille
// [Canvas]: the string hangs from a fixed hand and the body spins by the
// recorded angle. Playback follows simulation time.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart
//	[ ]   - Step one sample back/forward (pauses)
//	+ -   - Playback speed
//	Q     - Quit
package viz
