// Package live implements the realtime audio/video chat session core:
// gapless playback scheduling, the capture pipeline, and the session
// manager that drives a bidirectional backend stream.
//
// One Session owns at most one capture pipeline and one backend
// connection at a time. All device and connection handles are created in
// Start and released in Stop; nothing is shared as package state.
package live
