// Package analysis derives views of finished trajectories, such as phase
// portraits rendered as text.
package analysis
