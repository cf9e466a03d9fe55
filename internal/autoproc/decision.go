// Package autoproc re-processes clipped notes on a schedule: it scans a
// watched vault folder, re-fetches each note's source article through the
// transformation engine, and merges the fetched content when it outweighs
// what is already stored.
package autoproc

// Decide is the ratio gate for re-processing a previously clipped note.
// A note already marked processed stays processed regardless of lengths.
// Otherwise the fetched content length must reach minRatio times the
// existing body length; an empty existing body degenerates the ratio to
// the raw fetched length. The threshold is inclusive.
func Decide(alreadyProcessed bool, existingLen, fetchedLen int, minRatio float64) bool {
	if alreadyProcessed {
		return false
	}
	ratio := float64(fetchedLen)
	if existingLen > 0 {
		ratio = float64(fetchedLen) / float64(existingLen)
	}
	return ratio >= minRatio
}
