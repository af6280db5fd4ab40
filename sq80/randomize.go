package sq80

import (
	"math/rand"
	"time"
)

var random = rand.New(rand.NewSource(time.Now().UnixNano()))

// Randomize sets every parameter of group to a random value inside its
// UI range and returns the edits in index order. A nil rng uses the
// package source.
func Randomize(p *Patch, group string, rng *rand.Rand) []Edit {
	if rng == nil {
		rng = random
	}

	var edits []Edit
	for _, d := range GroupDescriptors(group) {
		v := d.Min + rng.Intn(d.Max-d.Min+1)
		edits = append(edits, Apply(p, d, v))
	}
	return edits
}
