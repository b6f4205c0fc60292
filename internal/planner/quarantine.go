package planner

import (
	"path/filepath"
	"strconv"
	"strings"
)

const chosenPrefix = "chosen_"

// QuarantineNames returns the pair of file names used for collision n: the
// existing claim is stored as "chosen_<n><ext>", the newcomer as "<n><ext>".
func QuarantineNames(n int, ext string) (chosen, candidate string) {
	idx := strconv.Itoa(n)
	return chosenPrefix + idx + ext, idx + ext
}

// ParseQuarantineName extracts the collision index from a quarantine entry.
// It accepts file names produced by QuarantineNames and bare numbered
// directories from older layouts.
func ParseQuarantineName(name string) (index int, chosen bool, ok bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if rest, found := strings.CutPrefix(stem, chosenPrefix); found {
		stem = rest
		chosen = true
	}
	n, err := strconv.Atoi(stem)
	if err != nil || n < 1 || strconv.Itoa(n) != stem {
		return 0, false, false
	}
	return n, chosen, true
}
