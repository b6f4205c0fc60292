package planner

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"photodistributor/internal/media"
)

// ErrRenameLimit reports that no free enumerated name was found within the
// configured number of attempts.
var ErrRenameLimit = errors.New("rename attempts exhausted")

// Claims maps file names in one target directory to the descriptor that owns
// them. Names are compared in Unicode NFC so composed and decomposed spellings
// of the same name collide.
type Claims struct {
	owners map[string]*media.File
}

// NewClaims returns an empty claims map.
func NewClaims() *Claims {
	return &Claims{owners: make(map[string]*media.File)}
}

func claimKey(name string) string {
	return norm.NFC.String(name)
}

// Claim records owner for name and reports whether the name was free. An
// existing claim is never replaced.
func (c *Claims) Claim(name string, owner *media.File) bool {
	key := claimKey(name)
	if _, taken := c.owners[key]; taken {
		return false
	}
	c.owners[key] = owner
	return true
}

// Owner returns the descriptor holding name.
func (c *Claims) Owner(name string) (*media.File, bool) {
	owner, ok := c.owners[claimKey(name)]
	return owner, ok
}

// Len reports the number of claimed names.
func (c *Claims) Len() int {
	return len(c.owners)
}

// Outcome is the resolver's decision for one file.
type Outcome int

const (
	// OutcomeAdopt means the file takes Resolution.Name.
	OutcomeAdopt Outcome = iota + 1
	// OutcomeDuplicate means an identical file already holds the name.
	OutcomeDuplicate
	// OutcomeQuarantine means a different file with the same capture time
	// holds the name; both go to quarantine.
	OutcomeQuarantine
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdopt:
		return "adopt"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeQuarantine:
		return "quarantine"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Resolution describes how a file was placed.
type Resolution struct {
	Outcome Outcome
	// Name is the adopted file name, or the contested name for duplicates and
	// quarantines.
	Name string
	// Claimant is the current owner of Name for duplicates and quarantines.
	Claimant *media.File
	// Renames counts enumeration steps taken before the outcome.
	Renames int
}

// Resolve decides the fate of file against claims. An adopted name is claimed
// for file before returning; other outcomes leave claims unchanged.
// maxAttempts bounds the number of enumerated renames.
func Resolve(file *media.File, claims *Claims, maxAttempts int) (Resolution, error) {
	initial := file.Stem()
	ext := file.Ext()
	current := initial

	for renames := 0; renames <= maxAttempts; renames++ {
		name := current + ext
		owner, taken := claims.Owner(name)
		if !taken {
			claims.Claim(name, file)
			return Resolution{Outcome: OutcomeAdopt, Name: name, Renames: renames}, nil
		}
		if owner.Captured.Equal(file.Captured) {
			same, err := sameSize(owner, file)
			if err != nil {
				return Resolution{}, err
			}
			outcome := OutcomeQuarantine
			if same {
				outcome = OutcomeDuplicate
			}
			return Resolution{Outcome: outcome, Name: name, Claimant: owner, Renames: renames}, nil
		}
		next, err := NextName(initial, current)
		if err != nil {
			return Resolution{}, err
		}
		current = next
	}
	return Resolution{}, fmt.Errorf("%s: %w after %d attempts", file.Path, ErrRenameLimit, maxAttempts)
}

func sameSize(a, b *media.File) (bool, error) {
	sa, err := a.Size()
	if err != nil {
		return false, err
	}
	sb, err := b.Size()
	if err != nil {
		return false, err
	}
	return sa == sb, nil
}

// NextName returns the enumerated successor of current. The first step appends
// "_1" to the original stem; later steps increment the trailing number, so
// "IMG" becomes "IMG_1", "IMG_2" and an original "IMG_1" becomes "IMG_1_1",
// "IMG_1_2".
func NextName(initial, current string) (string, error) {
	if current == initial {
		return current + "_1", nil
	}
	idx := strings.LastIndex(current, "_")
	if idx < 0 {
		return "", fmt.Errorf("enumerated name %q has no counter", current)
	}
	n, err := strconv.Atoi(current[idx+1:])
	if err != nil {
		return "", fmt.Errorf("enumerated name %q: %w", current, err)
	}
	return current[:idx+1] + strconv.Itoa(n+1), nil
}

// EnumeratedFrom reports whether name is original itself or one of the names
// Resolve could have given a file called original ("IMG_1.jpg" and
// "IMG_12.jpg" for "IMG.jpg"). Names compare in NFC.
func EnumeratedFrom(name, original string) bool {
	name, original = claimKey(name), claimKey(original)
	ext := filepath.Ext(original)
	if filepath.Ext(name) != ext {
		return false
	}
	stem := strings.TrimSuffix(name, ext)
	origStem := strings.TrimSuffix(original, ext)
	if stem == origStem {
		return true
	}
	counter, ok := strings.CutPrefix(stem, origStem+"_")
	if !ok || counter == "" {
		return false
	}
	for _, r := range counter {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
