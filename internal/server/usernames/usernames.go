// Package usernames derives login handles for applicants from their names
// and the application round.
//
// A handle is the ASCII-folded first and last name followed by the round
// name and, on collision, an "_N" counter: "boek2009", "boek2009_2".
// Handles never exceed common.MaxUsernameLength characters; the name part is
// truncated so the round and counter survive intact.
package usernames

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/candidates/internal/common"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxAttempts bounds the collision probe in Unique.
const MaxAttempts = 10000

// RemoveDiacritics decomposes s (NFKD) and drops the combining marks, so
// "Järvinen" becomes "Jarvinen". Case is preserved.
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Slugify lowercases s and removes its diacritics.
func Slugify(s string) string {
	return RemoveDiacritics(strings.ToLower(s))
}

// Usernameize slugifies s and keeps only ASCII letters, digits and
// underscores, dropping spaces, apostrophes, hyphens and any letter that
// has no ASCII decomposition.
func Usernameize(s string) string {
	var b strings.Builder
	for _, r := range Slugify(s) {
		if isWordRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// Generate builds the login handle for the given names and round. n > 0
// appends the "_n" disambiguation suffix; n <= 0 means no counter.
func Generate(firstName, lastName, roundName string, n int) string {
	suffix := ""
	if n > 0 {
		suffix = "_" + strconv.Itoa(n)
	}

	maxNameLen := common.MaxUsernameLength - len(roundName) - len(suffix)
	if maxNameLen < 0 {
		maxNameLen = 0
	}

	// Usernameize output is ASCII, so byte truncation is rune-safe.
	name := Usernameize(firstName) + Usernameize(lastName)
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	return name + roundName + suffix
}

// ExistsFunc reports whether a handle is already in use.
type ExistsFunc func(ctx context.Context, username string) (bool, error)

// Unique probes Generate without a counter, then with counters 2, 3, ...
// until exists reports a free handle. It gives up with
// common.ErrUsernameExhausted after MaxAttempts probes.
func Unique(ctx context.Context, firstName, lastName, roundName string, exists ExistsFunc) (string, error) {
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		n := 0
		if attempt > 1 {
			n = attempt
		}
		candidate := Generate(firstName, lastName, roundName, n)

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("error checking username %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %d attempts for round %s", common.ErrUsernameExhausted, MaxAttempts, roundName)
}
