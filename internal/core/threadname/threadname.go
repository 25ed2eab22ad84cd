// Package threadname turns division titles into chat thread names.
// Pipeline order
// 1 UTF-8 repair drop invalid bytes
// 2 Unicode NFKC normalization
// 3 Remove control and format chars (ZWJ, ZWNJ, BOM)
// 4 Width fold fullwidth to ASCII
// 5 Collapse every whitespace run, newlines included, to one space and trim
// 6 Clip to MaxRunes
package threadname

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

const (
	// MaxRunes is the longest thread name the platform accepts
	MaxRunes = 100

	// MaxMessageRunes bounds a single chat message
	MaxMessageRunes = 2000

	// Fallback names a thread whose title normalizes to nothing
	Fallback = "Untitled division"
)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Remove(runes.Predicate(func(r rune) bool {
				// keep whitespace controls so step 5 can turn them into spaces
				return unicode.Is(unicode.Cf, r) || (unicode.IsControl(r) && !unicode.IsSpace(r))
			})),
			width.Fold,
		)
	},
}

// Normalize returns the thread name for title
func Normalize(title string) string {
	s := strings.ToValidUTF8(title, "")

	tr := chainPool.Get().(transform.Transformer)
	s, _, _ = transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	s = strings.Join(strings.Fields(s), " ")
	s = Clip(s, MaxRunes)
	if s == "" {
		return Fallback
	}
	return s
}

// Clip cuts s to at most n runes, preferring the last word boundary in the
// final quarter, and marks the cut with an ellipsis
func Clip(s string, n int) string {
	rs := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(rs) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	cut := n - 1
	for i := cut; i > cut*3/4; i-- {
		if rs[i] == ' ' {
			cut = i
			break
		}
	}
	return strings.TrimRight(string(rs[:cut]), " ") + "…"
}
