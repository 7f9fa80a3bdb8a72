// Package quran keeps a reader's juz and page positions consistent.
//
// The mapping uses a flat 20 pages per juz anchored at the first page of
// each juz. 604 pages do not divide evenly into 30 juz, so the two
// directions are not exact inverses: page 150 maps to juz 8, and juz 8 maps
// back to page 141. Everything past page 580 is juz 30.
package quran

import "math"

const (
	TotalJuz    = 30
	TotalPages  = 604
	pagesPerJuz = 20
)

// Position is a paired juz/page bookmark.
type Position struct {
	Juz  int `json:"juz"`
	Page int `json:"page"`
}

// JuzForPage returns the juz containing page. Page 0 means not started.
func JuzForPage(page int) int {
	if page <= 0 {
		return 0
	}
	return min(TotalJuz, (page-1)/pagesPerJuz+1)
}

// PageForJuz returns the first page of juz. Juz 0 means not started.
func PageForJuz(juz int) int {
	if juz <= 0 {
		return 0
	}
	return (juz-1)*pagesPerJuz + 1
}

func ClampPage(page int) int {
	return max(0, min(TotalPages, page))
}

func ClampJuz(juz int) int {
	return max(0, min(TotalJuz, juz))
}

// FromPage handles a page edit: the page is clamped and the juz derived.
func FromPage(page int) Position {
	p := ClampPage(page)
	return Position{Juz: JuzForPage(p), Page: p}
}

// FromJuz handles a juz edit: the juz is clamped and the page derived.
func FromJuz(juz int) Position {
	j := ClampJuz(juz)
	return Position{Juz: j, Page: PageForJuz(j)}
}

// Resolve applies an edit where either field may be absent. When both are
// present the page wins. ok is false when neither is set.
func Resolve(juz, page *int) (pos Position, ok bool) {
	switch {
	case page != nil:
		return FromPage(*page), true
	case juz != nil:
		return FromJuz(*juz), true
	}
	return Position{}, false
}

// Progress is the page position as a whole percentage of the mushaf.
func Progress(page int) int {
	return int(math.Round(float64(ClampPage(page)) / TotalPages * 100))
}

// Delta is the progress made since start. Either field may be negative
// after a downward correction.
func Delta(start, current Position) Position {
	return Position{
		Juz:  current.Juz - start.Juz,
		Page: current.Page - start.Page,
	}
}
