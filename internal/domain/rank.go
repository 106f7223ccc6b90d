package domain

import (
	"math"
	"sort"
)

const (
	TitleCaptain     = "Captain"
	TitleViceCaptain = "Vice Captain"
)

var titleRanks = map[string]int{
	TitleCaptain:     1,
	TitleViceCaptain: 2,
}

// TitleRank orders executive-committee titles. Unknown titles share the last rank.
func TitleRank(title string) int {
	if r, ok := titleRanks[title]; ok {
		return r
	}
	return math.MaxInt
}

// IsLeadershipTitle reports whether a title is featured on the public roster.
func IsLeadershipTitle(title string) bool {
	_, ok := titleRanks[title]
	return ok
}

// SortExecutive orders EC members by title rank, then by name (byte-wise).
func SortExecutive(ms []Member) {
	sort.SliceStable(ms, func(i, j int) bool {
		ri, rj := TitleRank(ms[i].ECTitle), TitleRank(ms[j].ECTitle)
		if ri != rj {
			return ri < rj
		}
		return ms[i].Name < ms[j].Name
	})
}

// SortTeam orders team members by name (byte-wise).
func SortTeam(ms []Member) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Name < ms[j].Name
	})
}
