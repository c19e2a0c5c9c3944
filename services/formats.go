package services

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/vicradon/ytfetch/models"
)

var (
	shorthandRes = regexp.MustCompile(`(\d+)[pP]`)
	dimensionRes = regexp.MustCompile(`(\d+)x(\d+)`)
)

// ResolutionRank orders video formats. "1080p" ranks 1080; "1920x1080" ranks
// by its first number (the width). Anything else ranks 0.
func ResolutionRank(resolution string) int {
	m := shorthandRes.FindStringSubmatch(resolution)
	if m == nil {
		m = dimensionRes.FindStringSubmatch(resolution)
	}
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// FilterKind keeps the formats the backend classified as kind.
func FilterKind(formats []models.Format, kind models.MediaKind) []models.Format {
	out := make([]models.Format, 0, len(formats))
	for _, f := range formats {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

type videoKey struct {
	resolution string
	ext        string
}

// Normalize reduces a raw format list to the rows worth showing: formats
// without a known size are dropped, the rest are ranked best-first and only
// the first of each (resolution, ext) pair survives for video, or of each
// ext for audio. Ties keep input order.
func Normalize(formats []models.Format, kind models.MediaKind) []models.Format {
	sized := make([]models.Format, 0, len(formats))
	for _, f := range formats {
		if f.Size() > 0 {
			sized = append(sized, f)
		}
	}

	if kind == models.MediaAudio {
		sort.SliceStable(sized, func(i, j int) bool {
			return sized[i].Size() > sized[j].Size()
		})

		seen := make(map[string]bool)
		out := make([]models.Format, 0, len(sized))
		for _, f := range sized {
			if seen[f.Ext] {
				continue
			}
			seen[f.Ext] = true
			out = append(out, f)
		}
		return out
	}

	ranks := make(map[string]int)
	rank := func(res string) int {
		r, ok := ranks[res]
		if !ok {
			r = ResolutionRank(res)
			ranks[res] = r
		}
		return r
	}
	sort.SliceStable(sized, func(i, j int) bool {
		ri, rj := rank(sized[i].Resolution), rank(sized[j].Resolution)
		if ri != rj {
			return ri > rj
		}
		return sized[i].Size() > sized[j].Size()
	})

	seen := make(map[videoKey]bool)
	out := make([]models.Format, 0, len(sized))
	for _, f := range sized {
		k := videoKey{f.Resolution, f.Ext}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}
