package torrents

import "strings"

// Token tables for the release-title scanner. Order matters inside each
// table: the first match wins, so more specific tokens come first.
var codecTokens = []struct{ token, label string }{
	{"HEVC", "HEVC"},
	{"H265", "HEVC"},
	{"H.265", "HEVC"},
	{"X265", "HEVC"},
	{"H264", "H.264"},
	{"H.264", "H.264"},
	{"X264", "H.264"},
	{"AVC", "H.264"},
	{"XVID", "XviD"},
	{"DIVX", "DivX"},
}

var hdrTokens = []struct{ token, label string }{
	{"DOLBY VISION", "Dolby Vision"},
	{"DV", "Dolby Vision"},
	{"HDR10+", "HDR10+"},
	{"HDR10", "HDR10"},
	{"HDR", "HDR"},
}

var sourceTokens = []struct{ token, label string }{
	{"REMUX", "Remux"},
	{"BLURAY", "BluRay"},
	{"BLU-RAY", "BluRay"},
	{"BDRIP", "BDRip"},
	{"WEB-DL", "WEB-DL"},
	{"WEBDL", "WEB-DL"},
	{"WEBRIP", "WEBRip"},
	{"HDTV", "HDTV"},
}

// QualityDescription scans a release title for codec, HDR format, bit
// depth and source tokens and renders the matches as one line. Titles
// with no recognizable tokens yield "".
func QualityDescription(title string) string {
	upper := strings.ToUpper(title)
	var parts []string

	for _, c := range codecTokens {
		if strings.Contains(upper, c.token) {
			parts = append(parts, c.label)
			break
		}
	}
	for _, h := range hdrTokens {
		if containsToken(upper, h.token) {
			parts = append(parts, h.label)
			break
		}
	}
	if strings.Contains(upper, "10BIT") || strings.Contains(upper, "10-BIT") {
		parts = append(parts, "10bit")
	} else if strings.Contains(upper, "8BIT") || strings.Contains(upper, "8-BIT") {
		parts = append(parts, "8bit")
	}
	for _, src := range sourceTokens {
		if strings.Contains(upper, src.token) {
			parts = append(parts, src.label)
			break
		}
	}

	return strings.Join(parts, " | ")
}

// containsToken matches a token on word boundaries so that "DV" does
// not fire inside words like "DVDRIP" or "XVID".
func containsToken(upper, token string) bool {
	idx := 0
	for {
		i := strings.Index(upper[idx:], token)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(token)
		beforeOK := start == 0 || !isWordChar(upper[start-1])
		afterOK := end == len(upper) || !isWordChar(upper[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
