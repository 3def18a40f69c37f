package bufrio

import "regexp"

// ahlPattern matches a WMO abbreviated heading line, e.g.
// "ISMD01 EDZW 211200" or "TTAA00 WIEN 211200 RRA": T1T2A1A2ii, CCCC, YYGGgg
// and an optional BBB group starting with A, C or R. The first group is the
// heading itself.
var ahlPattern = regexp.MustCompile(`[^A-Z0-9]*?([A-Z]{4}[0-9]{2} [A-Z]{4} [0-9]{6}(?: [ACR][A-Z]{2})?)[^A-Z0-9]+`)

// findHeader returns the first heading found in b, or "" if there is none.
func findHeader(b []byte) string {
	m := ahlPattern.FindSubmatch(b)
	if m == nil {
		return ""
	}
	return string(m[1])
}
