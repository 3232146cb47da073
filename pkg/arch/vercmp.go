package arch

import "strings"

// Vercmp compares two package versions of the form [epoch:]version[-release]
// and returns -1, 0 or 1. Ordering matches pacman's vercmp: epochs compare
// first, then versions segment by segment, and releases only when both
// sides carry one, so "1.0" equals "1.0-5".
func Vercmp(a, b string) int {
	if a == b {
		return 0
	}
	ea, va, ra := parseEVR(a)
	eb, vb, rb := parseEVR(b)

	if c := rpmvercmp(ea, eb); c != 0 {
		return c
	}
	if c := rpmvercmp(va, vb); c != 0 {
		return c
	}
	if ra != "" && rb != "" {
		return rpmvercmp(ra, rb)
	}
	return 0
}

func parseEVR(s string) (epoch, version, release string) {
	epoch = "0"
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == ':' {
		if i > 0 {
			epoch = s[:i]
		}
		s = s[i+1:]
	}
	if j := strings.LastIndexByte(s, '-'); j >= 0 {
		return epoch, s[:j], s[j+1:]
	}
	return epoch, s, ""
}

// rpmvercmp compares alternating alphabetic and numeric segments. Numeric
// segments beat alphabetic ones, and a trailing alphabetic segment sorts
// before the end of the string, so "1.0alpha" < "1.0" < "1.0.1".
func rpmvercmp(a, b string) int {
	if a == b {
		return 0
	}
	one, two := 0, 0
	for one < len(a) && two < len(b) {
		p1, p2 := one, two
		for one < len(a) && !isAlnum(a[one]) {
			one++
		}
		for two < len(b) && !isAlnum(b[two]) {
			two++
		}
		if one >= len(a) || two >= len(b) {
			break
		}
		if sep1, sep2 := one-p1, two-p2; sep1 != sep2 {
			if sep1 < sep2 {
				return -1
			}
			return 1
		}

		p1, p2 = one, two
		numeric := isDigit(a[p1])
		if numeric {
			for one < len(a) && isDigit(a[one]) {
				one++
			}
			for two < len(b) && isDigit(b[two]) {
				two++
			}
		} else {
			for one < len(a) && isAlpha(a[one]) {
				one++
			}
			for two < len(b) && isAlpha(b[two]) {
				two++
			}
		}

		seg1, seg2 := a[p1:one], b[p2:two]
		if seg2 == "" {
			// segments of different kinds: numeric wins
			if numeric {
				return 1
			}
			return -1
		}
		if numeric {
			seg1 = strings.TrimLeft(seg1, "0")
			seg2 = strings.TrimLeft(seg2, "0")
			if len(seg1) != len(seg2) {
				if len(seg1) > len(seg2) {
					return 1
				}
				return -1
			}
		}
		if c := strings.Compare(seg1, seg2); c != 0 {
			return c
		}
	}

	rest1, rest2 := a[one:], b[two:]
	if rest1 == "" && rest2 == "" {
		return 0
	}
	if (rest1 == "" && !isAlpha(rest2[0])) || (rest1 != "" && isAlpha(rest1[0])) {
		return -1
	}
	return 1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }
