package authz

import "strings"

// MatchPath checks if an Ant-style pattern matches a request path.
// Patterns are split on "/" and compared segment by segment:
//
//   - "**"   matches zero or more whole segments
//   - "*"    matches exactly one segment
//   - "a*"   matches one segment with the given prefix or suffix around "*"
//   - "auth" matches only the literal segment
//
// A trailing slash on the path is ignored.
func MatchPath(pattern, path string) bool {
	return matchSegments(split(pattern), split(path))
}

func split(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchSegments(pat, segs []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			// Collapse consecutive "**".
			for len(pat) > 0 && pat[0] == "**" {
				pat = pat[1:]
			}
			if len(pat) == 0 {
				return true
			}
			for i := 0; i <= len(segs); i++ {
				if matchSegments(pat, segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 || !matchWildcard(pat[0], segs[0]) {
			return false
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0
}

// matchWildcard compares a single segment where "*" matches any run of characters.
func matchWildcard(pattern, value string) bool {
	if pattern == "*" || pattern == value {
		return true
	}
	i := strings.IndexByte(pattern, '*')
	if i < 0 {
		return false
	}
	prefix, rest := pattern[:i], pattern[i+1:]
	if !strings.HasPrefix(value, prefix) {
		return false
	}
	value = value[len(prefix):]
	if !strings.Contains(rest, "*") {
		return strings.HasSuffix(value, rest)
	}
	for j := 0; j <= len(value); j++ {
		if matchWildcard(rest, value[j:]) {
			return true
		}
	}
	return false
}
