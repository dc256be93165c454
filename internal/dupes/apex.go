package dupes

import (
	"regexp"
	"strings"

	"strictjars/internal/model"
)

// /apex/<name>/... or the versioned /apex/<name>@<version>/...
var apexPathRe = regexp.MustCompile(`^/apex/([^/@]+)(?:@[^/]*)?/`)

// ApexName returns the apex that ships jar, or "" when jar is not inside
// an apex.
func ApexName(jar model.JarPath) string {
	m := apexPathRe.FindStringSubmatch(string(jar))
	if m == nil {
		return ""
	}
	return m[1]
}

// IsApexPath reports whether jar lives under /apex/.
func IsApexPath(jar model.JarPath) bool {
	return strings.HasPrefix(string(jar), "/apex/")
}

// SameApex reports whether every jar is in one and the same apex.
func SameApex(jars []model.JarPath) bool {
	if len(jars) == 0 {
		return false
	}
	name := ApexName(jars[0])
	if name == "" {
		return false
	}
	for _, j := range jars[1:] {
		if ApexName(j) != name {
			return false
		}
	}
	return true
}
