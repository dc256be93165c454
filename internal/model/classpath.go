package model

import (
	"strings"
)

// JarPath is the on-device location of a jar or apk, e.g.
// /apex/com.android.art/javalib/core-oj.jar.
type JarPath string

// ClassName is a dex type descriptor such as Landroid/foo/Bar;.
type ClassName string

// IsInner reports whether c names a nested class. Nested classes always
// travel with their outer class and are never tracked on their own.
func (c ClassName) IsInner() bool {
	return strings.Contains(string(c), "$")
}

// Classpath names one of the environment variables the platform uses to
// assemble a class loader.
type Classpath string

const (
	BootClasspath         Classpath = "BOOTCLASSPATH"
	SystemServerClasspath Classpath = "SYSTEMSERVERCLASSPATH"
)

// SharedLibrary is one entry of `pm list libraries -v`.
type SharedLibrary struct {
	Name    string    `json:"name"`
	Type    string    `json:"type,omitempty"`  // "builtin", "dynamic", "static", "sdk"
	Version int64     `json:"version"`         // -1 when the library is unversioned
	Paths   []JarPath `json:"paths,omitempty"` // may be empty for native-only libraries
}

// Owns reports whether jar is one of the library's paths.
func (l SharedLibrary) Owns(jar JarPath) bool {
	for _, p := range l.Paths {
		if p == jar {
			return true
		}
	}
	return false
}
