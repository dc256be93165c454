package model

// Centralized icons for check status in the report and the TUI.
// Single-width characters keep terminal columns aligned.
const (
	IconPass       = "✓"
	IconFail       = "✗"
	IconSkipped    = "○"
	IconDuplicate  = "≈" // class defined by more than one jar
	IconLeak       = "↯" // class leaked onto a platform classpath
	IconSuppressed = "·" // hidden by a burn-down list or grouping rule
)
