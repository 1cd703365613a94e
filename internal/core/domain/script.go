package domain

// GeneratedScript is an executable browser-automation script synthesised for
// one test case. It is returned to the caller and not persisted.
type GeneratedScript struct {
	// TestCaseID is the test case the script was derived from.
	TestCaseID string `json:"test_case_id"`

	// Code is the script text (Python Selenium with explicit waits).
	Code string `json:"code"`

	// Selectors are the locator strings the script references. Every one
	// of them was verified against the markup evidence retrieved for this
	// synthesis; a script with an unverifiable selector is never returned.
	Selectors []string `json:"selectors"`

	// SourceFilenames lists the markup files the selectors resolved against.
	SourceFilenames []string `json:"source_filenames"`
}
