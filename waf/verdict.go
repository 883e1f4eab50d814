package waf

// Severity grades a block.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alerting reports whether s warrants an external monitoring event.
func (s Severity) Alerting() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// Family names a signature family.
type Family string

const (
	FamilyXSS     Family = "xss"
	FamilySQLi    Family = "sqli"
	FamilyLFI     Family = "lfi"
	FamilyCmdInj  Family = "cmdi"
	FamilyPayload Family = "payload_size"
)

// Verdict is the outcome of Analyze.
type Verdict struct {
	Blocked  bool
	Exempt   bool
	Family   Family
	Severity Severity
	// Location is where the match occurred, e.g. "query.q" or "body.items[2].name".
	Location string
	// Reason is internal detail. Never expose it to the client.
	Reason string
}
