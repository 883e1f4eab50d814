package waf

import "regexp"

// Signature is one compiled pattern of a family.
type Signature struct {
	Family  Family
	Name    string
	Pattern *regexp.Regexp
}

// SignatureSet holds signatures grouped by family, scanned in Order.
type SignatureSet struct {
	Order    []Family
	Families map[Family][]Signature
}

const shellCommands = `(?:cat|ls|pwd|whoami|id|uname|ps|kill|rm|mv|cp|chmod|chown|curl|wget|nc|ncat|bash|sh|zsh|python|perl|php)`

// DefaultSignatures returns the built-in signature set.
func DefaultSignatures() SignatureSet {
	sig := func(f Family, name, expr string) Signature {
		return Signature{Family: f, Name: name, Pattern: regexp.MustCompile(expr)}
	}
	return SignatureSet{
		Order: []Family{FamilyXSS, FamilySQLi, FamilyLFI, FamilyCmdInj},
		Families: map[Family][]Signature{
			FamilyXSS: {
				sig(FamilyXSS, "script_tag", `(?i)<script[\s>/]`),
				sig(FamilyXSS, "js_uri", `(?i)javascript\s*:`),
				sig(FamilyXSS, "vbs_uri", `(?i)vbscript\s*:`),
				sig(FamilyXSS, "tag_event_handler", `(?i)<[^>]*\son[a-z]+\s*=`),
				sig(FamilyXSS, "event_handler", `(?i)(?:^|["'\s;])on(?:load|error|click|dblclick|mouseover|mouseout|mouseenter|focus|blur|submit|change|input|keydown|keyup|keypress|animationstart|toggle|pageshow)\s*=`),
				sig(FamilyXSS, "embed_tag", `(?i)<(?:iframe|object|embed|applet|base|meta)[\s>/]`),
				sig(FamilyXSS, "eval", `(?i)\beval\s*\(`),
				sig(FamilyXSS, "css_expression", `(?i)\bexpression\s*\(`),
				sig(FamilyXSS, "svg_onload", `(?i)<svg[^>]*onload`),
				sig(FamilyXSS, "img_js", `(?i)<img[^>]*src[^>]*=.*javascript:`),
			},
			FamilySQLi: {
				sig(FamilySQLi, "union_select", `(?i)\bunion\b(?:\s+all|\s+distinct)?\s+select\b`),
				sig(FamilySQLi, "quote_terminator", `'\s*(?:;|--|#|/\*)`),
				sig(FamilySQLi, "quote_boolean", `(?i)'\s*\)?\s*(?:or|and|\|\|)\s+['"\d(]`),
				sig(FamilySQLi, "tautology", `(?i)(?:^|['"\s)])(?:or|and)\s+(?:\d+\s*=\s*\d+|'[^']*'\s*=\s*'|"[^"]*"\s*=\s*"|true\b)`),
				sig(FamilySQLi, "stacked_statement", `(?i);\s*(?:select\s+[\w*,\s]+\s+from\b|insert\s+into\b|update\s+\w+\s+set\b|delete\s+from\b|drop\s+(?:table|database|schema|user|index|view)\b|create\s+(?:table|user|database|function)\b|alter\s+(?:table|user)\b|truncate\s|exec(?:ute)?\s|declare\s+@|shutdown\b)`),
				sig(FamilySQLi, "ddl", `(?i)\b(?:drop|truncate)\s+(?:table|database|schema)\b`),
				sig(FamilySQLi, "insert_shape", `(?i)\binsert\s+into\s+[\w."]+\s*(?:\(|values\b|select\b)`),
				sig(FamilySQLi, "delete_shape", `(?i)\bdelete\s+from\s+[\w."]+\s*(?:where\b|;)`),
				sig(FamilySQLi, "stored_proc", `(?i)\bexec(?:ute)?\s+(?:xp_|sp_)\w+`),
				sig(FamilySQLi, "time_based", `(?i)\b(?:waitfor\s+delay|pg_sleep\s*\(|sleep\s*\(\s*\d+\s*\)|benchmark\s*\()`),
				sig(FamilySQLi, "comment_after_separator", `;\s*(?:--|#|/\*)`),
			},
			FamilyLFI: {
				sig(FamilyLFI, "dot_dot", `(?i)\.\.(?:/|\\|%2f|%5c|%252f)`),
				sig(FamilyLFI, "encoded_dot_dot", `(?i)%2e%2e(?:/|\\|%2f|%5c)`),
				sig(FamilyLFI, "unix_secrets", `(?i)/etc/(?:passwd|shadow|group|hosts)\b`),
				sig(FamilyLFI, "proc_self", `(?i)/proc/self/`),
				sig(FamilyLFI, "win_ini", `(?i)[/\\]windows[/\\]win\.ini`),
				sig(FamilyLFI, "file_uri", `(?i)\bfile://`),
				sig(FamilyLFI, "php_wrapper", `(?i)\bphp://(?:filter|input)`),
			},
			FamilyCmdInj: {
				sig(FamilyCmdInj, "chained_command", `(?i)(?:;|\|\|?|&&)\s*`+shellCommands+`\b`),
				sig(FamilyCmdInj, "subshell", `(?i)(?:\$\(|`+"`"+`)\s*`+shellCommands+`\b`),
				sig(FamilyCmdInj, "exec_function", `(?i)\b(?:system|shell_exec|passthru|popen|proc_open|exec|cmd)\s*\(`),
				sig(FamilyCmdInj, "redirect_system_path", `[<>]\s*/(?:etc|dev|tmp|bin|usr)/`),
			},
		},
	}
}

// Match returns the first signature in s matching value.
func (s SignatureSet) Match(value string) (Signature, bool) {
	for _, f := range s.Order {
		for _, sig := range s.Families[f] {
			if sig.Pattern.MatchString(value) {
				return sig, true
			}
		}
	}
	return Signature{}, false
}

func severityOf(f Family) Severity {
	switch f {
	case FamilySQLi:
		return SeverityCritical
	case FamilyPayload:
		return SeverityMedium
	}
	return SeverityHigh
}
