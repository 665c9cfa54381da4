package rules

import "regexp"

// Class separates rules that inspect file names from rules that inspect
// file content.
type Class string

const (
	ClassFilename Class = "filename"
	ClassContent  Class = "content"
)

// Rule is one entry of an ordered rule table. ID is the pattern text and is
// what findings record.
type Rule struct {
	ID          string
	Class       Class
	Description string
	// Sensitive marks content rules whose match body is itself likely to be
	// secret material.
	Sensitive bool
	re        *regexp.Regexp
}

// Match is the first content rule hit together with its byte span in the
// searched text.
type Match struct {
	Rule  Rule
	Start int
	End   int
}

// Pattern texts double as rule IDs.
const (
	KeystorePattern = `"crypto"\s*:`
	AddressPattern  = `"address"\s*:`
	HexKeyPattern   = `[a-f0-9]{64}\b`
	PhrasePattern   = `[a-z]+(\s+[a-z]+){11,24}`
)

func newRule(class Class, pattern, desc string, sensitive bool) Rule {
	return Rule{
		ID:          pattern,
		Class:       class,
		Description: desc,
		Sensitive:   sensitive,
		re:          regexp.MustCompile(`(?i)` + pattern),
	}
}

var filenameRules = []Rule{
	newRule(ClassFilename, `wallet`, "wallet file name", false),
	newRule(ClassFilename, `keystore`, "keystore file name", false),
	newRule(ClassFilename, `mnemonic`, "mnemonic backup file name", false),
	newRule(ClassFilename, `seed`, "seed backup file name", false),
	newRule(ClassFilename, `private.*key`, "private key file name", false),
	newRule(ClassFilename, `ethereum`, "ethereum artifact file name", false),
	newRule(ClassFilename, `btc`, "bitcoin artifact file name", false),
}

// Priority order matters: structural markers win over secret-shaped runs.
var contentRules = []Rule{
	newRule(ClassContent, KeystorePattern, "JSON keystore crypto section", false),
	newRule(ClassContent, AddressPattern, "JSON address field", false),
	newRule(ClassContent, HexKeyPattern, "64 hex characters (raw private key)", true),
	newRule(ClassContent, PhrasePattern, "12-25 word phrase (seed phrase)", true),
}

// Content rule IDs written by earlier scanners. They map onto the current
// table so previously produced streams classify the same way.
var legacyContentIDs = map[string]string{
	`(?:(?:[a-f0-9]{64})\b)`:     HexKeyPattern,
	`\b[a-f0-9]{64}\b`:           HexKeyPattern,
	`[a-f0-9]{64}`:               HexKeyPattern,
	`([a-z]+(\s+[a-z]+){11,24})`: PhrasePattern,
	`"crypto"\s*:`:               KeystorePattern,
	`"address"\s*:`:              AddressPattern,
}

// MatchFilename tests the base name of a file against the filename table and
// returns the first rule that matches.
func MatchFilename(name string) (Rule, bool) {
	for _, r := range filenameRules {
		if r.re.MatchString(name) {
			return r, true
		}
	}
	return Rule{}, false
}

// MatchContent tests text against the content table in priority order and
// stops at the first rule that matches.
func MatchContent(text string) (Match, bool) {
	for _, r := range contentRules {
		if loc := r.re.FindStringIndex(text); loc != nil {
			return Match{Rule: r, Start: loc[0], End: loc[1]}, true
		}
	}
	return Match{}, false
}

// FilenameRules returns a copy of the filename table in evaluation order.
func FilenameRules() []Rule { return append([]Rule(nil), filenameRules...) }

// ContentRules returns a copy of the content table in evaluation order.
func ContentRules() []Rule { return append([]Rule(nil), contentRules...) }

// LookupContentRule resolves a content rule ID, including IDs recorded by
// earlier scanner versions.
func LookupContentRule(id string) (Rule, bool) {
	if canonical, ok := legacyContentIDs[id]; ok {
		id = canonical
	}
	for _, r := range contentRules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}
