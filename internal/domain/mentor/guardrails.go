package mentor

import "regexp"

// RefusalReply is returned verbatim when a guardrail matches; the model
// is never called for these messages.
const RefusalReply = "I cannot recommend specific stocks or promise returns. I can help you understand investment principles, risk profiling, and how to evaluate assets. Would you like to know about asset allocation or risk management?"

// riskPatterns flag requests for regulated or get-rich-quick advice.
var riskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)buy (.*) stock`),
	regexp.MustCompile(`(?i)invest in (.*) coin`),
	regexp.MustCompile(`(?i)double my money`),
	regexp.MustCompile(`(?i)guaranteed return`),
}

// Blocked reports whether a user message trips the guardrails.
func Blocked(message string) bool {
	for _, p := range riskPatterns {
		if p.MatchString(message) {
			return true
		}
	}
	return false
}
