package llm

import (
	"regexp"
	"strings"
)

// Sanitizer redacts credentials from text before it leaves the machine.
type Sanitizer struct {
	rules []redaction
}

type redaction struct {
	name string
	re   *regexp.Regexp
	repl string
}

func rule(name, pattern, repl string) redaction {
	return redaction{name: name, re: regexp.MustCompile(pattern), repl: repl}
}

// NewSanitizer returns a Sanitizer with the built-in credential rules.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{rules: []redaction{
		rule("private key", `-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----[\s\S]*?-----END\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`, `[REDACTED_PRIVATE_KEY]`),
		rule("jwt", `eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`, `[REDACTED_JWT]`),
		rule("bearer token", `(?i)bearer\s+[a-zA-Z0-9_\-\.=]+`, `Bearer [REDACTED_TOKEN]`),
		rule("aws access key", `\b(AKIA|ABIA|ACCA|ASIA)[A-Z0-9]{16}\b`, `[REDACTED_AWS_KEY]`),
		rule("github token", `gh[pousr]_[a-zA-Z0-9]{36}`, `[REDACTED_GITHUB_TOKEN]`),
		rule("slack token", `xox[baprs]-[a-zA-Z0-9-]+`, `[REDACTED_SLACK_TOKEN]`),
		rule("perplexity key", `pplx-[a-zA-Z0-9]{20,}`, `[REDACTED_API_KEY]`),
		rule("connection string", `(?i)(mongodb(?:\+srv)?|postgres(?:ql)?|mysql|redis|amqp)://[^:/\s]+:[^@\s]+@`, `$1://[user]:[REDACTED]@`),
		rule("env assignment", `(?i)\b(export\s+)?([A-Z0-9_]*(?:API_KEY|SECRET|PASSWORD|TOKEN|PRIVATE_KEY))=["']?[^\s"']+["']?`, `$1$2=[REDACTED]`),
		rule("api key", `(?i)(api[_-]?key)\s*[=:]\s*["']?[a-zA-Z0-9_\-]{16,}["']?`, `$1=[REDACTED_API_KEY]`),
		rule("password", `(?i)\b(password|passwd|pwd|secret)\s*[=:]\s*["']?[^\s"']{6,}["']?`, `$1=[REDACTED]`),
	}}
}

// Sanitize replaces every match of every rule.
func (s *Sanitizer) Sanitize(input string) string {
	for _, r := range s.rules {
		input = r.re.ReplaceAllString(input, r.repl)
	}
	return input
}

// Report sanitizes input and names the rules that fired.
func (s *Sanitizer) Report(input string) (string, []string) {
	var fired []string
	for _, r := range s.rules {
		if r.re.MatchString(input) {
			fired = append(fired, r.name)
			input = r.re.ReplaceAllString(input, r.repl)
		}
	}
	return input, fired
}

func (s *Sanitizer) ContainsSecrets(input string) bool {
	for _, r := range s.rules {
		if r.re.MatchString(input) {
			return true
		}
	}
	return false
}

var defaultSanitizer = NewSanitizer()

// Truncate keeps the head and tail of input so that the result fits maxLen.
func Truncate(input string, maxLen int) string {
	const marker = "\n...[truncated]...\n"
	if maxLen <= 0 || len(input) <= maxLen {
		return input
	}
	if maxLen <= len(marker) {
		return input[:maxLen]
	}
	half := (maxLen - len(marker)) / 2
	return input[:half] + marker + input[len(input)-half:]
}

// PrepareForLLM sanitizes and trims text bound for a model prompt. A
// non-positive maxLen disables truncation.
func PrepareForLLM(input string, maxLen int) string {
	return strings.TrimSpace(Truncate(defaultSanitizer.Sanitize(input), maxLen))
}
