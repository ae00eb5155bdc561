package pointcut

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// compilePattern turns an execution()/within() pattern into an anchored
// regexp, substituting "*" with ".*" and ".." with ".*" (§4.3 "Pattern
// conversion") while escaping every other regex metacharacter so a
// literal "." in "service.greet" matches only a literal dot. Whitespace
// in the pattern matches optional whitespace, so the leading "* " of
// "* service.greet(..)" matches a FuncString that has no return-type
// prefix.
//
// regexp2 (rather than the standard library's regexp) is used here and
// throughout the matcher components because it is already part of this
// module's dependency graph (pulled in transitively by the goja
// embeddings elsewhere in the wider codebase) and its backtracking
// engine accepts patterns RE2 structurally rejects.
func compilePattern(pat string) (*regexp2.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')

	for i := 0; i < len(pat); i++ {
		if pat[i] == '.' && i+1 < len(pat) && pat[i+1] == '.' {
			b.WriteString(".*")
			i++
			continue
		}

		c := pat[i]
		if c == ' ' || c == '\t' {
			b.WriteString(`\s*`)
			continue
		}
		if c == '*' {
			b.WriteString(".*")
			continue
		}

		if strings.IndexByte(regexMeta, c) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	b.WriteByte('$')
	return regexp2.Compile(b.String(), regexp2.None)
}

const regexMeta = ".+?()[]{}^$|\\"

func matchPattern(re *regexp2.Regexp, s string) bool {
	ok, _ := re.MatchString(s)
	return ok
}
