package runner

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Substitute replaces every {KEY} token whose key is in inputs with its
// value. Any declared key is matched literally, including keys with spaces.
// Unknown tokens are left verbatim. The replacement is a single pass, so
// values are not rescanned and a second pass over the result changes nothing
// as long as no value itself contains a known token.
func Substitute(text string, inputs map[string]string) string {
	if len(inputs) == 0 || text == "" {
		return text
	}

	keys := lo.Keys(inputs)
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", inputs[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
