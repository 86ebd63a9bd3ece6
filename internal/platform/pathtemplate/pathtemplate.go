// Package pathtemplate fills ":name" placeholders in endpoint paths.
package pathtemplate

import "strings"

// Param is one placeholder substitution. Params are applied in slice order.
type Param struct {
	Name  string
	Value string
}

// P is shorthand for Param{Name: name, Value: value}.
func P(name, value string) Param {
	return Param{Name: name, Value: value}
}

// Expand replaces the first occurrence of ":<Name>" in tmpl with Value for
// each param. Later occurrences of the same placeholder, and placeholders
// with no matching param, are left untouched.
func Expand(tmpl string, params ...Param) string {
	out := tmpl
	for _, p := range params {
		if p.Name == "" {
			continue
		}
		out = strings.Replace(out, ":"+p.Name, p.Value, 1)
	}
	return out
}

// Placeholders lists the placeholder names in tmpl in order of appearance,
// including repeats.
func Placeholders(tmpl string) []string {
	var names []string
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != ':' {
			continue
		}
		j := i + 1
		for j < len(tmpl) && isNameByte(tmpl[j]) {
			j++
		}
		if j > i+1 {
			names = append(names, tmpl[i+1:j])
		}
		i = j - 1
	}
	return names
}

func isNameByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
