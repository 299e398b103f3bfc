package openapi

import (
	"regexp"
	"strings"
	"unicode"
)

// NamingFunc picks the file name (without extension) for an operation.
type NamingFunc func(op OperationRef) string

const (
	NamingOperationID = "operation-id"
	NamingRoute       = "route"
)

// Naming resolves a configured naming strategy.
func Naming(name string) (NamingFunc, bool) {
	switch name {
	case "", NamingOperationID:
		return NameByOperationID, true
	case NamingRoute:
		return NameByRoute, true
	default:
		return nil, false
	}
}

// NameByOperationID kebab-cases the operationId and falls back to NameByRoute.
func NameByOperationID(op OperationRef) string {
	if name := Slugify(splitCamel(op.OperationID)); name != "" {
		return name
	}
	return NameByRoute(op)
}

var (
	apiPrefix     = regexp.MustCompile(`^/api/`)
	trailingSlash = regexp.MustCompile(`/+$`)
	pathParams    = regexp.MustCompile(`[{}]`)
)

// NameByRoute derives a name from the route for schemas without operationIds:
// /api/user/login POST becomes user-login-post.
func NameByRoute(op OperationRef) string {
	p := apiPrefix.ReplaceAllString(op.Path, "")
	p = trailingSlash.ReplaceAllString(p, "")
	p = strings.TrimLeft(p, "/")
	p = strings.ReplaceAll(p, "/", "-")
	p = pathParams.ReplaceAllString(p, "")
	return p + "-" + strings.ToLower(op.Method)
}

// Slugify lower-cases s and joins runs of letters and digits with dashes.
// Letters outside ASCII are kept.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

func splitCamel(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
