package provisioning

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// entityTypeAliases maps upper-cased spellings to canonical types.
var entityTypeAliases = map[string]EntityType{
	"BRAND":            EntityBrand,
	"CATEGORY":         EntityCategory,
	"UOM":              EntityUnitOfMeasure,
	"UNIT_OF_MEASURE":  EntityUnitOfMeasure,
	"UNITOFMEASURE":    EntityUnitOfMeasure,
	"PRODUCT_TEMPLATE": EntityProductTemplate,
	"PRODUCTTEMPLATE":  EntityProductTemplate,
	"TAX_RULE":         EntityTaxRule,
	"TAXRULE":          EntityTaxRule,
}

// NormalizeEntityType maps a loosely spelled entity type to its canonical form.
// Known aliases are matched case-insensitively. Anything else is returned
// trimmed with its first character upper-cased, so camelCase input passes
// through deterministically. Blank input reports false.
func NormalizeEntityType(raw string) (EntityType, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if t, ok := entityTypeAliases[strings.ToUpper(trimmed)]; ok {
		return t, true
	}
	r, size := utf8.DecodeRuneInString(trimmed)
	return EntityType(string(unicode.ToUpper(r)) + trimmed[size:]), true
}

// NormalizeFieldNames returns a copy of v with every object key converted from
// snake_case to camelCase. Maps and slices are walked recursively, scalars are
// returned as is. Applying it twice yields the same result as applying it once.
func NormalizeFieldNames(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[SnakeToCamel(k)] = NormalizeFieldNames(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = NormalizeFieldNames(child)
		}
		return out
	default:
		return v
	}
}

// NormalizePayload is NormalizeFieldNames for an object payload.
func NormalizePayload(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	return NormalizeFieldNames(data).(map[string]any)
}

// SnakeToCamel converts snake_case to camelCase: every underscore followed by
// a character is replaced by that character upper-cased. Keys without an
// underscore are returned unchanged. A trailing underscore is dropped.
func SnakeToCamel(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}
	var b strings.Builder
	b.Grow(len(key))
	upperNext := false
	for _, r := range key {
		if r == '_' {
			upperNext = true
			continue
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
