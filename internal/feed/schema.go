// Package feed fetches raw metric records and maps them onto domain records.
package feed

import (
	"sort"
	"strings"

	"trendbuild/internal/domain"
)

// Attribute is one logical field of a metric record.
type Attribute string

const (
	AttrURL       Attribute = "url"
	AttrShares    Attribute = "shares"
	AttrLikes     Attribute = "likes"
	AttrViews     Attribute = "views"
	AttrCreatedAt Attribute = "created_at"
	AttrCaption   Attribute = "caption"
	AttrAuthor    Attribute = "author"
)

// Field lists the candidate keys for an attribute in priority order.
// Keys containing "." are paths into nested objects; other keys are looked up
// in the flattened record. The first present, non-empty value wins.
type Field struct {
	Keys    []string
	Default any
}

// Schema maps each attribute to its candidate keys.
type Schema map[Attribute]Field

// DefaultSchema returns the field table for the scraper's dataset items.
func DefaultSchema() Schema {
	return Schema{
		AttrURL:       {Keys: []string{"webVideoUrl", "url", "videoUrl"}, Default: ""},
		AttrShares:    {Keys: []string{"shareCount", "stats_shareCount", "stats.shareCount"}, Default: 0.0},
		AttrLikes:     {Keys: []string{"diggCount", "stats_diggCount", "stats.diggCount"}, Default: 0.0},
		AttrViews:     {Keys: []string{"playCount", "stats_playCount", "stats.playCount"}, Default: 0.0},
		AttrCreatedAt: {Keys: []string{"createTimeISO", "createTime"}, Default: ""},
		AttrCaption:   {Keys: []string{"text", "desc", "description"}, Default: ""},
		AttrAuthor: {
			Keys: []string{
				"authorMeta_name", "authorMeta_uniqueId", "author_name", "username", "creator",
				"authorMeta.name", "authorMeta.uniqueId", "authorMeta.nickname",
			},
			Default: "Unknown",
		},
	}
}

// Lookup returns the first present, non-empty value for attr, or the default.
func (s Schema) Lookup(raw map[string]any, attr Attribute) any {
	return s.lookup(raw, Flatten(raw), attr)
}

func (s Schema) lookup(raw, flat map[string]any, attr Attribute) any {
	field, ok := s[attr]
	if !ok {
		return nil
	}
	for _, key := range field.Keys {
		var v any
		var found bool
		if strings.Contains(key, ".") {
			v, found = nested(raw, strings.Split(key, "."))
		} else {
			v, found = flat[key]
		}
		if found && !isEmpty(v) {
			return v
		}
	}
	return field.Default
}

// String returns attr as a string.
func (s Schema) String(raw map[string]any, attr Attribute) string {
	return ToString(s.Lookup(raw, attr))
}

// Number returns attr coerced to a float64.
func (s Schema) Number(raw map[string]any, attr Attribute) float64 {
	return ToFloat(s.Lookup(raw, attr))
}

// Record maps a raw dataset item onto a MetricRecord. Market and the AI
// flag are left for the caller.
func (s Schema) Record(raw map[string]any) domain.MetricRecord {
	flat := Flatten(raw)
	str := func(attr Attribute) string { return ToString(s.lookup(raw, flat, attr)) }
	num := func(attr Attribute) float64 { return ToFloat(s.lookup(raw, flat, attr)) }
	return domain.MetricRecord{
		URL:       strings.TrimSpace(str(AttrURL)),
		Shares:    num(AttrShares),
		Likes:     num(AttrLikes),
		Views:     num(AttrViews),
		CreatedAt: str(AttrCreatedAt),
		Caption:   str(AttrCaption),
		Author:    str(AttrAuthor),
		Market:    domain.MarketUnknown,
	}
}

// Flatten joins nested object keys with "_", so {"authorMeta":{"name":"x"}}
// becomes {"authorMeta_name":"x"}. Arrays are left as values.
//
// Keys that collide keep the first value written. Scalars of an object are
// written before its nested objects, which are expanded in sorted key order,
// so {"authorMeta_name":"a","authorMeta":{"name":"b"}} yields "a".
func Flatten(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	flattenInto(out, "", raw)
	return out
}

func flattenInto(out map[string]any, prefix string, m map[string]any) {
	var children []string
	for k, v := range m {
		if _, ok := v.(map[string]any); ok {
			children = append(children, k)
			continue
		}
		key := joinKey(prefix, k)
		if _, taken := out[key]; !taken {
			out[key] = v
		}
	}
	sort.Strings(children)
	for _, k := range children {
		flattenInto(out, joinKey(prefix, k), m[k].(map[string]any))
	}
}

func joinKey(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + "_" + k
}

func nested(m map[string]any, path []string) (any, bool) {
	var cur any = m
	for _, p := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}
