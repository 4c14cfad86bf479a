package feed

import "trendbuild/internal/domain"

// MergeMarkets builds one batch from the US and UK feeds: US items first,
// then UK, deduplicated by URL with the first occurrence winning. Items
// without a URL are dropped. Each record is tagged with the market(s) its
// URL appeared in and with the AI flag of its caption.
func MergeMarkets(schema Schema, us, uk []map[string]any) []domain.MetricRecord {
	usRecords := mapRecords(schema, us)
	ukRecords := mapRecords(schema, uk)

	usURLs := urlSet(usRecords)
	ukURLs := urlSet(ukRecords)

	seen := make(map[string]struct{}, len(usRecords)+len(ukRecords))
	out := make([]domain.MetricRecord, 0, len(usRecords)+len(ukRecords))
	for _, batch := range [][]domain.MetricRecord{usRecords, ukRecords} {
		for _, r := range batch {
			if _, dup := seen[r.URL]; dup {
				continue
			}
			seen[r.URL] = struct{}{}
			r.Market = domain.DetectMarket(r.URL, usURLs, ukURLs)
			r.IsAI = DetectAI(r.Caption)
			out = append(out, r)
		}
	}
	return out
}

func mapRecords(schema Schema, items []map[string]any) []domain.MetricRecord {
	out := make([]domain.MetricRecord, 0, len(items))
	for _, raw := range items {
		if raw == nil {
			continue
		}
		r := schema.Record(raw)
		if r.URL == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

func urlSet(records []domain.MetricRecord) map[string]struct{} {
	set := make(map[string]struct{}, len(records))
	for _, r := range records {
		set[r.URL] = struct{}{}
	}
	return set
}
