package domain

// Market tags which regional feed(s) a record was seen in.
type Market string

const (
	MarketBoth    Market = "BOTH"
	MarketUS      Market = "US_ONLY"
	MarketUK      Market = "UK_ONLY"
	MarketUnknown Market = "UNKNOWN"
)

// String returns the string representation of Market.
func (m Market) String() string {
	return string(m)
}

// IsValid checks if the market is a valid value.
func (m Market) IsValid() bool {
	switch m {
	case MarketBoth, MarketUS, MarketUK, MarketUnknown:
		return true
	}
	return false
}

// Label returns the presentation label.
func (m Market) Label() string {
	switch m {
	case MarketBoth:
		return "🌐 BOTH"
	case MarketUS:
		return "🇺🇸 US ONLY"
	case MarketUK:
		return "🇬🇧 UK ONLY"
	}
	return "Unknown"
}

// DetectMarket tags a URL by its presence in the US and UK feeds.
func DetectMarket(url string, us, uk map[string]struct{}) Market {
	_, inUS := us[url]
	_, inUK := uk[url]
	switch {
	case inUS && inUK:
		return MarketBoth
	case inUS:
		return MarketUS
	case inUK:
		return MarketUK
	}
	return MarketUnknown
}
