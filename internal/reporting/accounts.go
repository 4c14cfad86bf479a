package reporting

import "strings"

// Accounts lists the monitored own accounts and the competitor set.
// Handles compare case-insensitively.
type Accounts struct {
	Own         []string `koanf:"own"`
	Competitors []string `koanf:"competitors"`
}

// DefaultAccounts returns the production account lists.
func DefaultAccounts() Accounts {
	return Accounts{
		Own: []string{
			"capcuttemplates833",
			"capcuttrends02",
			"capcuttemplatesai",
			"artemiscc_capcut",
			"capcutaistudio",
			"artemiscccapcut",
			"capcut.vorlagen101",
		},
		Competitors: []string{
			"capcutdailyuk",
			"capcut__creations",
			"jyoung101capcut",
			"capcut_templatetrends",
			"capcut_core",
			"capcut.trends.uk1",
		},
	}
}

// IsOwn reports whether author is one of the own accounts.
func (a Accounts) IsOwn(author string) bool {
	return containsFold(a.Own, author)
}

// IsCompetitor reports whether author is a competitor account.
func (a Accounts) IsCompetitor(author string) bool {
	return containsFold(a.Competitors, author)
}

// IsTracked reports whether author is an own or competitor account.
func (a Accounts) IsTracked(author string) bool {
	return a.IsOwn(author) || a.IsCompetitor(author)
}

func containsFold(list []string, s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
