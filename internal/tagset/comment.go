package tagset

import (
	"strings"
	"unicode/utf8"

	"github.com/localwiki/wikitags/internal/domain"
)

// MaxCommentLength bounds the stored change comment, in runes.
const MaxCommentLength = 140

// Message IDs looked up by DescribeChange. Translations live in the i18n
// catalog; each plural message gets {{.Names}} or {{.Count}}.
const (
	MsgRemovedNames = "tags.removed_names"
	MsgAddedNames   = "tags.added_names"
	MsgRemovedCount = "tags.removed_count"
	MsgAddedCount   = "tags.added_count"
	MsgConjunction  = "tags.conjunction"
	MsgNoChanges    = "tags.no_changes"
)

// Messages returns localized text for a message ID. count selects the plural
// form and data fills the template.
type Messages interface {
	Localize(id string, count int, data map[string]any) string
}

// DescribeChange builds the change comment recorded with a tag-set save:
// removed tags first, then added tags, joined by the localized conjunction.
// When the sentence is longer than MaxCommentLength the tag names are
// replaced by counts.
func DescribeChange(c Change, m Messages) string {
	var long, short []string

	if n := len(c.Deleted); n > 0 {
		long = append(long, m.Localize(MsgRemovedNames, n, map[string]any{"Names": quoteNames(c.Deleted)}))
		short = append(short, m.Localize(MsgRemovedCount, n, map[string]any{"Count": n}))
	}
	if n := len(c.Added); n > 0 {
		long = append(long, m.Localize(MsgAddedNames, n, map[string]any{"Names": quoteNames(c.Added)}))
		short = append(short, m.Localize(MsgAddedCount, n, map[string]any{"Count": n}))
	}
	if len(long) == 0 {
		return m.Localize(MsgNoChanges, 0, nil)
	}

	and := m.Localize(MsgConjunction, 0, nil)
	comment := strings.Join(long, and)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return strings.Join(short, and)
	}
	return comment
}

func quoteNames(tags []domain.Tag) string {
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = `"` + t.Name + `"`
	}
	return strings.Join(quoted, ", ")
}
