// Package registry holds the static catalogue mapping browser family,
// platform and version range to the header set that browser emits. The
// catalogue is embedded, loaded once and never mutated.
package registry

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/umputun/userheaders/pkg/browser"
	"github.com/umputun/userheaders/pkg/headers"
)

//go:embed catalog.yml
var catalogYAML []byte

// Entry is one immutable catalogue row: the header template for a browser
// family on a platform, valid from MinVersion up to the next row.
type Entry struct {
	Family         browser.Family   `yaml:"family"`
	Platform       browser.Platform `yaml:"platform"`
	MinVersion     int              `yaml:"min_version"`
	DefaultVersion int              `yaml:"default_version"`
	UserAgent      string           `yaml:"user_agent"`
	Accept         string           `yaml:"accept"`
	AcceptLanguage string           `yaml:"accept_language"`
	DNT            string           `yaml:"dnt,omitempty"`
}

// Match is a successful lookup. Approximate is set when the row was chosen
// without an exact version or platform fit, useful for diagnostics; the
// resolution itself still counts as successful.
type Match struct {
	Entry       Entry
	Approximate bool
}

var (
	loadOnce sync.Once
	catalog  []Entry
)

func load() []Entry {
	loadOnce.Do(func() {
		var doc struct {
			Entries []Entry `yaml:"entries"`
		}
		if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
			// embedded data, malformed only by a bad build
			panic(fmt.Sprintf("registry: bad embedded catalogue: %v", err))
		}
		catalog = doc.Entries
	})
	return catalog
}

// Lookup finds the catalogue row for the identity. Family matches first,
// then platform, then the highest min_version not above the detected
// version (never rounding up to a newer template). An unknown version picks
// the newest row for the family, flagged approximate. Family "other" is a
// legitimate miss.
func Lookup(id browser.Identity) (Match, bool) {
	if id.Family == browser.FamilyOther || id.Family == "" {
		return Match{}, false
	}

	rows := rowsFor(id.Family, id.Platform)
	approximate := false
	if len(rows) == 0 {
		// no template for this platform; a windows fingerprint is the
		// least remarkable substitute
		rows = rowsFor(id.Family, browser.PlatformWindows)
		approximate = true
	}
	if len(rows) == 0 {
		return Match{}, false
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].MinVersion < rows[j].MinVersion })

	if id.MajorVersion <= 0 {
		// version unknown: newest catalogued template, noted as approximation
		return Match{Entry: rows[len(rows)-1], Approximate: true}, true
	}

	// highest row with min_version <= detected
	picked := -1
	for i, row := range rows {
		if row.MinVersion <= id.MajorVersion {
			picked = i
		}
	}
	if picked < 0 {
		// detected version predates the catalogue, use the oldest row
		return Match{Entry: rows[0], Approximate: true}, true
	}
	return Match{Entry: rows[picked], Approximate: approximate}, true
}

func rowsFor(family browser.Family, platform browser.Platform) []Entry {
	var res []Entry
	for _, e := range load() {
		if e.Family == family && e.Platform == platform {
			res = append(res, e)
		}
	}
	return res
}

// Render substitutes version and locale into the row's templates and
// returns the resulting header profile. A non-positive version falls back
// to the row's default; an empty locale falls back to en-US. The DNT header
// appears only when the row defines it, never fabricated.
func (e Entry) Render(version int, locale string) *headers.Profile {
	if version <= 0 {
		version = e.DefaultVersion
	}
	if locale == "" {
		locale = "en-US"
	}
	lang := locale
	if i := strings.Index(lang, "-"); i > 0 {
		lang = lang[:i]
	}

	expand := func(tpl string) string {
		r := strings.NewReplacer(
			"{version}", strconv.Itoa(version),
			"{locale}", locale,
			"{lang}", lang,
		)
		return r.Replace(tpl)
	}

	p := headers.New()
	p.Set("user-agent", expand(e.UserAgent))
	p.Set("accept", e.Accept)
	p.Set("accept-language", expand(e.AcceptLanguage))
	if e.DNT != "" {
		p.Set("dnt", e.DNT)
	}
	return p
}
