package mentions

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"MentionsScanner/internal/domain"
)

const (
	// NicotineMentionName is the fixed name of safety-net mentions.
	NicotineMentionName = "Nicotine product"

	// TagNicotine and TagRegulatory are attached to nicotine hits.
	TagNicotine   = "nicotine"
	TagRegulatory = "age/regulatory"

	defaultAdWindow = 15
)

// CuePattern binds a regular expression to the media type it signals.
type CuePattern struct {
	Pattern string           `yaml:"pattern"`
	Type    domain.MediaType `yaml:"type"`
}

// Category is a tag and the literal keywords that trigger it.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// RuleSet is the raw, editable form of the keyword and pattern tables.
// Compile it into Rules before handing it to an Engine.
type RuleSet struct {
	SkipBrands      []string     `yaml:"skipBrands"`
	AdPhrases       []string     `yaml:"adPhrases"`
	AdWindow        int          `yaml:"adWindow"`
	SuppressAdReads bool         `yaml:"suppressAdReads"`
	MediaPatterns   []CuePattern `yaml:"mediaPatterns"`
	Categories      []Category   `yaml:"categories"`
	NicotinePattern string       `yaml:"nicotinePattern"`
}

// DefaultRuleSet returns the English podcast tables.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		SkipBrands: []string{
			// sponsor reads
			"BetterHelp", "DraftKings", "Cash App", "Onnit", "Athletic Greens", "AG1",
			"ExpressVPN", "MeUndies", "Squarespace", "Blue Apron", "Eight Sleep", "Whoop",
			"Manscaped", "Liquid IV", "DoorDash", "Postmates", "LegalZoom", "ZipRecruiter",
			"Honey", "Rocket Mortgage", "Keeps", "Roman",
			// household brands
			"Coca-Cola", "Coke", "Pepsi", "Gatorade", "Nike", "Adidas", "McDonald's",
			"Starbucks", "Amazon",
		},
		AdPhrases: []string{
			"this episode is brought to you by",
			"this podcast is brought to you by",
			"sponsor of the show",
			"sponsors of the show",
			"our sponsor today",
			"our sponsors today",
			"promo code",
			"use code",
			"dot com slash",
			".com slash",
			"enter code",
		},
		AdWindow: defaultAdWindow,
		MediaPatterns: []CuePattern{
			{Pattern: `jamie,? pull (that|it) up`, Type: domain.MediaVideo},
			{Pattern: `pull (that|it) up`, Type: domain.MediaVideo},
			{Pattern: `can you pull .* up`, Type: domain.MediaVideo},
			{Pattern: `play (that|it|this)`, Type: domain.MediaVideo},
			{Pattern: `roll the clip`, Type: domain.MediaVideo},
			{Pattern: `let's watch`, Type: domain.MediaVideo},
			{Pattern: `watch this`, Type: domain.MediaVideo},
			{Pattern: `play the song|play some music`, Type: domain.MediaSong},
			{Pattern: `listen to this`, Type: domain.MediaAudio},
		},
		Categories: []Category{
			{Name: TagNicotine, Keywords: []string{"zyn", "nicotine", "pouch", "pouches", "snus", "vape", "vaping"}},
			{Name: "supplement", Keywords: []string{"supplement", "vitamin", "powder", "capsule", "pill"}},
			{Name: "software", Keywords: []string{"app", "software", "platform", "website"}},
			{Name: "book", Keywords: []string{"book", "author", "novel"}},
		},
		NicotinePattern: `\b(zyn|nicotine|pouch(?:es)?|snus|vape|vaping|e-?cig(?:arette)?s?)\b`,
	}
}

// WithExtraSkipBrands returns a copy of the rule set with more skip brands.
func (rs RuleSet) WithExtraSkipBrands(brands ...string) RuleSet {
	merged := make([]string, 0, len(rs.SkipBrands)+len(brands))
	merged = append(merged, rs.SkipBrands...)
	merged = append(merged, brands...)
	rs.SkipBrands = merged
	return rs
}

type compiledCue struct {
	re  *regexp.Regexp
	typ domain.MediaType
}

type compiledCategory struct {
	name     string
	keywords []string
}

// Rules is the compiled, read-only form of a RuleSet. It is safe for
// concurrent use and may be shared by several engines.
type Rules struct {
	skipBrands      map[string]struct{}
	adPhrases       []string
	adWindow        int
	suppressAdReads bool
	cues            []compiledCue
	categories      []compiledCategory
	nicotine        *regexp.Regexp
}

// Compile validates the rule set and builds Rules.
func Compile(rs RuleSet) (*Rules, error) {
	if rs.AdWindow < 0 {
		return nil, fmt.Errorf("ad window must be non-negative, got %d", rs.AdWindow)
	}
	if strings.TrimSpace(rs.NicotinePattern) == "" {
		return nil, errors.New("nicotine pattern is empty")
	}

	nicotine, err := regexp.Compile("(?i)" + rs.NicotinePattern)
	if err != nil {
		return nil, fmt.Errorf("compile nicotine pattern: %w", err)
	}

	r := &Rules{
		skipBrands:      make(map[string]struct{}, len(rs.SkipBrands)),
		adWindow:        rs.AdWindow,
		suppressAdReads: rs.SuppressAdReads,
		nicotine:        nicotine,
	}

	for _, brand := range rs.SkipBrands {
		brand = strings.ToLower(strings.TrimSpace(brand))
		if brand != "" {
			r.skipBrands[brand] = struct{}{}
		}
	}

	for _, phrase := range rs.AdPhrases {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase != "" {
			r.adPhrases = append(r.adPhrases, phrase)
		}
	}

	for i, cue := range rs.MediaPatterns {
		if !cue.Type.Valid() {
			return nil, fmt.Errorf("media pattern %d: unknown type %q", i, cue.Type)
		}
		re, err := regexp.Compile("(?i)" + cue.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile media pattern %d: %w", i, err)
		}
		r.cues = append(r.cues, compiledCue{re: re, typ: cue.Type})
	}

	for _, cat := range rs.Categories {
		if cat.Name == "" {
			return nil, errors.New("category with empty name")
		}
		keywords := make([]string, 0, len(cat.Keywords))
		for _, kw := range cat.Keywords {
			if kw = strings.ToLower(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		r.categories = append(r.categories, compiledCategory{name: cat.Name, keywords: keywords})
	}

	return r, nil
}

// MustCompile is like Compile but panics on error. Intended for the default tables.
func MustCompile(rs RuleSet) *Rules {
	r, err := Compile(rs)
	if err != nil {
		panic(err)
	}
	return r
}

// IsSkipBrand reports whether name is a known sponsor or household brand.
func (r *Rules) IsSkipBrand(name string) bool {
	_, ok := r.skipBrands[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// IsAdRead reports whether the text contains a sponsor-read marker phrase.
func (r *Rules) IsAdRead(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range r.adPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// MentionsNicotine reports whether the text matches the nicotine pattern.
func (r *Rules) MentionsNicotine(text string) bool {
	return r.nicotine.MatchString(text)
}

// MatchCue returns the type of the first media pattern matching text.
func (r *Rules) MatchCue(text string) (domain.MediaType, bool) {
	for _, cue := range r.cues {
		if cue.re.MatchString(text) {
			return cue.typ, true
		}
	}
	return "", false
}

// AdWindow is the number of segment indices an ad read keeps the window open.
func (r *Rules) AdWindow() int {
	return r.adWindow
}

// SuppressAdReads reports whether entity mentions inside an ad window are dropped.
func (r *Rules) SuppressAdReads() bool {
	return r.suppressAdReads
}
