package services

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/gamepile/gamepile-backend/internal/domain/catalog"
	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/repos"
)

// MatchResult is the matcher's answer for one platform title. A nil
// *MatchResult means unmatched.
type MatchResult struct {
	IGDBID     int64
	Name       string
	CoverURL   *string
	Confidence float64
	Method     library.MatchMethod
}

// MatcherService maps platform title names to canonical games using
// only the local game table. No provider calls happen here.
type MatcherService interface {
	CleanName(name string) string
	CleanDisplayName(name string) string
	IsBlocklisted(rawName string) bool
	Slugify(name string) string
	RomanSlug(slug string) (string, bool)

	// Match runs the slug → roman slug → prefix pipeline. firstPlayed,
	// when present, disambiguates slug duplicates.
	Match(ctx context.Context, name string, firstPlayed *time.Time) (*MatchResult, error)

	// MatchPSN consults the title_id lookup table first; a resolved
	// official name unlocks the exact and case-folded name stages.
	MatchPSN(ctx context.Context, titleID, name string, firstPlayed *time.Time) (*MatchResult, error)
}

type matcherService struct {
	games     repos.GameRepo
	psnTitles repos.PSNTitleRepo
	rules     *matchRules
	log       *logger.Logger
}

func NewMatcherService(games repos.GameRepo, psnTitles repos.PSNTitleRepo, baseLog *logger.Logger) (MatcherService, error) {
	rules, err := loadMatchRules()
	if err != nil {
		return nil, err
	}
	return &matcherService{
		games:     games,
		psnTitles: psnTitles,
		rules:     rules,
		log:       baseLog.With("service", "MatcherService"),
	}, nil
}

var (
	trademarkGlyphs  = strings.NewReplacer("™", "", "®", "", "©", "")
	letterThenDigit  = regexp.MustCompile(`([a-zA-Z])(\d)`)
	colonSpacing     = regexp.MustCompile(`\s*:\s*`)
	whitespaceRuns   = regexp.MustCompile(`\s+`)
	nonSlugChars     = regexp.MustCompile(`[^a-z0-9\s-]`)
	trailingSlugNum  = regexp.MustCompile(`-(\d+)$`)
	displayNameSplit = " – " // bracketing en-dash drops season/edition suffixes
)

var romanSlugTails = map[string]string{
	"1": "i", "2": "ii", "3": "iii", "4": "iv", "5": "v",
	"6": "vi", "7": "vii", "8": "viii", "9": "ix", "10": "x",
}

func (m *matcherService) CleanName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	prev := rune(0)
	for _, r := range name {
		if ascii, ok := m.rules.romanNumerals[r]; ok {
			if unicode.IsLetter(prev) {
				b.WriteByte(' ')
			}
			b.WriteString(ascii)
			prev = ' '
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	cleaned := trademarkGlyphs.Replace(b.String())
	cleaned = letterThenDigit.ReplaceAllString(cleaned, "$1 $2")
	for _, fix := range m.rules.franchiseFixes {
		cleaned = strings.ReplaceAll(cleaned, fix.from, fix.to)
	}
	cleaned = colonSpacing.ReplaceAllString(cleaned, ": ")
	cleaned = whitespaceRuns.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

func (m *matcherService) CleanDisplayName(name string) string {
	if idx := strings.Index(name, displayNameSplit); idx >= 0 {
		name = name[:idx]
	}
	return m.CleanName(name)
}

func (m *matcherService) IsBlocklisted(rawName string) bool {
	return m.rules.isBlocklisted(rawName)
}

func (m *matcherService) Slugify(name string) string {
	lowered := strings.ToLower(name)
	decomposed := norm.NFD.String(lowered)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if r == '_' {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	slug := nonSlugChars.ReplaceAllString(b.String(), "")
	slug = whitespaceRuns.ReplaceAllString(strings.TrimSpace(slug), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

func (m *matcherService) RomanSlug(slug string) (string, bool) {
	match := trailingSlugNum.FindStringSubmatch(slug)
	if match == nil {
		return "", false
	}
	roman, ok := romanSlugTails[match[1]]
	if !ok {
		return "", false
	}
	return slug[:len(slug)-len(match[1])] + roman, true
}

func (m *matcherService) Match(ctx context.Context, name string, firstPlayed *time.Time) (*MatchResult, error) {
	cleaned := m.CleanName(name)
	slug := m.Slugify(cleaned)
	if slug == "" {
		return nil, nil
	}

	result, err := m.matchSlug(ctx, slug, library.MatchSlug, firstPlayed)
	if err != nil || result != nil {
		return result, err
	}

	if roman, ok := m.RomanSlug(slug); ok {
		result, err = m.matchSlug(ctx, roman, library.MatchSlugRoman, firstPlayed)
		if err != nil || result != nil {
			return result, err
		}
	}

	if len([]rune(cleaned)) >= 5 {
		game, err := m.games.FindFirstByNamePrefix(ctx, nil, cleaned)
		if err != nil {
			return nil, err
		}
		if game != nil {
			return resultFor(game, 0.60, library.MatchPartial), nil
		}
	}
	return nil, nil
}

func (m *matcherService) MatchPSN(ctx context.Context, titleID, name string, firstPlayed *time.Time) (*MatchResult, error) {
	title, err := m.psnTitles.GetByTitleID(ctx, nil, titleID)
	if err != nil {
		return nil, err
	}
	if title == nil || title.OfficialName == "" {
		return m.Match(ctx, name, firstPlayed)
	}

	cleaned := m.CleanName(title.OfficialName)
	game, err := m.games.FindByExactName(ctx, nil, cleaned)
	if err != nil {
		return nil, err
	}
	if game != nil {
		return resultFor(game, 0.99, library.MatchExact), nil
	}
	game, err = m.games.FindByNameFold(ctx, nil, cleaned)
	if err != nil {
		return nil, err
	}
	if game != nil {
		return resultFor(game, 0.95, library.MatchIExact), nil
	}
	return m.Match(ctx, cleaned, firstPlayed)
}

// matchSlug looks up a slug and its provider-suffixed duplicates
// (slug--1, slug--2), then tie-breaks if several rows qualify.
func (m *matcherService) matchSlug(ctx context.Context, slug string, method library.MatchMethod, firstPlayed *time.Time) (*MatchResult, error) {
	candidates, err := m.games.FindBySlugOrSuffixed(ctx, nil, slug)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	pick := tieBreak(candidates, firstPlayed)
	confidence := 0.80
	if method == library.MatchSlug && pick.Slug != nil && *pick.Slug == slug {
		confidence = 0.85
	}
	return resultFor(pick, confidence, method), nil
}

// tieBreak picks among slug duplicates. Without a first-played hint the
// smallest igdb_id wins (candidates arrive ordered ascending). With a
// hint T, the candidate released latest but no later than T + 60 days
// wins; a release-date tie keeps the smaller id.
func tieBreak(candidates []*catalog.Game, firstPlayed *time.Time) *catalog.Game {
	if firstPlayed == nil || len(candidates) == 1 {
		return candidates[0]
	}
	cutoff := firstPlayed.Add(60 * 24 * time.Hour)
	var best *catalog.Game
	for _, c := range candidates {
		if c.FirstReleaseDate == nil || c.FirstReleaseDate.After(cutoff) {
			continue
		}
		if best == nil || c.FirstReleaseDate.After(*best.FirstReleaseDate) {
			best = c
		}
	}
	if best == nil {
		return candidates[0]
	}
	return best
}

func resultFor(game *catalog.Game, confidence float64, method library.MatchMethod) *MatchResult {
	return &MatchResult{
		IGDBID:     game.IGDBID,
		Name:       game.Name,
		CoverURL:   game.CoverImageURL,
		Confidence: confidence,
		Method:     method,
	}
}
