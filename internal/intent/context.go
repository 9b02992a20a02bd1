package intent

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	reTitleQuotedVerb = regexp.MustCompile(`(?i)(?:titled?|named?|called)\s+['"]([^'"]+)['"]`)
	reTitleQuoted     = regexp.MustCompile(`['"]([^'"]+)['"]`)
	reTitleAfterNoun  = regexp.MustCompile(`(?i:movie|show|series)\s+((?:[A-Z][\w']*)(?:\s+[A-Z0-9][\w']*)*)`)
	reYear            = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	reQuality         = regexp.MustCompile(`(?i)\b(4k|2160p|1080p|720p|480p|uhd|hd|sd)\b`)
	reSeasonEpisode   = regexp.MustCompile(`(?i)\bs(\d{1,2})\s*e(\d{1,2})\b`)
	reSeason          = regexp.MustCompile(`(?i)\bseason\s+(\d{1,3})\b`)
	reSeasonShort     = regexp.MustCompile(`(?i)\bs(\d{1,2})\b`)
	reEpisode         = regexp.MustCompile(`(?i)\bepisode\s+(\d{1,4})\b`)
	reEpisodeShort    = regexp.MustCompile(`(?i)\be(\d{1,3})\b`)
	reLanguageBefore  = regexp.MustCompile(`(?i)\b([a-z]+)\s+(?:language|subtitles?|subs?|captions?)\b`)
	reLanguageAfter   = regexp.MustCompile(`(?i)\b(?:subtitles?|subs?|captions?)\s+in\s+([a-z]+)\b`)
)

// titleStopwords are filler words excluded from the title guess.
var titleStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "of": {}, "in": {}, "on": {},
	"for": {}, "from": {}, "with": {}, "my": {}, "me": {}, "i": {},
	"is": {}, "are": {}, "it": {}, "at": {}, "by": {}, "and": {}, "or": {},
	"all": {}, "some": {}, "any": {}, "this": {}, "that": {}, "please": {},
	"can": {}, "you": {}, "do": {}, "does": {}, "don": {}, "dont": {},
	"t": {}, "about": {}, "into": {}, "up": {}, "but": {}, "yet": {},
	"now": {}, "right": {}, "just": {}, "what": {}, "which": {}, "who": {},
	"when": {}, "how": {}, "why": {}, "there": {}, "here": {},
}

// extractContext pulls semantic fields out of the request text. raw keeps
// the user's casing for titles and quality tokens; normalized feeds the
// remaining-span title guess; consumed holds every word that already
// matched a trigger phrase so it never leaks into the title.
func extractContext(raw, normalized string, consumed map[string]struct{}) Context {
	ctx := Context{Monitored: true, SearchOnAdd: true}
	lower := strings.ToLower(raw)

	drop := make(map[string]struct{}, len(consumed)+len(titleStopwords))
	for word := range consumed {
		drop[word] = struct{}{}
	}
	for word := range titleStopwords {
		drop[word] = struct{}{}
	}
	dropWords := func(match string) {
		for _, word := range strings.Fields(strings.ToLower(match)) {
			drop[word] = struct{}{}
		}
	}

	if m := reYear.FindStringSubmatch(raw); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil {
			ctx.Year = year
		}
		dropWords(m[0])
	}

	if m := reQuality.FindStringSubmatch(raw); m != nil {
		ctx.Quality = m[1]
		dropWords(m[0])
	}

	if m := reSeasonEpisode.FindStringSubmatch(raw); m != nil {
		ctx.Season, _ = strconv.Atoi(m[1])
		ctx.Episode, _ = strconv.Atoi(m[2])
		dropWords(m[0])
	} else {
		if m := reSeason.FindStringSubmatch(raw); m != nil {
			ctx.Season, _ = strconv.Atoi(m[1])
			dropWords(m[0])
		} else if m := reSeasonShort.FindStringSubmatch(raw); m != nil {
			ctx.Season, _ = strconv.Atoi(m[1])
			dropWords(m[0])
		}
		if m := reEpisode.FindStringSubmatch(raw); m != nil {
			ctx.Episode, _ = strconv.Atoi(m[1])
			dropWords(m[0])
		} else if m := reEpisodeShort.FindStringSubmatch(raw); m != nil {
			ctx.Episode, _ = strconv.Atoi(m[1])
			dropWords(m[0])
		}
	}

	if m := reLanguageAfter.FindStringSubmatch(raw); m != nil {
		if lang, ok := acceptLanguage(m[1], drop); ok {
			ctx.Language = lang
			dropWords(m[0])
		}
	}
	if ctx.Language == "" {
		if m := reLanguageBefore.FindStringSubmatch(raw); m != nil {
			if lang, ok := acceptLanguage(m[1], drop); ok {
				ctx.Language = lang
				dropWords(m[0])
			}
		}
	}

	if m := reTitleQuotedVerb.FindStringSubmatch(raw); m != nil {
		ctx.Title = strings.TrimSpace(m[1])
	} else if m := reTitleQuoted.FindStringSubmatch(raw); m != nil {
		ctx.Title = strings.TrimSpace(m[1])
	} else if m := reTitleAfterNoun.FindStringSubmatch(raw); m != nil {
		ctx.Title = strings.TrimSpace(m[1])
	} else {
		ctx.Title = guessTitle(normalized, drop)
	}

	ctx.Monitored = !strings.Contains(lower, "unmonitor")
	ctx.SearchOnAdd = !strings.Contains(lower, "don't search") &&
		!strings.Contains(lower, "dont search") &&
		!strings.Contains(lower, "do not search") &&
		!strings.Contains(lower, "without searching")
	ctx.Is4K = strings.Contains(lower, "4k") || strings.EqualFold(ctx.Quality, "2160p")

	return ctx
}

// guessTitle returns the longest contiguous run of tokens that survived
// keyword, stopword, and extracted-value removal, title-cased. Earlier runs
// win ties.
func guessTitle(normalized string, drop map[string]struct{}) string {
	tokens := strings.Fields(normalized)

	bestStart, bestLen := 0, 0
	start, run := 0, 0
	for i, tok := range tokens {
		if _, skip := drop[tok]; skip {
			run = 0
			continue
		}
		if run == 0 {
			start = i
		}
		run++
		if run > bestLen {
			bestStart, bestLen = start, run
		}
	}
	if bestLen == 0 {
		return ""
	}
	caser := cases.Title(language.English)
	return caser.String(strings.Join(tokens[bestStart:bestStart+bestLen], " "))
}

// acceptLanguage filters out captures that are really verbs or filler
// ("download subtitles", "the subs") and canonicalizes the rest to an
// English display form.
func acceptLanguage(word string, drop map[string]struct{}) (string, bool) {
	lowered := strings.ToLower(word)
	if _, bad := drop[lowered]; bad {
		return "", false
	}
	caser := cases.Title(language.English)
	return caser.String(lowered), true
}
