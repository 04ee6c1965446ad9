package mealplan

import (
	"fmt"
	"strings"
)

// Origin names the kind of provider that produced a candidate
type Origin string

const (
	OriginCatalog    Origin = "catalog"
	OriginExternal   Origin = "external"
	OriginGenerative Origin = "generative"
)

// RecipeCandidate is the source-independent view of a recipe offered for a slot
type RecipeCandidate struct {
	Title       string
	Ingredients []string
	Steps       []string
	Cuisine     string
	Calories    string
	Serving     string
	Photo       string
	SourceID    string
	Origin      Origin
	Provider    string
}

// DedupKey identifies a candidate across providers: normalized title plus source id
func (c RecipeCandidate) DedupKey() string {
	return NormalizeTitle(c.Title) + "|" + strings.TrimSpace(c.SourceID)
}

// NormalizeTitle lowercases a title and collapses its whitespace
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// Draft copies the candidate onto slot draft fields, never failing on missing data
func (c RecipeCandidate) Draft() Draft {
	return Draft{
		Title:       strings.TrimSpace(c.Title),
		Ingredients: cleanList(c.Ingredients),
		Steps:       cleanList(c.Steps),
		Cuisine:     strings.TrimSpace(c.Cuisine),
		Calories:    strings.TrimSpace(c.Calories),
		Serving:     strings.TrimSpace(c.Serving),
		Photo:       strings.TrimSpace(c.Photo),
		SourceID:    strings.TrimSpace(c.SourceID),
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// CandidateFromFields maps a loosely shaped record (decoded JSON, generated output)
// into a candidate. Each field is looked up under several names and coerced to a
// display-safe value; absent or malformed fields become empty.
func CandidateFromFields(fields map[string]any, origin Origin, provider string) RecipeCandidate {
	return RecipeCandidate{
		Title:       firstString(fields, "title", "recipe", "name"),
		Ingredients: firstList(fields, "ingredients"),
		Steps:       firstList(fields, "steps", "instructions"),
		Cuisine:     firstString(fields, "cuisine"),
		Calories:    firstString(fields, "calories"),
		Serving:     firstString(fields, "serving", "servings"),
		Photo:       firstString(fields, "photo", "thumbnail", "image"),
		SourceID:    firstString(fields, "source_id", "source_mealdb_id", "id"),
		Origin:      origin,
		Provider:    provider,
	}
}

func firstString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := toString(fields[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstList(fields map[string]any, keys ...string) []string {
	for _, k := range keys {
		if l := toList(fields[k]); len(l) > 0 {
			return l
		}
	}
	return []string{}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func toList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return cleanList(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := toString(t); s != "" {
			return []string{s}
		}
		return nil
	}
}
