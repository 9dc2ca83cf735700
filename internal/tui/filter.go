package tui

import (
	"github.com/sahilm/fuzzy"

	"github.com/nikbrunner/tabdeck/internal/model"
)

// itemTitles implements fuzzy.Source for an item slice.
type itemTitles []model.Item

func (it itemTitles) String(i int) string {
	return it[i].Title
}

func (it itemTitles) Len() int {
	return len(it)
}

// filterItems fuzzy-matches the current level's items by title, best
// match first. An empty query returns the items unfiltered.
func filterItems(items []model.Item, query string) []model.Item {
	if query == "" {
		return items
	}

	matches := fuzzy.FindFrom(query, itemTitles(items))
	result := make([]model.Item, len(matches))
	for i, m := range matches {
		result[i] = items[m.Index]
	}
	return result
}
