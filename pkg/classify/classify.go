// Package classify assigns content categories to raw catalog text.
package classify

import (
	"strings"

	"github.com/oladoye/sitesync/pkg/model"
)

// Rule maps a keyword group to a category. Rules are evaluated in order and
// the first match wins, so the list order is a product decision.
type Rule struct {
	Category model.Category
	Keywords []string
}

// DefaultRules reflect the kind of content published on the channel.
var DefaultRules = []Rule{
	{Category: model.CategorySermons, Keywords: []string{"sermon", "message", "preaching"}},
	{Category: model.CategoryTeachings, Keywords: []string{"teaching", "study", "lesson"}},
	{Category: model.CategoryWorship, Keywords: []string{"worship", "praise", "song"}},
}

type Classifier struct {
	rules    []Rule
	fallback model.Category
}

// New creates a classifier with the given ordered rules and a fallback
// category for content that matches none of them.
func New(rules []Rule, fallback model.Category) *Classifier {
	return &Classifier{rules: rules, fallback: fallback}
}

// NewDefault creates a classifier with the default rule set.
func NewDefault() *Classifier {
	return New(DefaultRules, model.CategoryInspiration)
}

// Classify is total: every title/description pair maps to some category.
func (c *Classifier) Classify(title, description string) model.Category {
	content := strings.ToLower(title) + " " + strings.ToLower(description)

	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(content, keyword) {
				return rule.Category
			}
		}
	}

	return c.fallback
}
