package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oladoye/sitesync/pkg/model"
)

func TestClassify_Keywords(t *testing.T) {
	c := NewDefault()

	assert.Equal(t, model.CategorySermons, c.Classify("Sunday Sermon: Walking in Faith", ""))
	assert.Equal(t, model.CategorySermons, c.Classify("A Message for the Broken", ""))
	assert.Equal(t, model.CategoryTeachings, c.Classify("Bible Study part 3", ""))
	assert.Equal(t, model.CategoryWorship, c.Classify("Praise Night Live", ""))

	// Description participates too
	assert.Equal(t, model.CategoryWorship, c.Classify("Friday Live", "an evening of worship"))
}

func TestClassify_Precedence(t *testing.T) {
	c := NewDefault()

	// Sermon keywords win over teaching and worship keywords
	assert.Equal(t, model.CategorySermons, c.Classify("Sermon on worship", "a study"))
	assert.Equal(t, model.CategoryTeachings, c.Classify("Teaching on praise", ""))
}

func TestClassify_Total(t *testing.T) {
	c := NewDefault()

	assert.Equal(t, model.CategoryInspiration, c.Classify("", ""))
	assert.Equal(t, model.CategoryInspiration, c.Classify("random unrelated text", ""))
}

func TestClassify_CustomRules(t *testing.T) {
	c := New([]Rule{
		{Category: "qa", Keywords: []string{"q&a"}},
	}, "other")

	assert.EqualValues(t, "qa", c.Classify("Live Q&A session", ""))
	assert.EqualValues(t, "other", c.Classify("Sermon", ""))
}
