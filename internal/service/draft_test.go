package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "Hello world & co", StripMarkup("<b>Hello</b> <i>world</i> &amp; co"))
	assert.Equal(t, "plain", StripMarkup("plain"))
}

func TestCheckLength(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		hasImage bool
		want     bool
	}{
		{"caption at limit", strings.Repeat("a", 1024), true, false},
		{"caption over limit", strings.Repeat("a", 1025), true, true},
		{"text at limit", strings.Repeat("a", 4096), false, false},
		{"text over limit", strings.Repeat("a", 4097), false, true},
		{"markup not counted", "<b>" + strings.Repeat("a", 1024) + "</b>", true, false},
		{"runes not bytes", strings.Repeat("я", 1024), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckLength(tt.text, tt.hasImage))
		})
	}

	assert.Equal(t, 800, RecommendedLength(true))
	assert.Equal(t, 3600, RecommendedLength(false))
}

func TestValidateText(t *testing.T) {
	assert.Equal(t, TextFlags{Void: true}, ValidateText("   ", false))
	assert.Equal(t, TextFlags{Small: true}, ValidateText("short", false))
	assert.Equal(t, TextFlags{}, ValidateText(strings.Repeat("a", 100), true))
	assert.Equal(t, TextFlags{Big: true}, ValidateText(strings.Repeat("a", 1100), true))
	assert.Equal(t, TextFlags{}, ValidateText(strings.Repeat("a", 1100), false))
	assert.Equal(t, TextFlags{Big: true}, ValidateText(strings.Repeat("a", 4001), false))
}

func TestHasChanges(t *testing.T) {
	base := Draft{ID: 1, Text: "Hi", HasImage: true, ImageURL: "u1", TgSource: true}

	tests := []struct {
		name   string
		modify func(d *Draft)
		want   bool
	}{
		{"identical", func(d *Draft) {}, false},
		{"text", func(d *Draft) { d.Text = "Hello" }, true},
		{"image removed", func(d *Draft) { d.HasImage = false }, true},
		{"custom image", func(d *Draft) { d.CustomImageFileID = "F1" }, true},
		{"image url", func(d *Draft) { d.ImageURL = "u2" }, true},
		{"carousel alone", func(d *Draft) { d.GeneratedImagesURL = []string{"u1", "u3"} }, false},
		{"network flags", func(d *Draft) { d.TgSource = false }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work := base.Clone()
			tt.modify(&work)
			assert.Equal(t, tt.want, HasChanges(base, work))
		})
	}
}

func TestEditor_RejectRestoresStateBeforeSequence(t *testing.T) {
	var ed Editor
	d0 := Draft{ID: 1, Text: "Hi", HasImage: true, ImageURL: "u1"}
	ed.Open(d0)

	require.NoError(t, ed.Apply(func(w *Draft) error {
		w.Text = "regenerated"
		return nil
	}))
	require.NoError(t, ed.Apply(func(w *Draft) error {
		ed.SetGeneratedImages([]string{"g1", "g2"})
		return nil
	}))
	ed.NextImage()
	require.True(t, ed.Pending())

	ed.Reject()

	assert.Equal(t, d0, ed.Working)
	assert.False(t, ed.Pending())
	assert.False(t, ed.HasChanges())
}

func TestEditor_AcceptThenSaveBaseline(t *testing.T) {
	var ed Editor
	ed.Open(Draft{ID: 1, Text: "Hi"})

	require.NoError(t, ed.Apply(func(w *Draft) error {
		w.Text = "Hello"
		return nil
	}))
	ed.Accept()
	assert.False(t, ed.Pending())
	assert.True(t, ed.HasChanges())

	ed.Reject()
	assert.Equal(t, "Hello", ed.Working.Text)

	ed.Promote()
	assert.Equal(t, "Hello", ed.Original.Text)
	assert.False(t, ed.HasChanges())
}

func TestEditor_FailedApplyLeavesState(t *testing.T) {
	var ed Editor
	ed.Open(Draft{ID: 1, Text: "Hi"})

	err := ed.Apply(func(w *Draft) error {
		w.Text = "half done"
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, "Hi", ed.Working.Text)
	assert.False(t, ed.Pending())
}

func TestEditor_Carousel(t *testing.T) {
	var ed Editor
	ed.Open(Draft{ID: 1, Text: "Hi"})
	ed.SetGeneratedImages([]string{"a", "b", "c"})

	assert.Equal(t, "a", ed.Working.ImageURL)
	ed.PrevImage()
	assert.Equal(t, 2, ed.Working.CurrentImageIndex)
	assert.Equal(t, "c", ed.Working.ImageURL)
	ed.NextImage()
	ed.NextImage()
	assert.Equal(t, "b", ed.Working.ImageURL)

	ed.SetCustomImage("F1")
	ref, ok := ed.CurrentImage()
	require.True(t, ok)
	assert.Equal(t, ImageRef{FileID: "F1"}, ref)
	assert.Empty(t, ed.Working.GeneratedImagesURL)
}

func TestEditor_CombineCollection(t *testing.T) {
	var ed Editor
	ed.Open(Draft{ID: 1, HasImage: true, ImageURL: "u1"})

	ed.StartCombine(true)
	assert.False(t, ed.CanCombine())
	assert.True(t, ed.AddCombineImage("F1"))
	assert.True(t, ed.CanCombine())
	assert.True(t, ed.AddCombineImage("F2"))
	assert.False(t, ed.AddCombineImage("F3"))
	assert.Equal(t, []ImageRef{{URL: "u1"}, {FileID: "F1"}, {FileID: "F2"}}, ed.Combine.Images)
}
