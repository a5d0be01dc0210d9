package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eternnoir/videocaps/pkg/timeline"
)

func TestNormalizeSpacing(t *testing.T) {
	assert.Equal(t, "hello world, how are you? fine", NormalizeSpacing("  hello   world ,how are you ?fine"))
	assert.Equal(t, "", NormalizeSpacing(" \n\t "))
}

func TestCleanSegmentText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  so i think   it works", "So I think it works."},
		{"do you want coffee", "Do you want coffee?"},
		{"tell me, can you hear this", "Tell me, can you hear this?"},
		{"what a day!", "What a day!"},
		{"i'm here", "I'm here."},
		{"éclair time", "Éclair time."},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSegmentText(tt.in))
		})
	}
}

func TestIsQuestion(t *testing.T) {
	assert.True(t, IsQuestion("How, exactly"))
	assert.True(t, IsQuestion("and would you mind"))
	assert.False(t, IsQuestion("we shipped it"))
	assert.False(t, IsQuestion(""))
}

func TestProcessSegmentsKeepsTiming(t *testing.T) {
	in := []timeline.Segment{{Text: "hello   there", Start: 1, End: 2, Speaker: "SPEAKER_00"}}
	out := ProcessSegments(in)

	assert.Equal(t, timeline.Segment{Text: "Hello there.", Start: 1, End: 2, Speaker: "SPEAKER_00"}, out[0])
	assert.Equal(t, "hello   there", in[0].Text, "input is not modified")
}

func TestParagraphs(t *testing.T) {
	segments := []timeline.Segment{
		{Text: "Hello there", Start: 0, End: 1, Speaker: "SPEAKER_00"},
		{Text: "second", Start: 1.5, End: 2.5, Speaker: "SPEAKER_00"},
		{Text: "  ", Start: 3, End: 4, Speaker: "SPEAKER_00"},
		{Text: "reply", Start: 3, End: 4, Speaker: "SPEAKER_01"},
		{Text: "later", Start: 7, End: 8, Speaker: "SPEAKER_01"},
		{Text: "no speaker", Start: 8, End: 9},
		{Text: "back", Start: 9, End: 10, Speaker: "SPEAKER_01"},
	}

	assert.Equal(t, []Paragraph{
		{Speaker: "SPEAKER_00", Start: 0, End: 2.5, Segments: 2, Text: "Hello there second"},
		{Speaker: "SPEAKER_01", Start: 3, End: 4, Segments: 1, Text: "reply"},
		{Speaker: "SPEAKER_01", Start: 7, End: 9, Segments: 2, Text: "later no speaker"},
		{Speaker: "SPEAKER_01", Start: 9, End: 10, Segments: 1, Text: "back"},
	}, Paragraphs(segments))
}

func TestParagraphsAreBounded(t *testing.T) {
	var segments []timeline.Segment
	for i := 0; i < 8; i++ {
		segments = append(segments, timeline.Segment{Text: "x", Start: float64(i), End: float64(i) + 1})
	}

	paras := Paragraphs(segments)
	if assert.Len(t, paras, 2) {
		assert.Equal(t, MaxParagraphSegments, paras[0].Segments)
		assert.Equal(t, 2, paras[1].Segments)
		assert.Equal(t, 6.0, paras[1].Start)
	}
	assert.Empty(t, Paragraphs(nil))
}
