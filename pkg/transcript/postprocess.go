package transcript

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/eternnoir/videocaps/pkg/timeline"
)

const (
	// ParagraphPause is the gap in seconds between two segments that starts a new paragraph
	ParagraphPause = 2.0
	// MaxParagraphSegments bounds how many segments one paragraph holds
	MaxParagraphSegments = 6
)

var (
	spaceRun          = regexp.MustCompile(`\s+`)
	spaceBeforePunct  = regexp.MustCompile(`\s+([,.!?;:])`)
	missingSpaceAfter = regexp.MustCompile(`([,.!?;:])([A-Za-z])`)
	loneLowerI        = regexp.MustCompile(`\bi\b`)
	questionPhrase    = regexp.MustCompile(`\b(is it|are you|do you|can you|could you|would you|should i)\b`)
	sentenceEnd       = regexp.MustCompile(`[.!?]$`)

	questionWords = map[string]bool{
		"who": true, "what": true, "when": true, "where": true, "why": true, "how": true,
		"is": true, "are": true, "do": true, "does": true, "did": true,
		"can": true, "could": true, "would": true, "should": true,
	}
)

// Paragraph is a run of consecutive segments read as one block of text
type Paragraph struct {
	Speaker  string  `json:"speaker,omitempty"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Segments int     `json:"segments"`
	Text     string  `json:"text"`
}

// NormalizeSpacing collapses whitespace and fixes spacing around punctuation
func NormalizeSpacing(text string) string {
	text = spaceRun.ReplaceAllString(text, " ")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = missingSpaceAfter.ReplaceAllString(text, "$1 $2")
	return strings.TrimSpace(text)
}

// IsQuestion reports whether a sentence reads as a question: it opens with a
// question word or contains a phrase such as "do you"
func IsQuestion(sentence string) bool {
	fields := strings.Fields(sentence)
	if len(fields) == 0 {
		return false
	}
	if questionWords[strings.ToLower(strings.TrimRight(fields[0], ",.!?"))] {
		return true
	}
	return questionPhrase.MatchString(strings.ToLower(sentence))
}

// CleanSegmentText tidies one caption for reading: spacing, a capital first
// letter, a capital "I" and closing punctuation ("?" for questions)
func CleanSegmentText(text string) string {
	text = NormalizeSpacing(text)
	if text == "" {
		return text
	}

	r, size := utf8.DecodeRuneInString(text)
	text = string(unicode.ToUpper(r)) + text[size:]
	text = loneLowerI.ReplaceAllString(text, "I")

	if !sentenceEnd.MatchString(text) {
		if IsQuestion(text) {
			text += "?"
		} else {
			text += "."
		}
	}
	return text
}

// ProcessSegments returns a copy of segments with every text cleaned by
// CleanSegmentText. Timing and speakers are untouched.
func ProcessSegments(segments []timeline.Segment) []timeline.Segment {
	out := make([]timeline.Segment, len(segments))
	for i, seg := range segments {
		seg.Text = CleanSegmentText(seg.Text)
		out[i] = seg
	}
	return out
}

// Paragraphs groups segments in display order. A new paragraph starts when
// the speaker changes, after a pause longer than ParagraphPause, or once the
// current one holds MaxParagraphSegments segments. Segments without text are
// skipped.
func Paragraphs(segments []timeline.Segment) []Paragraph {
	var (
		out         []Paragraph
		current     *Paragraph
		texts       []string
		lastSpeaker string
		lastEnd     float64
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(texts, " ")
		out = append(out, *current)
		current, texts = nil, nil
	}

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		brk := (seg.Speaker != "" && seg.Speaker != lastSpeaker) ||
			seg.Start-lastEnd > ParagraphPause ||
			len(texts) >= MaxParagraphSegments
		if brk {
			flush()
		}
		if current == nil {
			current = &Paragraph{Speaker: seg.Speaker, Start: seg.Start}
		}

		texts = append(texts, text)
		current.End = seg.End
		current.Segments++
		lastSpeaker = seg.Speaker
		lastEnd = seg.End
	}
	flush()
	return out
}
