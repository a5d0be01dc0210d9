package transcript

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/eternnoir/videocaps/pkg/timeline"
)

const (
	defaultKeywords  = 10
	defaultKeyPoints = 5
	// texts shorter than this yield no keywords
	minKeywordText = 50
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+\s+`)
	keywordToken  = regexp.MustCompile(`\b[a-z]{3,}\b`)

	stopWords = map[string]bool{
		"the": true, "and": true, "but": true, "for": true, "with": true, "from": true,
		"was": true, "are": true, "were": true, "been": true, "being": true, "have": true,
		"has": true, "had": true, "does": true, "did": true, "will": true, "would": true,
		"could": true, "should": true, "may": true, "might": true, "must": true, "can": true,
		"this": true, "that": true, "these": true, "those": true, "you": true, "she": true,
		"they": true,
	}
)

// Keyword is a frequent content word of a transcript
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
	Rank  int    `json:"rank"`
}

// Insights summarises a transcript without any model: timing and speaker
// statistics, frequency keywords and extractive key points
type Insights struct {
	Segments       int       `json:"segments"`
	SpeechDuration float64   `json:"speech_duration"`
	AverageSegment float64   `json:"average_segment"`
	Speakers       []string  `json:"speakers"`
	WordCount      int       `json:"word_count"`
	SentenceCount  int       `json:"sentence_count"`
	Keywords       []Keyword `json:"keywords"`
	KeyPoints      []string  `json:"key_points"`
}

// Analyze computes the insights of segments
func Analyze(segments []timeline.Segment) Insights {
	ins := Insights{
		Segments:  len(segments),
		Speakers:  []string{},
		Keywords:  []Keyword{},
		KeyPoints: []string{},
	}

	seen := make(map[string]bool)
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		ins.SpeechDuration += seg.Duration()
		if seg.Speaker != "" && !seen[seg.Speaker] {
			seen[seg.Speaker] = true
			ins.Speakers = append(ins.Speakers, seg.Speaker)
		}
		if t := strings.TrimSpace(seg.Text); t != "" {
			texts = append(texts, t)
		}
	}
	sort.Strings(ins.Speakers)
	if len(segments) > 0 {
		ins.AverageSegment = round2(ins.SpeechDuration / float64(len(segments)))
	}
	ins.SpeechDuration = round2(ins.SpeechDuration)

	text := strings.Join(texts, " ")
	sentences := Sentences(text)
	ins.WordCount = len(strings.Fields(text))
	ins.SentenceCount = len(sentences)
	ins.Keywords = Keywords(text, defaultKeywords)
	ins.KeyPoints = KeyPoints(sentences, defaultKeyPoints)
	return ins
}

// Sentences splits text at sentence punctuation followed by whitespace
func Sentences(text string) []string {
	var out []string
	for _, s := range sentenceSplit.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Keywords returns up to n words of three or more letters ranked by frequency,
// ignoring stop words. Ties keep the order of first use.
func Keywords(text string, n int) []Keyword {
	out := []Keyword{}
	if len(strings.TrimSpace(text)) < minKeywordText || n <= 0 {
		return out
	}

	counts := make(map[string]int)
	var order []string
	for _, w := range keywordToken.FindAllString(strings.ToLower(text), -1) {
		if stopWords[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	for i, w := range order {
		if i == n {
			break
		}
		out = append(out, Keyword{Word: w, Count: counts[w], Rank: i + 1})
	}
	return out
}

// KeyPoints picks up to n sentences, favouring the first and last, those of
// ten to thirty words and questions, and returns them in their original order
func KeyPoints(sentences []string, n int) []string {
	if len(sentences) <= n {
		return append([]string{}, sentences...)
	}

	type scored struct {
		score, index int
	}
	all := make([]scored, len(sentences))
	for i, s := range sentences {
		score := 0
		if i == 0 || i == len(sentences)-1 {
			score += 2
		}
		if words := len(strings.Fields(s)); words >= 10 && words <= 30 {
			score++
		}
		if strings.Contains(s, "?") {
			score++
		}
		all[i] = scored{score: score, index: i}
	}

	// later sentences win ties
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].index > all[j].index
	})
	picked := all[:n]
	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })

	out := make([]string, len(picked))
	for i, p := range picked {
		out[i] = sentences[p.index]
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
