package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternnoir/videocaps/pkg/timeline"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := openStore(t)

	rec := SessionRecord{ID: "abc", Transcript: "/data/talk.json", Duration: 100}
	require.NoError(t, s.SaveSession(rec))

	got, err := s.GetSession("abc")
	require.NoError(t, err)
	assert.Equal(t, "/data/talk.json", got.Transcript)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.GetSession("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.DeleteSession("abc"))
	_, err = s.GetSession("abc")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.DeleteSession("abc"), ErrNotFound))
}

func TestSaveSessionRequiresID(t *testing.T) {
	s := openStore(t)
	assert.Error(t, s.SaveSession(SessionRecord{}))
}

func TestListSessionsOrdered(t *testing.T) {
	s := openStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveSession(SessionRecord{ID: "z", CreatedAt: base.Add(2 * time.Hour)}))
	require.NoError(t, s.SaveSession(SessionRecord{ID: "a", CreatedAt: base.Add(1 * time.Hour)}))
	require.NoError(t, s.SaveSession(SessionRecord{ID: "m", CreatedAt: base}))

	list, err := s.ListSessions()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"m", "a", "z"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestFindByTranscript(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.SaveSession(SessionRecord{ID: "one", Transcript: "a.json"}))
	require.NoError(t, s.SaveSession(SessionRecord{ID: "two", Transcript: "b.json"}))

	rec, err := s.FindByTranscript("b.json")
	require.NoError(t, err)
	assert.Equal(t, "two", rec.ID)

	_, err = s.FindByTranscript("c.json")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEditJournal(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.SaveSession(SessionRecord{ID: "abc"}))

	for i := 0; i < 12; i++ {
		seq, err := s.RecordEdit("abc", Edit{Index: i % 3, Start: float64(i), End: float64(i) + 1})
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), seq)
	}

	edits, err := s.Edits("abc")
	require.NoError(t, err)
	require.Len(t, edits, 12)
	for i, e := range edits {
		assert.Equal(t, uint64(i+1), e.Seq, "edits come back in commit order")
		assert.Equal(t, float64(i), e.Start)
		assert.False(t, e.At.IsZero())
	}

	_, err = s.RecordEdit("nope", Edit{})
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.ClearEdits("abc"))
	edits, err = s.Edits("abc")
	require.NoError(t, err)
	assert.Empty(t, edits)
}

func TestDeleteSessionDropsEdits(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.SaveSession(SessionRecord{ID: "abc"}))
	_, err := s.RecordEdit("abc", Edit{Index: 0, Start: 1, End: 2})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSession("abc"))
	require.NoError(t, s.SaveSession(SessionRecord{ID: "abc"}))

	edits, err := s.Edits("abc")
	require.NoError(t, err)
	assert.Empty(t, edits)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveSession(SessionRecord{ID: "abc"}))
	_, err = s.RecordEdit("abc", Edit{Index: 1, Start: 4, End: 6})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	edits, err := s.Edits("abc")
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, 4.0, edits[0].Start)
}

func TestApplyEdits(t *testing.T) {
	tl := timeline.New([]timeline.Segment{
		{Text: "a", Start: 0, End: 1},
		{Text: "b", Start: 5, End: 6},
	}, 10)

	out := ApplyEdits(tl, []Edit{
		{Index: 0, Start: 2, End: 3},
		{Index: 1, Start: 8, End: 40}, // clamped to the duration
		{Index: 7, Start: 1, End: 2},  // unknown index
		{Index: 0, Start: 2.5, End: 3.5},
	})

	segs := out.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, timeline.Segment{Text: "a", Start: 2.5, End: 3.5}, segs[0])
	assert.Equal(t, timeline.Segment{Text: "b", Start: 8, End: 10}, segs[1])

	orig := tl.Segments()
	assert.Equal(t, 0.0, orig[0].Start, "the input timeline is not modified")
}

func TestEditsSince(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.SaveSession(SessionRecord{ID: "abc"}))
	for i := 0; i < 5; i++ {
		_, err := s.RecordEdit("abc", Edit{Index: 0, Start: float64(i), End: float64(i) + 1})
		require.NoError(t, err)
	}

	edits, err := s.EditsSince("abc", 3)
	require.NoError(t, err)
	require.Len(t, edits, 2)
	assert.Equal(t, uint64(4), edits[0].Seq)
	assert.Equal(t, uint64(5), edits[1].Seq)

	edits, err = s.EditsSince("abc", 5)
	require.NoError(t, err)
	assert.Empty(t, edits)

	edits, err = s.EditsSince("unknown", 0)
	require.NoError(t, err)
	assert.Empty(t, edits)
}
