package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

func msg(id string, room domain.RoomID, sender domain.UserID, text string) *domain.ChatMessage {
	return &domain.ChatMessage{ID: id, Room: room, SenderID: sender, Username: string(sender), Text: text}
}

func TestMemoryStoreAddAndFind(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AddMessage(msg("m1", "r1", "u1", "hello")))

	got, err := s.FindMessageByID("r1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)

	// Lookup is scoped to the room.
	_, err = s.FindMessageByID("r2", "m1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindMessageByID("r1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AddMessage(msg("m1", "r1", "u1", "original")))

	got, err := s.FindMessageByID("r1", "m1")
	require.NoError(t, err)
	got.Text = "mutated"

	again, err := s.FindMessageByID("r1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Text)
}

func TestMemoryStoreUpdateMessage(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AddMessage(msg("m1", "r1", "u1", "before")))

	updated := msg("m1", "r1", "u1", "after")
	updated.Edited = true
	require.NoError(t, s.UpdateMessage(updated))

	got, err := s.FindMessageByID("r1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "after", got.Text)
	assert.True(t, got.Edited)

	assert.ErrorIs(t, s.UpdateMessage(msg("nope", "r1", "u1", "x")), ErrNotFound)
}

func TestMemoryStoreGetMessagesExcludesPrivate(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AddMessage(msg("m1", "r1", "u1", "public")))
	private := msg("m2", "r1", "u1", "secret")
	private.Recipient = "u2"
	require.NoError(t, s.AddMessage(private))
	require.NoError(t, s.AddMessage(msg("m3", "r2", "u1", "other room")))

	got, err := s.GetMessages("r1", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
}

func TestMemoryStoreGetMessagesLimitOffset(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.AddMessage(msg(id, "r1", "u1", id)))
	}

	got, err := s.GetMessages("r1", 2, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestMemoryStoreThreadIsBidirectional(t *testing.T) {
	s := NewMemoryStore()
	ab := msg("m1", "r1", "a", "a to b")
	ab.Recipient = "b"
	ba := msg("m2", "r1", "b", "b to a")
	ba.Recipient = "a"
	ac := msg("m3", "r1", "a", "a to c")
	ac.Recipient = "c"
	for _, m := range []*domain.ChatMessage{ab, ba, ac} {
		require.NoError(t, s.AddMessage(m))
	}

	got, err := s.GetThread("r1", "a", "b")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "m2", got[1].ID)
}

func TestMemoryStoreSearchSkipsRevokedAndPrivate(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AddMessage(msg("m1", "r1", "u1", "the treaty draft")))
	revoked := msg("m2", "r1", "u1", "treaty leak")
	revoked.Revoked = true
	require.NoError(t, s.AddMessage(revoked))
	private := msg("m3", "r1", "u1", "treaty gossip")
	private.Recipient = "u2"
	require.NoError(t, s.AddMessage(private))

	got, err := s.SearchMessages("r1", "treaty")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
}

func TestMemoryStoreUpsertScoreReplaces(t *testing.T) {
	s := NewMemoryStore()
	first := &domain.ScoreEntry{ID: "s1", Room: "r1", JudgeID: "j1", TargetUserID: "d1",
		DimensionScores: map[string]float64{"strategy": 5}}
	require.NoError(t, s.UpsertScore(first))

	second := &domain.ScoreEntry{ID: "s2", Room: "r1", JudgeID: "j1", TargetUserID: "d1",
		DimensionScores: map[string]float64{"strategy": 9}}
	require.NoError(t, s.UpsertScore(second))

	other := &domain.ScoreEntry{ID: "s3", Room: "r1", JudgeID: "j2", TargetUserID: "d1",
		DimensionScores: map[string]float64{"strategy": 7}}
	require.NoError(t, s.UpsertScore(other))

	got, err := s.GetScores("r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 9.0, got[0].DimensionScores["strategy"])
}
