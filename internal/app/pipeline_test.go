package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/store"
)

func testParticipant(id domain.UserID, role domain.Role) *domain.Participant {
	return &domain.Participant{UserID: id, Username: string(id), Role: role, RoomID: "r1"}
}

func newTestPipeline() *Pipeline {
	return NewPipeline(store.NewMemoryStore(), 100)
}

func TestSendRejectsEmptyText(t *testing.T) {
	p := newTestPipeline()
	_, err := p.Send(testParticipant("u1", domain.RoleDelegate), SendInput{Text: "   "})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestSendTrimsAndStamps(t *testing.T) {
	p := newTestPipeline()
	msg, err := p.Send(testParticipant("u1", domain.RoleDelegate), SendInput{Text: "  hello  "})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.NotEmpty(t, msg.ID)
	assert.NotEmpty(t, msg.Timestamp)
	assert.Equal(t, domain.RoomID("r1"), msg.Room)
}

func TestSendAttachesQuoteSnapshot(t *testing.T) {
	p := newTestPipeline()
	orig, err := p.Send(testParticipant("u1", domain.RoleDelegate), SendInput{Text: "quote me"})
	require.NoError(t, err)

	reply, err := p.Send(testParticipant("u2", domain.RoleDelegate), SendInput{Text: "reply", QuoteID: orig.ID})
	require.NoError(t, err)
	require.NotNil(t, reply.Quote)
	assert.Equal(t, orig.ID, reply.Quote.ID)
	assert.Equal(t, "quote me", reply.Quote.Text)

	// The snapshot survives a later edit of the quoted message.
	_, err = p.Edit(testParticipant("u1", domain.RoleDelegate), orig.ID, "rewritten")
	require.NoError(t, err)
	assert.Equal(t, "quote me", reply.Quote.Text)
}

func TestSendSilentlyDropsUnresolvableQuote(t *testing.T) {
	p := newTestPipeline()
	msg, err := p.Send(testParticipant("u1", domain.RoleDelegate), SendInput{Text: "hi", QuoteID: "missing"})
	require.NoError(t, err)
	assert.Nil(t, msg.Quote)
}

func TestSendDoesNotQuoteRevokedMessage(t *testing.T) {
	p := newTestPipeline()
	author := testParticipant("u1", domain.RoleDelegate)
	orig, err := p.Send(author, SendInput{Text: "retract this"})
	require.NoError(t, err)
	_, err = p.Revoke(author, orig.ID)
	require.NoError(t, err)

	reply, err := p.Send(testParticipant("u2", domain.RoleDelegate), SendInput{Text: "reply", QuoteID: orig.ID})
	require.NoError(t, err)
	assert.Nil(t, reply.Quote)
}

func TestEditPermissions(t *testing.T) {
	p := newTestPipeline()
	orig, err := p.Send(testParticipant("u1", domain.RoleDelegate), SendInput{Text: "original"})
	require.NoError(t, err)

	// Another delegate may not edit.
	_, err = p.Edit(testParticipant("u2", domain.RoleDelegate), orig.ID, "hijacked")
	require.Error(t, err)
	assert.Equal(t, domain.KindPermission, domain.KindOf(err))

	// The author may.
	got, err := p.Edit(testParticipant("u1", domain.RoleDelegate), orig.ID, "fixed")
	require.NoError(t, err)
	assert.True(t, got.Edited)
	assert.Equal(t, "fixed", got.Text)
	assert.Equal(t, "u1", got.EditBy)

	// So may a moderator role.
	got, err = p.Edit(testParticipant("mod", domain.RoleHost), orig.ID, "moderated")
	require.NoError(t, err)
	assert.Equal(t, "mod", got.EditBy)
}

func TestRevokeReturnsOriginalAndRejectsSecond(t *testing.T) {
	p := newTestPipeline()
	author := testParticipant("u1", domain.RoleDelegate)
	orig, err := p.Send(author, SendInput{Text: "sensitive"})
	require.NoError(t, err)

	got, err := p.Revoke(testParticipant("mod", domain.RoleAdmin), orig.ID)
	require.NoError(t, err)
	assert.Equal(t, "sensitive", got.Text)
	assert.False(t, got.Revoked)

	// Second revoke fails and the audit trail stays intact.
	_, err = p.Revoke(author, orig.ID)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestEditRejectsRevokedMessage(t *testing.T) {
	st := store.NewMemoryStore()
	p := NewPipeline(st, 100)
	author := testParticipant("u1", domain.RoleDelegate)
	orig, err := p.Send(author, SendInput{Text: "withdrawn"})
	require.NoError(t, err)
	_, err = p.Revoke(author, orig.ID)
	require.NoError(t, err)

	// Neither the author nor a moderator may rewrite a revoked message.
	_, err = p.Edit(author, orig.ID, "resurrected")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = p.Edit(testParticipant("mod", domain.RoleAdmin), orig.ID, "resurrected")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	// The audit record is untouched.
	stored, err := st.FindMessageByID("r1", orig.ID)
	require.NoError(t, err)
	assert.True(t, stored.Revoked)
	assert.Equal(t, "withdrawn", stored.Text)
	assert.False(t, stored.Edited)
}

func TestRevokePermissions(t *testing.T) {
	p := newTestPipeline()
	orig, err := p.Send(testParticipant("u1", domain.RoleDelegate), SendInput{Text: "mine"})
	require.NoError(t, err)

	_, err = p.Revoke(testParticipant("u2", domain.RoleStudent), orig.ID)
	require.Error(t, err)
	assert.Equal(t, domain.KindPermission, domain.KindOf(err))

	_, err = p.Revoke(testParticipant("u1", domain.RoleDelegate), "missing")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestHistoryFiltersRevoked(t *testing.T) {
	p := newTestPipeline()
	author := testParticipant("u1", domain.RoleDelegate)
	m1, err := p.Send(author, SendInput{Text: "one"})
	require.NoError(t, err)
	_, err = p.Send(author, SendInput{Text: "two"})
	require.NoError(t, err)
	_, err = p.Revoke(author, m1.ID)
	require.NoError(t, err)

	got, err := p.History("r1", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "two", got[0].Text)
}

func TestHistoryOffsetAppliesAfterFiltering(t *testing.T) {
	p := newTestPipeline()
	author := testParticipant("u1", domain.RoleDelegate)
	first, err := p.Send(author, SendInput{Text: "a"})
	require.NoError(t, err)
	for _, text := range []string{"b", "c", "d"} {
		_, err := p.Send(author, SendInput{Text: text})
		require.NoError(t, err)
	}
	_, err = p.Revoke(author, first.ID)
	require.NoError(t, err)

	got, err := p.History("r1", 2, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Text)
	assert.Equal(t, "d", got[1].Text)

	got, err = p.History("r1", 0, 99)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecentBufferIsBoundedAndSkipsPrivate(t *testing.T) {
	p := NewPipeline(store.NewMemoryStore(), 3)
	author := testParticipant("u1", domain.RoleDelegate)
	for _, text := range []string{"1", "2", "3", "4", "5"} {
		_, err := p.Send(author, SendInput{Text: text})
		require.NoError(t, err)
	}
	_, err := p.Send(author, SendInput{Text: "psst", To: "u2"})
	require.NoError(t, err)

	got := p.Recent("r1")
	require.Len(t, got, 3)
	assert.Equal(t, "3", got[0].Text)
	assert.Equal(t, "5", got[2].Text)
}

func TestRecentReflectsRevoke(t *testing.T) {
	p := newTestPipeline()
	author := testParticipant("u1", domain.RoleDelegate)
	m1, err := p.Send(author, SendInput{Text: "gone"})
	require.NoError(t, err)
	_, err = p.Send(author, SendInput{Text: "kept"})
	require.NoError(t, err)
	_, err = p.Revoke(author, m1.ID)
	require.NoError(t, err)

	got := p.Recent("r1")
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Text)
}

func TestUserSummaryCountsLiveMessages(t *testing.T) {
	p := newTestPipeline()
	alice := testParticipant("alice", domain.RoleDelegate)
	bob := testParticipant("bob", domain.RoleDelegate)
	for i := 0; i < 2; i++ {
		_, err := p.Send(alice, SendInput{Text: "from alice"})
		require.NoError(t, err)
	}
	m, err := p.Send(bob, SendInput{Text: "from bob"})
	require.NoError(t, err)
	_, err = p.Revoke(bob, m.ID)
	require.NoError(t, err)

	summary, err := p.UserSummary("r1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alice": 2}, summary)
}

func TestImageMessage(t *testing.T) {
	p := newTestPipeline()
	msg, err := p.Send(testParticipant("u1", domain.RoleDelegate), SendInput{
		Image: &domain.ImagePayload{URL: "https://cdn.example/x.png", Name: "x.png", Size: 1024},
	})
	require.NoError(t, err)
	require.NotNil(t, msg.Image)
	assert.Empty(t, msg.Text)

	_, err = p.Send(testParticipant("u1", domain.RoleDelegate), SendInput{Image: &domain.ImagePayload{URL: "  "}})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
