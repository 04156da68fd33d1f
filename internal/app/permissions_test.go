package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		action Action
		role   domain.Role
		want   bool
	}{
		{ActionTimerControl, domain.RoleHost, true},
		{ActionTimerControl, domain.RoleAdmin, true},
		{ActionTimerControl, domain.RoleSys, true},
		{ActionTimerControl, domain.RoleJudge, false},
		{ActionTimerControl, domain.RoleDelegate, false},
		{ActionTimerControl, domain.RoleStudent, false},
		{ActionSubmitScore, domain.RoleJudge, true},
		{ActionSubmitScore, domain.RoleHost, true},
		{ActionSubmitScore, domain.RoleDelegate, false},
		{ActionSubmitScore, domain.RoleObserver, false},
		{ActionModerateMessage, domain.RoleHost, true},
		{ActionModerateMessage, domain.RoleJudge, false},
		{ActionToggleSpeak, domain.RoleJudge, true},
		{ActionToggleSpeak, domain.RoleStudent, false},
		{ActionSetScore, domain.RoleObserver, true},
		// raiseHand is self-serve only, the table grants it to nobody.
		{ActionRaiseHand, domain.RoleHost, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Allowed(c.action, c.role), "Allowed(%s,%s)", c.action, c.role)
	}
}

func TestAllowedOnSelf(t *testing.T) {
	// Anyone can raise their own hand or mark themselves speaking.
	assert.True(t, AllowedOn(ActionRaiseHand, domain.RoleStudent, true))
	assert.True(t, AllowedOn(ActionSetSpeaking, domain.RoleDelegate, true))

	// Mic permission is granted by a moderator, never self-taken.
	assert.False(t, AllowedOn(ActionToggleSpeak, domain.RoleStudent, true))
	assert.True(t, AllowedOn(ActionToggleSpeak, domain.RoleHost, true))

	// Self-serve does not leak onto other targets.
	assert.False(t, AllowedOn(ActionRaiseHand, domain.RoleStudent, false))
}
