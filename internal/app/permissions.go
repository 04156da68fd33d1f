package app

import "github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"

// Action names a mutating operation gated by role. Every handler
// consults the same capability table instead of repeating role lists.
type Action string

const (
	ActionToggleSpeak       Action = "toggleSpeak"
	ActionSetSpeaking       Action = "setSpeaking"
	ActionSetSpeakTimeLimit Action = "setSpeakTimeLimit"
	ActionSetScore          Action = "setScore"
	ActionRaiseHand         Action = "raiseHand"
	ActionTimerControl      Action = "timerControl"
	ActionSubmitScore       Action = "submitScore"
	ActionModerateMessage   Action = "moderateMessage"
)

var capabilities = map[Action][]domain.Role{
	ActionToggleSpeak:       {domain.RoleHost, domain.RoleJudge, domain.RoleAdmin, domain.RoleSys},
	ActionSetSpeaking:       {domain.RoleHost, domain.RoleJudge, domain.RoleAdmin, domain.RoleSys},
	ActionSetSpeakTimeLimit: {domain.RoleHost, domain.RoleJudge, domain.RoleAdmin, domain.RoleSys},
	ActionSetScore:          {domain.RoleJudge, domain.RoleAdmin, domain.RoleSys, domain.RoleObserver},
	ActionTimerControl:      {domain.RoleHost, domain.RoleAdmin, domain.RoleSys},
	ActionSubmitScore:       {domain.RoleJudge, domain.RoleAdmin, domain.RoleSys, domain.RoleHost},
	ActionModerateMessage:   {domain.RoleAdmin, domain.RoleSys, domain.RoleHost},
}

// selfServe lists status actions a participant may always apply to
// themselves, whatever their role.
var selfServe = map[Action]bool{
	ActionRaiseHand:   true,
	ActionSetSpeaking: true,
	ActionToggleSpeak: false, // mic permission is granted, not taken
}

// Allowed reports whether role may perform action on another participant.
func Allowed(action Action, role domain.Role) bool {
	for _, r := range capabilities[action] {
		if r == role {
			return true
		}
	}
	return false
}

// AllowedOn resolves the full rule: self-service actions bypass the
// table when actor and target coincide.
func AllowedOn(action Action, role domain.Role, self bool) bool {
	if self && selfServe[action] {
		return true
	}
	return Allowed(action, role)
}
