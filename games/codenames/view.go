/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

// ViewFor returns a copy of the room as the device holding sessionID may see
// it. Other devices' session ids are blanked, since a session id is all a
// device needs to act as its owner. Spymasters see the whole key. Everyone
// else sees face-down cards as CardHidden until the game is over.
func (r *Room) ViewFor(sessionID string) *Room {
	view := r.Clone()
	if view == nil {
		return nil
	}

	role := view.RoleOf(sessionID)

	for i := range view.Players {
		if view.Players[i].SessionID != sessionID {
			view.Players[i].SessionID = ""
		}
	}

	if role.Spymaster() || view.Phase == PhaseGameOver {
		return view
	}

	for i := range view.Board {
		if !view.Board[i].Revealed {
			view.Board[i].Type = CardHidden
		}
	}

	return view
}

// RoleOf returns the role of a session, or RoleSpectator if it is unknown.
func (r *Room) RoleOf(sessionID string) Role {
	if p, ok := r.Player(sessionID); ok {
		return p.Role
	}
	return RoleSpectator
}
