package session

// Credentials is the persisted token pair together with the persistence tier
// chosen at login.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	RememberMe   bool   `json:"rememberMe"`
}

// Session is a snapshot of the current authentication state.
// Values returned by Store are copies; mutating them does not affect the store.
type Session struct {
	AccessToken  string
	RefreshToken string

	// User is always derived from AccessToken's payload, except after
	// Store.UpdateUser/MergeUser which replace profile fields in place.
	User Claims

	// RememberMe selects the durable persister instead of the ephemeral one.
	RememberMe bool
}

// IsAuthenticated reports whether the session carries a decoded access token.
func (s Session) IsAuthenticated() bool {
	return s.AccessToken != "" && s.User != nil
}

// Credentials returns the persistable part of the session.
func (s Session) Credentials() Credentials {
	return Credentials{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		RememberMe:   s.RememberMe,
	}
}

func (s Session) clone() Session {
	s.User = s.User.Clone()
	return s
}
