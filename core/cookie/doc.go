// Package cookie provides tamper-proof, optionally encrypted cookies kept in
// a file-backed jar. The SquadCart client uses it as its long-lived
// "remember me" credential store and for the superadmin flag.
//
// # Features
//
//   - AES-256-GCM sealing with the cookie name bound as additional data
//   - HMAC-SHA256 signing for values that may stay readable
//   - Keys derived per secret with HKDF-SHA256; several secrets allow rotation
//   - Max-age expiry, checked on read
//   - 4KB size limit per cookie
//   - Atomic file replacement (temp file + rename), 0600 permissions
//
// # Basic Usage
//
//	codec, err := cookie.NewCodec([]string{"your-32-char-secret-key-here!!!!"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	jar, err := cookie.NewJar(".squadcart/cookies.json", codec,
//		cookie.WithDefaults(cookie.WithMaxAge(30*24*3600)),
//	)
//
//	err = jar.Set("squadcart_session", payload)
//	value, err := jar.Get("squadcart_session")
//	if errors.Is(err, cookie.ErrCookieNotFound) || errors.Is(err, cookie.ErrExpired) {
//		// nothing usable stored
//	}
//	err = jar.Delete("squadcart_session")
//
// # Key Rotation
//
// Put the new secret first. Values sealed or signed with older secrets keep
// working until they are rewritten:
//
//	codec, _ := cookie.NewCodec([]string{newSecret, oldSecret})
//
// # Configuration
//
//	COOKIE_SECRETS   comma-separated secrets, at least 32 chars each
//	COOKIE_JAR_PATH  jar file; defaults to $SESSION_DIR/cookies.json
//	COOKIE_MAX_AGE   default max-age in seconds (30 days)
//	COOKIE_MAX_SIZE  per-cookie size limit (4096)
package cookie
