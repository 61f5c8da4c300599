// Package session provides session management for the rover simulator.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management and expiry
//
// Sessions use 4-character hex IDs generated from crypto/rand and are looked
// up case-insensitively. Each session owns the rovers deployed from its
// mission; two sessions built from the same mission never share a rover.
//
// Sessions are kept in memory only and are lost when the process exits.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", "classic", mission)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
package session
