// Package superadmin keeps the flag for the secondary superadmin login.
//
// The flag lives in the same cookie jar as the session but under its own
// signed, non-expiring entry. It is checked on its own and survives a
// session logout:
//
//	gate := superadmin.New(jar)
//	if err := gate.Enable(); err != nil {
//		return err
//	}
//	ok, err := gate.Enabled()
package superadmin
