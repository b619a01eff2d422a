// Package identity manages user profiles and the active session.
//
// Profiles live at system/users/<username>.json under the VFS root. The
// active session is a single file, system/user.json, holding a full copy of
// the logged-in profile; its absence means nobody is logged in. The Store is
// the only code that touches either.
//
//	LoggedOut --Login/SwitchUser--> LoggedIn
//	LoggedIn  --Login/SwitchUser/UpdateProfile--> LoggedIn
//	LoggedIn  --Logout--> LoggedOut
//
// SwitchUser takes no password. Any caller that can reach it can become any
// user; deployments that expose the API beyond one desktop must put their
// own authentication in front of it.
package identity
