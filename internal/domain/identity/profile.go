package identity

import (
	"slices"
	"time"
)

// DefaultWallpaper is reported when a profile has no wallpaper set
const DefaultWallpaper = "/wallpapers/default.png"

// Profile is the persisted user record
type Profile struct {
	Username            string     `json:"username"`
	Pfp                 string     `json:"pfp,omitempty"`
	Salt                string     `json:"salt"`
	PasswordHash        string     `json:"passwordHash"`
	Wallpaper           string     `json:"wallpaper,omitempty"`
	LockScreenWallpaper string     `json:"lockScreenWallpaper,omitempty"`
	LockScreenFont      string     `json:"lockScreenFont,omitempty"`
	CustomWallpapers    []string   `json:"customWallpapers,omitempty"`
	CustomThemes        []string   `json:"customThemes,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	LastLogin           *time.Time `json:"lastLogin"`
}

// StoredPasswordHash returns the hash used as the content key of the user
func (p *Profile) StoredPasswordHash() string {
	if p == nil {
		return ""
	}
	return p.PasswordHash
}

// Public returns the credential-free view of the profile
func (p *Profile) Public() *PublicProfile {
	pub := &PublicProfile{
		Username:            p.Username,
		Pfp:                 p.Pfp,
		Wallpaper:           p.Wallpaper,
		LockScreenWallpaper: p.LockScreenWallpaper,
		LockScreenFont:      p.LockScreenFont,
		CustomWallpapers:    slices.Clone(p.CustomWallpapers),
		CustomThemes:        slices.Clone(p.CustomThemes),
		CreatedAt:           p.CreatedAt,
		LastLogin:           p.LastLogin,
	}
	if pub.Wallpaper == "" {
		pub.Wallpaper = DefaultWallpaper
	}
	if pub.LockScreenWallpaper == "" {
		pub.LockScreenWallpaper = DefaultWallpaper
	}
	if pub.CustomWallpapers == nil {
		pub.CustomWallpapers = []string{}
	}
	if pub.CustomThemes == nil {
		pub.CustomThemes = []string{}
	}
	return pub
}

// Summary returns the user picker entry of the profile
func (p *Profile) Summary() UserSummary {
	return UserSummary{Username: p.Username, Pfp: p.Pfp, LastLogin: p.LastLogin}
}

// PublicProfile is a profile without salt and password hash
type PublicProfile struct {
	Username            string     `json:"username"`
	Pfp                 string     `json:"pfp,omitempty"`
	Wallpaper           string     `json:"wallpaper"`
	LockScreenWallpaper string     `json:"lockScreenWallpaper"`
	LockScreenFont      string     `json:"lockScreenFont"`
	CustomWallpapers    []string   `json:"customWallpapers"`
	CustomThemes        []string   `json:"customThemes"`
	CreatedAt           time.Time  `json:"createdAt"`
	LastLogin           *time.Time `json:"lastLogin"`
}

// UserSummary is shown by the user picker
type UserSummary struct {
	Username  string     `json:"username"`
	Pfp       string     `json:"pfp,omitempty"`
	LastLogin *time.Time `json:"lastLogin"`
}

// ProfileFields are the user-editable profile fields. Nil means unchanged.
type ProfileFields struct {
	Pfp                 *string  `json:"pfp,omitempty"`
	Wallpaper           *string  `json:"wallpaper,omitempty"`
	LockScreenWallpaper *string  `json:"lockScreenWallpaper,omitempty"`
	LockScreenFont      *string  `json:"lockScreenFont,omitempty"`
	CustomWallpapers    []string `json:"customWallpapers,omitempty"`
	CustomThemes        []string `json:"customThemes,omitempty"`
}

// ProfilePatch is a profile update. WallpaperToRemove and ThemeToRemove are
// cleanup requests carried out before the merge and never persisted.
type ProfilePatch struct {
	ProfileFields
	WallpaperToRemove string `json:"wallpaperToRemove,omitempty"`
	ThemeToRemove     string `json:"themeToRemove,omitempty"`
}

// NewUser is the input of CreateUser. Either Password or both PasswordHash
// and Salt must be set; a plaintext password is hashed by the store.
type NewUser struct {
	Username     string `json:"username"`
	Password     string `json:"password,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
	Salt         string `json:"salt,omitempty"`
	ProfileFields
}

// apply merges fields into p
func (f ProfileFields) apply(p *Profile, sanitize func(string) string) {
	if f.Pfp != nil {
		p.Pfp = *f.Pfp
	}
	if f.Wallpaper != nil {
		p.Wallpaper = *f.Wallpaper
	}
	if f.LockScreenWallpaper != nil {
		p.LockScreenWallpaper = *f.LockScreenWallpaper
	}
	if f.LockScreenFont != nil {
		p.LockScreenFont = sanitize(*f.LockScreenFont)
	}
	if f.CustomWallpapers != nil {
		p.CustomWallpapers = dedupe(f.CustomWallpapers)
	}
	if f.CustomThemes != nil {
		p.CustomThemes = dedupe(f.CustomThemes)
	}
}

// dedupe drops repeated and empty values, keeping first occurrences in order
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
