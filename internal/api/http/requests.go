package http

import "github.com/yasakei/xos/internal/domain/identity"

type writeRequest struct {
	FilePath string  `json:"filePath"`
	Content  *string `json:"content"`
}

type uploadRequest struct {
	FilePath   string `json:"filePath"`
	Base64Data string `json:"base64Data"`
}

type createRequest struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

type deleteRequest struct {
	Path string `json:"path"`
}

type renameRequest struct {
	OldPath string `json:"oldPath"`
	NewPath string `json:"newPath"`
}

type createUserRequest struct {
	UserData *identity.NewUser `json:"userData"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type switchRequest struct {
	Username string `json:"username"`
}

type updateProfileRequest struct {
	Updates *identity.ProfilePatch `json:"updates"`
}

type verifyPasswordRequest struct {
	Password string `json:"password"`
}
