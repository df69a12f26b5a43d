package user

import (
	"github.com/favo-app/favo-web/internal/api"
)

// Profile is what other users may see of an account. Email is never shown.
type Profile struct {
	ID          int64     `json:"id_usuario"`
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion,omitempty"`
	AvatarURL   string    `json:"foto_perfil,omitempty"`
	Verified    bool      `json:"verificado"`
	MemberSince *api.Time `json:"fecha_registro,omitempty"`
	Roles       []string  `json:"roles"`
}

// PublicProfile projects u onto the fields other users may see.
func PublicProfile(u api.User, roles []string) Profile {
	return Profile{
		ID:          u.ID,
		Name:        u.Name,
		Description: u.Description,
		AvatarURL:   u.Photo,
		Verified:    u.Verified,
		MemberSince: u.RegisteredAt,
		Roles:       roles,
	}
}
