package library

import (
	"strings"

	"github.com/dmitrymomot/letterpress/pkg/compose"
)

// ProfileLocation is the office a profile belongs to.
type ProfileLocation struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ProfileFile is the on-disk form of a profile, Signatures/<name>.json.
type ProfileFile struct {
	Location      ProfileLocation `json:"location"`
	SignatureName string          `json:"signature_name"`
	Name          string          `json:"name"`
	Position      string          `json:"position"`
	Department    string          `json:"department"`
	Company       string          `json:"company"`
	ImageFilename string          `json:"image_filename"`
}

// Validate checks that the profile can be stored.
func (p ProfileFile) Validate() error {
	if strings.TrimSpace(p.SignatureName) == "" {
		return ErrInvalidProfile
	}
	return nil
}

// ToProfile converts the stored form into a composition profile.
func (p ProfileFile) ToProfile() *compose.Profile {
	return &compose.Profile{
		DisplayName:  p.Name,
		Role:         p.Position,
		Department:   p.Department,
		Organization: p.Company,
		Location:     compose.Location{Name: p.Location.Name, Address: p.Location.Address},
		ImageRef:     p.ImageFilename,
	}
}
