package nostr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Profile is the metadata a user publishes in kind-0 notes.
type Profile struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	About       string `json:"about,omitempty"`
	Picture     string `json:"picture,omitempty"`
	Banner      string `json:"banner,omitempty"`
	NIP05       string `json:"nip05,omitempty"`
	LUD16       string `json:"lud16,omitempty"`
	LUD06       string `json:"lud06,omitempty"`
	Website     string `json:"website,omitempty"`
}

// ParseProfile decodes a profile from its JSON form.
// Unknown fields are ignored.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

// BestDisplayName returns DisplayName when non-blank, else Name.
func (p Profile) BestDisplayName() string {
	if strings.TrimSpace(p.DisplayName) != "" {
		return p.DisplayName
	}
	return p.Name
}

// BestLightningAddress returns LUD16 when non-blank, else LUD06.
func (p Profile) BestLightningAddress() string {
	if strings.TrimSpace(p.LUD16) != "" {
		return p.LUD16
	}
	return p.LUD06
}

func (p Profile) String() string {
	return fmt.Sprintf("Profile{name=%q, display_name=%q, nip05=%q}", p.Name, p.DisplayName, p.NIP05)
}
