package domain

import "strings"

type Profile struct {
	OwnerID   OwnerID
	Email     string
	SecretRef string
}

func (p Profile) SecretKey() string {
	if ref := strings.TrimSpace(p.SecretRef); ref != "" {
		return ref
	}
	if p.OwnerID.IsZero() {
		return ""
	}
	return "recallo://" + string(p.OwnerID) + "/access_token"
}
