package domain

import (
	"fmt"
	"strings"
)

// ApplicationURL builds the per-chain API url of an application. It needs an
// owner reference of the form chainId:ownerId.
func ApplicationURL(host string, endpoint string, app Application) (string, bool) {
	ownerID, ok := AccountOwner(app)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("http://%s/api/%s/chains/%s/applications/%s", host, endpoint, app.ChainID, ownerID), true
}

func AccountDescription(app Application) string {
	description := app.ChainID
	if app.Owner != nil && *app.Owner != "" {
		description += ":" + *app.Owner
	}
	return description
}

// AccountOwner returns the owner id, the second segment of the composite
// owner reference. Segments past the second are ignored.
func AccountOwner(app Application) (string, bool) {
	if app.Owner == nil || *app.Owner == "" {
		return "", false
	}
	parts := strings.Split(*app.Owner, ":")
	if len(parts) < 2 {
		return "", true
	}
	return parts[1], true
}
