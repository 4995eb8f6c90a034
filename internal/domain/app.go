package domain

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Application is a registry record as returned by the AMS endpoint.
type Application struct {
	ApplicationID   string  `json:"applicationId" db:"application_id"`
	ApplicationType string  `json:"applicationType" db:"application_type"`
	Creator         *string `json:"creator,omitempty" db:"creator"`
	ApplicationName string  `json:"applicationName" db:"application_name"`
	Owner           *string `json:"owner,omitempty" db:"owner"`
	ChainID         string  `json:"chainId" db:"chain_id"`
	LogoStoreType   *string `json:"logoStoreType,omitempty" db:"logo_store_type"`
	Logo            *string `json:"logo,omitempty" db:"logo"`
	Description     string  `json:"description" db:"description"`
	Twitter         *string `json:"twitter,omitempty" db:"twitter"`
	Telegram        *string `json:"telegram,omitempty" db:"telegram"`
	Discord         *string `json:"discord,omitempty" db:"discord"`
	Website         *string `json:"website,omitempty" db:"website"`
	Github          *string `json:"github,omitempty" db:"github"`
	Spec            string  `json:"spec" db:"spec"`
	// CreatedAt is in microseconds since the unix epoch. It is the paging cursor.
	CreatedAt int64 `json:"createdAt" db:"created_at"`
}

// GetApplicationsRequest selects a page of applications in registry order,
// oldest first. A nil CreatedAfter means from the beginning of the registry.
// AfterID breaks ties between applications sharing CreatedAfter and is only
// valid together with it.
type GetApplicationsRequest struct {
	CreatedAfter *int64  `json:"createdAfter,omitempty"`
	AfterID      *string `json:"afterId,omitempty"`
	Limit        int     `json:"limit"`
}

func (r GetApplicationsRequest) Validate() error {
	if r.Limit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, r.Limit)
	}
	if r.AfterID != nil && r.CreatedAfter == nil {
		return fmt.Errorf("%w: afterId without createdAfter", ErrInvalidCursor)
	}
	return nil
}

// Includes reports whether app lies past the request cursor.
func (r GetApplicationsRequest) Includes(app Application) bool {
	if r.CreatedAfter == nil {
		return true
	}
	if app.CreatedAt != *r.CreatedAfter {
		return app.CreatedAt > *r.CreatedAfter
	}
	return r.AfterID != nil && app.ApplicationID > *r.AfterID
}

// CompareRegistryOrder orders applications by CreatedAt, then ApplicationID.
func CompareRegistryOrder(a, b Application) int {
	return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), strings.Compare(a.ApplicationID, b.ApplicationID))
}

// PageAfter returns the request for the page that follows app.
func PageAfter(app Application, limit int) GetApplicationsRequest {
	createdAt, applicationID := app.CreatedAt, app.ApplicationID
	return GetApplicationsRequest{CreatedAfter: &createdAt, AfterID: &applicationID, Limit: limit}
}

// ApplicationBatch is one streamed result. Err is set when the stream
// reported a failure instead of rows.
type ApplicationBatch struct {
	Applications []Application
	Err          error
}

type ApplicationRepository interface {
	GetByID(context.Context, string) (Application, error)
	// ListPage returns the applications selected by the request in registry order.
	ListPage(context.Context, GetApplicationsRequest) ([]Application, error)
	Create(context.Context, *Application) error
}

type MemeMetadata struct {
	LogoStoreType string  `json:"logo_store_type"`
	Logo          string  `json:"logo"`
	Description   string  `json:"description"`
	Twitter       *string `json:"twitter,omitempty"`
	Telegram      *string `json:"telegram,omitempty"`
	Discord       *string `json:"discord,omitempty"`
	Website       *string `json:"website,omitempty"`
	Github        *string `json:"github,omitempty"`
}

// Meme is the token descriptor carried in the Spec of meme applications.
type Meme struct {
	InitialSupply string       `json:"initial_supply"`
	TotalSupply   string       `json:"total_supply"`
	Name          string       `json:"name"`
	Ticker        string       `json:"ticker"`
	Decimals      uint8        `json:"decimals"`
	Metadata      MemeMetadata `json:"metadata"`
}

// DecodeMeme parses an application spec. Decoding failures, and a spec that
// is a JSON null, wrap ErrMalformedSpec.
func DecodeMeme(spec string) (Meme, error) {
	var meme *Meme
	if err := json.Unmarshal([]byte(spec), &meme); err != nil {
		return Meme{}, fmt.Errorf("%w: %v", ErrMalformedSpec, err)
	}
	if meme == nil {
		return Meme{}, fmt.Errorf("%w: null document", ErrMalformedSpec)
	}
	return *meme, nil
}

// Matches reports whether the meme satisfies every non-empty filter.
func (m Meme) Matches(name, ticker string) bool {
	if name != "" && m.Name != name {
		return false
	}
	if ticker != "" && m.Ticker != ticker {
		return false
	}
	return true
}
