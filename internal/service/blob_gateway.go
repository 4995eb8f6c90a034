package service

import (
	"fmt"
	"strings"
)

const NoImagePath = "/images/no-image.png"

// BlobGateway resolves blob references to image urls served by the blob gateway.
type BlobGateway struct {
	baseURL string
}

func NewBlobGateway(baseURL string) *BlobGateway {
	return &BlobGateway{baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (b *BlobGateway) ImagePath(storeType *string, ref *string) string {
	if storeType == nil || ref == nil || *storeType == "" || *ref == "" {
		return NoImagePath
	}
	return fmt.Sprintf("%s/api/blobs/images/%s/%s", b.baseURL, strings.ToLower(*storeType), *ref)
}
