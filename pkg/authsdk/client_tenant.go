package authsdk

import (
	"context"
	"net/url"
)

// GetTenant fetches the public context of a tenant, including any
// maintenance notice. Unknown slugs still resolve.
func (c *SDKClient) GetTenant(ctx context.Context, slug string) (*TenantResponse, error) {
	return fetch[TenantResponse](ctx, c, "/v1/tenants/"+url.PathEscape(slug))
}
