package authsdk

import "context"

// GetLiveness calls /livez.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return fetch[HealthResponse](ctx, c, "/livez")
}

// GetReadiness calls /readyz. A degraded service still answers 200 with
// Status "degraded".
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return fetch[HealthResponse](ctx, c, "/readyz")
}
