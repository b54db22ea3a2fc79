/*
Package authsdk provides the wire types and a small client for the MealVote
authentication service.

# Overview

The auth service owns login, tenant switching and the login-security
operator tools. Every other MealVote service trusts the signed session it
hands out and only needs the types in this package to read it.

The package is organized around two main types:

  - SDKClient: unauthenticated operations (health probes, login)
  - Session: operations performed with an established session cookie

Logging in:

	client := authsdk.NewSDKClient("https://auth.mealvote.example")

	session, err := client.Login(ctx, authsdk.LoginRequest{
		IdentityNumber: "0912345678",
		Password:       "secret",
		TenantSlug:     "acme",
	})

The returned Session carries the session token and the claims the server
issued. Switching tenant reissues both:

	claims, err := session.SwitchTenant(ctx, "globex")

# Permissions

PermissionSet is the fixed set of capability flags every handler checks.
Admin implies every other flag; Inherit applies that rule and Has honours it:

	if !claims.Permissions.Has(authsdk.PermKitchenManage) {
		return authsdk.ErrForbidden
	}

# Error Handling

Failed requests return an *APIError carrying the HTTP status, a stable
machine readable Code and a short message. Maintenance rejections also
carry the maintenance window:

	_, err := client.Login(ctx, req)
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeMaintenance {
		fmt.Println("back at", apiErr.Maintenance.Until)
	}

# Thread Safety

Sessions are safe for concurrent use.
*/
package authsdk
