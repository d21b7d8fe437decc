// Package common contains shared constants and sentinel errors used across
// Inkpad components.
package common

// AccessTokenQueryParam is the query-string key that carries the access token
// on websocket upgrade requests, where the browser API cannot set headers.
const AccessTokenQueryParam = "token"

// AuthorizationHeader carries the bearer access token on REST calls.
const AuthorizationHeader = "Authorization"

// BearerPrefix is the Authorization header scheme prefix.
const BearerPrefix = "Bearer "
