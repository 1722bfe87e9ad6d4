// Package auth obtains bearer tokens for the destination and connectivity
// services with the OAuth2 client credentials grant.
package auth
