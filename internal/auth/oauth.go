package auth

import (
	"golang.org/x/oauth2"
)

const (
	// VeloHub OAuth endpoints
	AuthURL  = "https://app.velohub.io/oauth/authorize"
	TokenURL = "https://app.velohub.io/oauth/token"
)

// Scopes required for the readiness core: wellness samples and
// completed activities, read-only
var Scopes = []string{
	"wellness:read",
	"activity:read",
}

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
}

// NewOAuthConfig creates an oauth2.Config from our Config. The
// redirect URL is filled in by Authenticate once the callback
// listener's port is known.
func NewOAuthConfig(cfg Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
		Scopes: Scopes,
	}
}

// AuthResult contains the token and athlete info from successful auth
type AuthResult struct {
	Token     *oauth2.Token
	AthleteID int64
}

// AthleteID reads the athlete_id field VeloHub includes alongside the
// token response. Zero means the platform omitted it.
func AthleteID(token *oauth2.Token) int64 {
	if id, ok := token.Extra("athlete_id").(float64); ok {
		return int64(id)
	}
	return 0
}
