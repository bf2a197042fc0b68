package oauth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	ggoogle "golang.org/x/oauth2/google"
)

var (
	ErrNoIDToken   = errors.New("no id_token in token response")
	ErrBadIssuer   = errors.New("id_token: bad iss")
	ErrBadAudience = errors.New("id_token: bad aud")
	ErrNoSubject   = errors.New("id_token: missing email or sub")
)

type GoogleOAuth struct {
	cfg      *oauth2.Config
	stateKey []byte
}

func NewGoogle(clientID, clientSecret, redirectURI, stateSecret string) *GoogleOAuth {
	return &GoogleOAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes: []string{
				"openid", "email", "profile",
			},
			Endpoint: ggoogle.Endpoint,
		},
		stateKey: []byte(stateSecret),
	}
}

// MakeState signs raw so the callback can tell its own state from a forged one.
func (g *GoogleOAuth) MakeState(raw string) string {
	return raw + "." + base64.RawURLEncoding.EncodeToString(g.sign(raw))
}

func (g *GoogleOAuth) VerifyState(got string) bool {
	i := strings.LastIndexByte(got, '.')
	if i <= 0 {
		return false
	}
	sig, err := base64.RawURLEncoding.DecodeString(got[i+1:])
	if err != nil {
		return false
	}
	return hmac.Equal(g.sign(got[:i]), sig)
}

func (g *GoogleOAuth) sign(raw string) []byte {
	mac := hmac.New(sha256.New, g.stateKey)
	mac.Write([]byte(raw))
	return mac.Sum(nil)
}

func (g *GoogleOAuth) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

type GoogleUser struct {
	Sub           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Exchange trades the authorization code for tokens and reads the user from
// the returned id_token.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, ErrNoIDToken
	}
	return ParseIDToken(raw, g.cfg.ClientID)
}

// ParseIDToken checks the issuer and audience claims of a Google id_token.
// The token is taken from Google's token endpoint over TLS, so its signature
// is not verified again here.
func ParseIDToken(raw, audience string) (*GoogleUser, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("parse id_token: %w", err)
	}

	iss, _ := claims.GetIssuer()
	if iss != "https://accounts.google.com" && iss != "accounts.google.com" {
		return nil, ErrBadIssuer
	}
	aud, _ := claims.GetAudience()
	if !slices.Contains(aud, audience) {
		return nil, ErrBadAudience
	}

	sub, _ := claims.GetSubject()
	email, _ := claims["email"].(string)
	if email == "" || sub == "" {
		return nil, ErrNoSubject
	}
	verified, _ := claims["email_verified"].(bool)
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	return &GoogleUser{
		Sub: sub, Email: email, EmailVerified: verified, Name: name, Picture: picture,
	}, nil
}
