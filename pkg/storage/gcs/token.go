package gcs

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

const (
	tokenEndpoint    = "https://oauth2.googleapis.com/token"
	metadataTokenURL = "http://metadata.google.internal/computeMetadata/v1/instance/service-accounts/default/token"
	scope            = "https://www.googleapis.com/auth/devstorage.read_write"
	jwtBearerGrant   = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	refreshSkew      = time.Minute
)

type fetchFunc func(context.Context) (string, time.Time, error)

// tokenSource caches one access token and refreshes it shortly before expiry.
type tokenSource struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
	fetch  fetchFunc
}

func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Until(t.expiry) > refreshSkew {
		return t.token, nil
	}
	token, expiry, err := t.fetch(ctx)
	if err != nil {
		return "", err
	}
	t.token, t.expiry = token, expiry
	return token, nil
}

func resolveTokenSource(client *http.Client, gcp config.GCPConfig) (*tokenSource, error) {
	raw := gcp.CredentialsJSON
	if raw == "" && gcp.ApplicationCredentials != "" {
		b, err := os.ReadFile(gcp.ApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("reading credentials file: %w", err)
		}
		raw = string(b)
	}
	if raw == "" {
		return &tokenSource{fetch: func(ctx context.Context) (string, time.Time, error) {
			return metadataToken(ctx, client)
		}}, nil
	}

	acct, err := parseServiceAccount(raw)
	if err != nil {
		return nil, err
	}
	return &tokenSource{fetch: func(ctx context.Context) (string, time.Time, error) {
		return acct.exchange(ctx, client, time.Now())
	}}, nil
}

type serviceAccount struct {
	email    string
	key      *rsa.PrivateKey
	tokenURI string
}

func parseServiceAccount(raw string) (*serviceAccount, error) {
	var creds struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
		TokenURI    string `json:"token_uri"`
	}
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, errors.New("service account credentials need client_email and private_key")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(creds.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parsing service account key: %w", err)
	}
	return &serviceAccount{
		email:    creds.ClientEmail,
		key:      key,
		tokenURI: firstNonEmpty(creds.TokenURI, tokenEndpoint),
	}, nil
}

// exchange trades a signed assertion for an access token.
func (a *serviceAccount) exchange(ctx context.Context, client *http.Client, now time.Time) (string, time.Time, error) {
	assertion, err := signAssertion(a.email, a.tokenURI, a.key, now)
	if err != nil {
		return "", time.Time{}, err
	}
	form := url.Values{"grant_type": {jwtBearerGrant}, "assertion": {assertion}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return requestToken(client, req, "token endpoint")
}

type assertionClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

func signAssertion(email, audience string, key *rsa.PrivateKey, now time.Time) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodRS256, assertionClaims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    email,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(key)
}

func metadataToken(ctx context.Context, client *http.Client) (string, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataTokenURL, nil)
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Metadata-Flavor", "Google")
	return requestToken(client, req, "metadata server")
}

func requestToken(client *http.Client, req *http.Request, from string) (string, time.Time, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, apiError(from+" refused token request", resp)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", time.Time{}, fmt.Errorf("decode %s token: %w", from, err)
	}
	if body.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("%s returned an empty token", from)
	}
	return body.AccessToken, time.Now().Add(time.Duration(body.ExpiresIn) * time.Second), nil
}
