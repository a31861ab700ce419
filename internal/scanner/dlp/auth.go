package dlp

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CloudPlatformScope is the OAuth scope the DLP API accepts.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Credentials names where authorization comes from. The first non-empty of
// AccessToken and CredentialsFile is used; with neither, an APIKey alone is
// allowed, and otherwise Application Default Credentials are looked up.
type Credentials struct {
	AccessToken     string
	CredentialsFile string
	APIKey          string
}

// Auth is a resolved credential. TokenSource is nil for API-key-only access.
// ProjectID is the project recorded in the credential, if any.
type Auth struct {
	TokenSource oauth2.TokenSource
	ProjectID   string
}

// Authenticate resolves c into a token source.
func Authenticate(ctx context.Context, c Credentials) (Auth, error) {
	switch {
	case c.AccessToken != "":
		return Auth{TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.AccessToken, TokenType: "Bearer"})}, nil

	case c.CredentialsFile != "":
		b, err := os.ReadFile(c.CredentialsFile)
		if err != nil {
			return Auth{}, fmt.Errorf("failed to read credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, b, CloudPlatformScope)
		if err != nil {
			return Auth{}, fmt.Errorf("failed to parse credentials file %s: %w", c.CredentialsFile, err)
		}
		return Auth{TokenSource: creds.TokenSource, ProjectID: creds.ProjectID}, nil

	case c.APIKey != "":
		return Auth{}, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, CloudPlatformScope)
	if err != nil {
		return Auth{}, fmt.Errorf("no Google credentials found: %w\n\n"+
			"To fix this:\n"+
			"  1. Point GOOGLE_APPLICATION_CREDENTIALS at a service account JSON key\n"+
			"  2. Or run: gcloud auth application-default login\n"+
			"  3. Or set credentials_file / access_token in .dlpscan.yml", err)
	}
	return Auth{TokenSource: creds.TokenSource, ProjectID: creds.ProjectID}, nil
}
