package firebase

import (
	"context"
	"fmt"

	fbapp "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Identity is what a verified ID token tells us about the caller.
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// ClientOptions picks inline JSON credentials over a file path; with neither
// the SDK falls back to application default credentials.
func ClientOptions(credentialsJSON, credentialsPath string) []option.ClientOption {
	switch {
	case credentialsJSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credentialsJSON))}
	case credentialsPath != "":
		return []option.ClientOption{option.WithCredentialsFile(credentialsPath)}
	}
	return nil
}

func NewApp(ctx context.Context, projectID string, opts ...option.ClientOption) (*fbapp.App, error) {
	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase: %w", err)
	}
	return app, nil
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}

	id := &Identity{UID: result.UID}
	if v, ok := result.Claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := result.Claims["name"].(string); ok {
		id.Name = v
	}
	if v, ok := result.Claims["picture"].(string); ok {
		id.Picture = v
	}
	return id, nil
}
