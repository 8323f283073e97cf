package bootstrap

import (
	"context"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

// InitFirestore connects to the default database. FIRESTORE_EMULATOR_HOST is
// honoured by the client library.
func InitFirestore(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("firestore connected", "project_id", projectID)
	return client, nil
}

// InitFirebase returns the auth client used to verify caller ID tokens.
func InitFirebase(ctx context.Context, projectID string) (*auth.Client, error) {
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf)
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}
