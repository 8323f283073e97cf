package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	gcpkms "cloud.google.com/go/kms/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"firebase.google.com/go/v4/auth"

	vertexclient "github.com/GregMSThompson/swift-sage/internal/client/vertex"
	"github.com/GregMSThompson/swift-sage/internal/config"
	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

// Bootstrap holds the process-wide clients. Everything except Log is
// optional and stays nil when the configuration does not ask for it.
type Bootstrap struct {
	Log           *slog.Logger
	Firestore     *firestore.Client
	Firebase      *auth.Client
	KMS           *gcpkms.KeyManagementClient
	SecretManager *secretmanager.Client
	VertexAdapter *vertexclient.Adapter
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	applicationCtx := logger.ToContext(context.Background(), bs.Log)

	if err = bs.resolveSecrets(applicationCtx, cfg); err != nil {
		return bs, err
	}

	if cfg.UsageStore == "firestore" {
		if cfg.ProjectID == "" {
			return bs, errors.New("USAGESTORE=firestore requires PROJECTID")
		}
		bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
		if err != nil {
			return bs, fmt.Errorf("firestore: %w", err)
		}
	}

	if cfg.AuthRequired {
		bs.Firebase, err = InitFirebase(applicationCtx, cfg.ProjectID)
		if err != nil {
			return bs, fmt.Errorf("firebase: %w", err)
		}
	}

	if cfg.ProjectID != "" && cfg.VertexModel != "" {
		bs.VertexAdapter, err = vertexclient.NewAdapter(applicationCtx, bs.Log, cfg.ProjectID, cfg.Region, cfg.VertexModel)
		if err != nil {
			return bs, fmt.Errorf("vertex: %w", err)
		}
	}

	bs.Log.Info("bootstrap complete",
		"usage_store", cfg.UsageStore,
		"auth_required", cfg.AuthRequired,
		"vertex", bs.VertexAdapter != nil)
	return bs, nil
}

func (bs *Bootstrap) Close() {
	closers := map[string]func() error{}
	if bs.Firestore != nil {
		closers["firestore"] = bs.Firestore.Close
	}
	if bs.KMS != nil {
		closers["kms"] = bs.KMS.Close
	}
	if bs.SecretManager != nil {
		closers["secretmanager"] = bs.SecretManager.Close
	}
	if bs.VertexAdapter != nil {
		closers["vertex"] = bs.VertexAdapter.Close
	}
	for name, closeFn := range closers {
		if err := closeFn(); err != nil {
			bs.Log.Warn("close failed", "client", name, "error", err)
		}
	}
}
