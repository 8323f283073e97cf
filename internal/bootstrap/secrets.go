package bootstrap

import (
	"context"
	"fmt"

	gcpkms "cloud.google.com/go/kms/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/GregMSThompson/swift-sage/internal/config"
	"github.com/GregMSThompson/swift-sage/internal/crypto"
	"github.com/GregMSThompson/swift-sage/internal/secrets"
)

func secretTargets(cfg *config.Config) map[string]*string {
	return map[string]*string{
		"GROQAPIKEY":     &cfg.GroqAPIKey,
		"OPENAIAPIKEY":   &cfg.OpenAIAPIKey,
		"CARTESIAAPIKEY": &cfg.CartesiaAPIKey,
		"TODOISTAPIKEY":  &cfg.TodoistAPIKey,
	}
}

// resolveSecrets opens only the backends that the configured values refer to
// and replaces every reference with its secret.
func (bs *Bootstrap) resolveSecrets(ctx context.Context, cfg *config.Config) error {
	targets := secretTargets(cfg)
	values := make([]string, 0, len(targets))
	for _, v := range targets {
		values = append(values, *v)
	}

	resolver := new(secrets.Resolver)
	var err error

	if secrets.HasScheme(secrets.SecretManagerScheme, values...) {
		bs.SecretManager, err = secretmanager.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("secret manager: %w", err)
		}
		resolver.SecretManager = bs.SecretManager
	}

	if secrets.HasScheme(secrets.KMSScheme, values...) {
		bs.KMS, err = gcpkms.NewKeyManagementClient(ctx)
		if err != nil {
			return fmt.Errorf("kms: %w", err)
		}
		resolver.KMS = crypto.NewKMS(bs.KMS, cfg.KMSKeyName)
	}

	if secrets.HasScheme(secrets.SSMScheme, values...) {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("aws config: %w", err)
		}
		resolver.SSM = ssm.NewFromConfig(awsCfg)
	}

	return resolver.ResolveAll(ctx, targets)
}
