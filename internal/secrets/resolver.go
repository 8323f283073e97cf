package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/swift-sage/internal/errs"
	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

const (
	SecretManagerScheme = "sm://"
	KMSScheme           = "kms://"
	SSMScheme           = "ssm://"
)

type secretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

type decrypter interface {
	KmsDecrypt(ctx context.Context, ciphertext string) (string, error)
}

type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Resolver turns configuration values into secrets. Each backend is optional;
// a reference to a backend that was not configured is an error.
type Resolver struct {
	SecretManager secretAccessor
	KMS           decrypter
	SSM           ssmAPI
}

// Resolve returns value unchanged unless it carries one of the sm://, kms://
// or ssm:// prefixes.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case strings.HasPrefix(value, SecretManagerScheme):
		return r.fromSecretManager(ctx, strings.TrimPrefix(value, SecretManagerScheme))
	case strings.HasPrefix(value, KMSScheme):
		return r.fromKMS(ctx, strings.TrimPrefix(value, KMSScheme))
	case strings.HasPrefix(value, SSMScheme):
		return r.fromSSM(ctx, strings.TrimPrefix(value, SSMScheme))
	default:
		return value, nil
	}
}

// ResolveAll resolves each target in place, stopping at the first failure.
func (r *Resolver) ResolveAll(ctx context.Context, targets map[string]*string) error {
	log := logger.FromContext(ctx)
	for name, target := range targets {
		if target == nil || *target == "" {
			continue
		}
		resolved, err := r.Resolve(ctx, *target)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", name, err)
		}
		if resolved != *target {
			log.Debug("secret resolved", "name", name)
		}
		*target = resolved
	}
	return nil
}

func (r *Resolver) fromSecretManager(ctx context.Context, name string) (string, error) {
	if r.SecretManager == nil {
		return "", errors.New("secret manager reference but no secret manager client configured")
	}
	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}
	res, err := r.SecretManager.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if status.Code(err) == codes.NotFound {
		return "", errs.NewNotFoundError(fmt.Sprintf("secret %q not found", name))
	}
	if err != nil {
		return "", errs.NewExternalServiceError("secretmanager", "access secret version failed", false, err)
	}
	return strings.TrimSpace(string(res.GetPayload().GetData())), nil
}

func (r *Resolver) fromKMS(ctx context.Context, ciphertext string) (string, error) {
	if r.KMS == nil {
		return "", errors.New("kms reference but no kms key configured")
	}
	plain, err := r.KMS.KmsDecrypt(ctx, ciphertext)
	if err != nil {
		return "", errs.NewExternalServiceError("kms", "decrypt failed", false, err)
	}
	return plain, nil
}

func (r *Resolver) fromSSM(ctx context.Context, name string) (string, error) {
	if r.SSM == nil {
		return "", errors.New("ssm reference but no ssm client configured")
	}
	withDecryption := true
	out, err := r.SSM.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", errs.NewExternalServiceError("ssm", fmt.Sprintf("get parameter %q failed", name), false, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errs.NewNotFoundError(fmt.Sprintf("parameter %q has no value", name))
	}
	return *out.Parameter.Value, nil
}

// HasScheme reports whether any value needs the given backend.
func HasScheme(scheme string, values ...string) bool {
	for _, v := range values {
		if strings.HasPrefix(strings.TrimSpace(v), scheme) {
			return true
		}
	}
	return false
}
