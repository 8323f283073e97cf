package secrets

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/swift-sage/internal/errs"
	"github.com/GregMSThompson/swift-sage/pkg/helpers"
)

type fakeSecretManager struct {
	secrets map[string]string
	names   []string
}

func (f *fakeSecretManager) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.names = append(f.names, req.Name)
	v, ok := f.secrets[req.Name]
	if !ok {
		return nil, status.Error(codes.NotFound, "no such secret")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{Payload: &secretmanagerpb.SecretPayload{Data: []byte(v + "\n")}}, nil
}

type fakeDecrypter struct {
	err error
}

func (f fakeDecrypter) KmsDecrypt(ctx context.Context, ciphertext string) (string, error) {
	return "plain:" + ciphertext, f.err
}

type fakeSSM struct {
	out *ssm.GetParameterOutput
	err error
	in  *ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestResolveLiteral(t *testing.T) {
	r := &Resolver{}
	v, err := r.Resolve(helpers.TestCtx(), "  gsk_literal ")
	require.NoError(t, err)
	require.Equal(t, "gsk_literal", v)
}

func TestResolveSecretManager(t *testing.T) {
	sm := &fakeSecretManager{secrets: map[string]string{
		"projects/p/secrets/groq/versions/latest": "gsk_from_sm",
	}}
	r := &Resolver{SecretManager: sm}

	v, err := r.Resolve(helpers.TestCtx(), "sm://projects/p/secrets/groq")
	require.NoError(t, err)
	require.Equal(t, "gsk_from_sm", v)

	_, err = r.Resolve(helpers.TestCtx(), "sm://projects/p/secrets/missing/versions/3")
	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "projects/p/secrets/missing/versions/3", sm.names[1])
}

func TestResolveKMS(t *testing.T) {
	v, err := (&Resolver{KMS: fakeDecrypter{}}).Resolve(helpers.TestCtx(), "kms://Y2lwaGVy")
	require.NoError(t, err)
	require.Equal(t, "plain:Y2lwaGVy", v)

	_, err = (&Resolver{KMS: fakeDecrypter{err: errors.New("denied")}}).Resolve(helpers.TestCtx(), "kms://x")
	var ext *errs.ExternalServiceError
	require.ErrorAs(t, err, &ext)
	require.Equal(t, "kms", ext.Service)
}

func TestResolveSSM(t *testing.T) {
	value := "sk-from-ssm"
	api := &fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: &value}}}

	v, err := (&Resolver{SSM: api}).Resolve(helpers.TestCtx(), "ssm:///swift-sage/openai")
	require.NoError(t, err)
	require.Equal(t, "sk-from-ssm", v)
	require.Equal(t, "/swift-sage/openai", *api.in.Name)
	require.True(t, *api.in.WithDecryption)

	_, err = (&Resolver{SSM: &fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{}}}}).Resolve(helpers.TestCtx(), "ssm://x")
	require.Error(t, err)
}

func TestResolveUnconfiguredBackend(t *testing.T) {
	r := &Resolver{}
	for _, ref := range []string{"sm://a", "kms://b", "ssm://c"} {
		_, err := r.Resolve(helpers.TestCtx(), ref)
		require.Error(t, err, ref)
	}
}

func TestResolveAll(t *testing.T) {
	groq := "kms://abc"
	todoist := "literal"
	empty := ""
	r := &Resolver{KMS: fakeDecrypter{}}

	err := r.ResolveAll(helpers.TestCtx(), map[string]*string{"groq": &groq, "todoist": &todoist, "cartesia": &empty})
	require.NoError(t, err)
	require.Equal(t, "plain:abc", groq)
	require.Equal(t, "literal", todoist)
	require.Empty(t, empty)

	require.True(t, HasScheme(KMSScheme, "x", " kms://y"))
	require.False(t, HasScheme(SSMScheme, "kms://y"))
}
