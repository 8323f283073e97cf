package cloudrun

import (
	"fmt"
	"strconv"

	"github.com/pulumi/pulumi-docker/sdk/v4/go/docker"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/cloudrun"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/kms"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/GregMSThompson/swift-sage/infra/common"
	dockerrepo "github.com/GregMSThompson/swift-sage/infra/docker"
	infrakms "github.com/GregMSThompson/swift-sage/infra/kms"
	"github.com/GregMSThompson/swift-sage/infra/secret"
)

// secretEnv maps an env var to the Secret Manager secret holding its value.
type secretEnv struct {
	envName  string
	secretID pulumi.StringOutput
}

// apiKeys lists the provider keys read from the swiftsage config namespace.
// Only todoistApiKey is required; the others enable optional providers.
var apiKeys = []struct {
	configKey, envName, secretID string
	required                     bool
}{
	{"todoistApiKey", "TODOISTAPIKEY", "todoist-api-key", true},
	{"groqApiKey", "GROQAPIKEY", "groq-api-key", false},
	{"openaiApiKey", "OPENAIAPIKEY", "openai-api-key", false},
	{"cartesiaApiKey", "CARTESIAAPIKEY", "cartesia-api-key", false},
}

func SetupCloudRun(ctx *pulumi.Context, prov *gcp.Provider, key *kms.CryptoKey, res ...pulumi.Resource) (*cloudrun.Service, error) {
	srv, err := enableCloudRun(ctx, prov)
	if err != nil {
		return nil, err
	}

	apiSA, err := createServiceAccount(ctx, prov)
	if err != nil {
		return nil, err
	}

	if err := infrakms.GrantDecrypter(ctx, prov, key, apiSA); err != nil {
		return nil, err
	}

	smSvc, err := secret.SetupSecretManager(ctx, prov, apiSA)
	if err != nil {
		return nil, err
	}

	secrets, err := createSecrets(ctx)
	if err != nil {
		return nil, err
	}

	img, err := buildApiImage(ctx, res...)
	if err != nil {
		return nil, err
	}

	svc, err := createCloudRunService(ctx, img, apiSA, key, secrets, prov, append(res, srv, smSvc)...)
	if err != nil {
		return nil, err
	}

	if err := setIAMAccessPolicy(ctx, svc, prov); err != nil {
		return nil, err
	}

	return svc, nil
}

func buildApiImage(ctx *pulumi.Context, res ...pulumi.Resource) (*docker.Image, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")

	hash, err := common.GenerateHash("..")
	if err != nil {
		return nil, err
	}

	return docker.NewImage(ctx, "apiImage", &docker.ImageArgs{
		Build: docker.DockerBuildArgs{
			Platform:   pulumi.String("linux/amd64"),
			Context:    pulumi.String(".."),                    // build from repo root
			Dockerfile: pulumi.String("../cmd/api/Dockerfile"), // Dockerfile path relative to repo root
		},
		ImageName: pulumi.String(fmt.Sprintf("%s-docker.pkg.dev/%s/%s/swift-sage-api:%s", region, projectID, dockerrepo.RepositoryID, hash)),
	},
		pulumi.DependsOn(res),
	)
}

func enableCloudRun(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "cloudRunService", &projects.ServiceArgs{
		Service: pulumi.String("run.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
}

// createServiceAccount grants the runtime identity Firestore access for usage
// counters and Vertex access for the gemini provider.
func createServiceAccount(ctx *pulumi.Context, prov *gcp.Provider) (*serviceaccount.Account, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")

	apiSA, err := serviceaccount.NewAccount(ctx, "apiServiceAccount", &serviceaccount.AccountArgs{
		AccountId:   pulumi.String("swift-sage-api"),
		DisplayName: pulumi.String("Swift Sage API"),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	member := apiSA.Email.ApplyT(func(email string) string {
		return fmt.Sprintf("serviceAccount:%s", email)
	}).(pulumi.StringOutput)

	for name, role := range map[string]string{
		"firestoreAccess": "roles/datastore.user",
		"vertexAccess":    "roles/aiplatform.user",
	} {
		_, err = projects.NewIAMMember(ctx, name, &projects.IAMMemberArgs{
			Role:    pulumi.String(role),
			Member:  member,
			Project: pulumi.String(projectID),
		},
			pulumi.Provider(prov),
		)
		if err != nil {
			return nil, err
		}
	}

	return apiSA, nil
}

func createSecrets(ctx *pulumi.Context) ([]secretEnv, error) {
	appCfg := config.New(ctx, "swiftsage")

	var out []secretEnv
	for _, k := range apiKeys {
		var value pulumi.StringOutput
		if k.required {
			value = appCfg.RequireSecret(k.configKey)
		} else {
			v, err := appCfg.TrySecret(k.configKey)
			if err != nil {
				continue
			}
			value = v
		}

		id, err := secret.AddSecret(ctx, k.configKey+"Secret", k.secretID, value)
		if err != nil {
			return nil, err
		}
		out = append(out, secretEnv{envName: k.envName, secretID: id})
	}
	return out, nil
}

func createCloudRunService(ctx *pulumi.Context,
	img *docker.Image,
	apiSA *serviceaccount.Account,
	key *kms.CryptoKey,
	secrets []secretEnv,
	prov *gcp.Provider,
	res ...pulumi.Resource) (*cloudrun.Service, error) {
	gcpCfg := config.New(ctx, "gcp")
	crCfg := config.New(ctx, "cloudrun")
	appCfg := config.New(ctx, "swiftsage")

	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")
	minScale := crCfg.Require("minScale")
	maxScale := crCfg.Require("maxScale")
	cpu := crCfg.Require("cpu")
	memory := crCfg.Require("memory")
	concurrency := crCfg.Require("concurrency")
	logLevel := crCfg.Require("logLevel")
	timeout, err := strconv.Atoi(crCfg.Require("timeout"))
	if err != nil {
		return nil, fmt.Errorf("cloudrun:timeout: %w", err)
	}

	plain := []struct {
		name  string
		value pulumi.StringInput
	}{
		{"PROJECTID", pulumi.String(projectID)},
		{"REGION", pulumi.String(region)},
		{"LOGLEVEL", pulumi.String(logLevel)},
		{"USAGESTORE", pulumi.String("firestore")},
		{"AUTHREQUIRED", pulumi.String(strconv.FormatBool(appCfg.GetBool("authRequired")))},
		{"VERTEXMODEL", pulumi.String(appCfg.Get("vertexModel"))},
		{"KMSKEYNAME", key.ID().ToStringOutput()},
	}

	envs := cloudrun.ServiceTemplateSpecContainerEnvArray{}
	for _, e := range plain {
		envs = append(envs, &cloudrun.ServiceTemplateSpecContainerEnvArgs{
			Name:  pulumi.String(e.name),
			Value: e.value,
		})
	}
	for _, s := range secrets {
		envs = append(envs, &cloudrun.ServiceTemplateSpecContainerEnvArgs{
			Name: pulumi.String(s.envName),
			ValueFrom: &cloudrun.ServiceTemplateSpecContainerEnvValueFromArgs{
				SecretKeyRef: &cloudrun.ServiceTemplateSpecContainerEnvValueFromSecretKeyRefArgs{
					Name: s.secretID,
					Key:  pulumi.String("latest"),
				},
			},
		})
	}

	return cloudrun.NewService(ctx, "apiService", &cloudrun.ServiceArgs{
		Location: pulumi.String(region),

		Template: &cloudrun.ServiceTemplateArgs{
			Metadata: &cloudrun.ServiceTemplateMetadataArgs{
				Annotations: pulumi.StringMap{
					// Autoscaling bounds
					"autoscaling.knative.dev/minScale": pulumi.String(minScale),
					"autoscaling.knative.dev/maxScale": pulumi.String(maxScale),

					// Instance sizing
					"run.googleapis.com/cpu":    pulumi.String(cpu),
					"run.googleapis.com/memory": pulumi.String(memory),

					"run.googleapis.com/cpu-throttling":        pulumi.String("true"),
					"run.googleapis.com/container-concurrency": pulumi.String(concurrency),
				},
			},

			Spec: &cloudrun.ServiceTemplateSpecArgs{
				ServiceAccountName: apiSA.Email,
				// audio replies stream for as long as synthesis runs
				TimeoutSeconds: pulumi.Int(timeout),

				Containers: cloudrun.ServiceTemplateSpecContainerArray{
					&cloudrun.ServiceTemplateSpecContainerArgs{
						Image: img.ImageName,
						Ports: cloudrun.ServiceTemplateSpecContainerPortArray{
							&cloudrun.ServiceTemplateSpecContainerPortArgs{
								ContainerPort: pulumi.Int(8080),
							},
						},
						Envs: envs,
					},
				},
			},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

// setIAMAccessPolicy opens the service to browsers; caller auth, when
// wanted, is the app-level Firebase token check.
func setIAMAccessPolicy(ctx *pulumi.Context, svc *cloudrun.Service, prov *gcp.Provider) error {
	gcpCfg := config.New(ctx, "gcp")
	region := gcpCfg.Require("region")

	_, err := cloudrun.NewIamMember(ctx, "publicInvoker", &cloudrun.IamMemberArgs{
		Service:  svc.Name,
		Location: pulumi.String(region),
		Role:     pulumi.String("roles/run.invoker"),
		Member:   pulumi.String("allUsers"),
	},
		pulumi.Provider(prov),
	)
	return err
}
