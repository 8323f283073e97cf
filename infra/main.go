package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/swift-sage/infra/cloudrun"
	"github.com/GregMSThompson/swift-sage/infra/docker"
	"github.com/GregMSThompson/swift-sage/infra/firestore"
	"github.com/GregMSThompson/swift-sage/infra/identity"
	"github.com/GregMSThompson/swift-sage/infra/kms"
	"github.com/GregMSThompson/swift-sage/infra/provider"
	"github.com/GregMSThompson/swift-sage/infra/vertex"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// identity platform backs the optional firebase token check
		ident, err := identity.SetupIdentity(ctx, prov)
		if err != nil {
			return err
		}

		// usage counters
		fs, err := firestore.SetupFirestore(ctx, prov)
		if err != nil {
			return err
		}

		// gemini provider
		vx, err := vertex.SetupVertex(ctx, prov)
		if err != nil {
			return err
		}

		// key for kms:// sealed api keys
		kmsSvc, err := kms.SetupKMS(ctx, prov)
		if err != nil {
			return err
		}
		key, err := kms.CreateKey(ctx, prov, "swift-sage", "api-keys")
		if err != nil {
			return err
		}

		repo, err := docker.CreateCloudrunRepo(ctx, prov)
		if err != nil {
			return err
		}

		svc, err := cloudrun.SetupCloudRun(ctx, prov, key, ident, fs, vx, kmsSvc, repo)
		if err != nil {
			return err
		}

		ctx.Export("serviceUrl", svc.Statuses.Index(pulumi.Int(0)).Url())
		ctx.Export("kmsKeyName", key.ID())
		return nil
	})
}
