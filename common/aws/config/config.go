package config

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/ceramicnetwork/go-mint"
	"github.com/ceramicnetwork/go-mint/common"
	"github.com/ceramicnetwork/go-mint/models"
)

func AwsConfigWithOverride(ctx context.Context, customEndpoint string) (aws.Config, error) {
	endpointResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			PartitionID:       "aws",
			URL:               customEndpoint,
			SigningRegion:     os.Getenv(mint.Env_AwsRegion),
			HostnameImmutable: true,
		}, nil
	})

	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	return config.LoadDefaultConfig(
		httpCtx,
		config.WithRegion(os.Getenv(mint.Env_AwsRegion)),
		config.WithEndpointResolverWithOptions(endpointResolver),
	)
}

// AwsConfig loads the shared AWS configuration used by the attempt table and the metadata archive.
func AwsConfig(ctx context.Context, logger models.Logger) (aws.Config, error) {
	awsEndpoint := os.Getenv(mint.Env_AwsEndpoint)
	if len(awsEndpoint) > 0 {
		logger.Infof("config: using custom global aws endpoint: %s", awsEndpoint)
		return AwsConfigWithOverride(ctx, awsEndpoint)
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	return config.LoadDefaultConfig(httpCtx, config.WithRegion(os.Getenv(mint.Env_AwsRegion)))
}
