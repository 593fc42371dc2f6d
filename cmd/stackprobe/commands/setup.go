package commands

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awssfn "github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/rs/zerolog"

	"github.com/stackprobe/stackprobe/pkg/config"
	"github.com/stackprobe/stackprobe/pkg/telemetry"
)

// loadConfig builds the harness configuration from the config file,
// environment, and global flags.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if region != "" {
		cfg.Region = region
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if jsonOutput {
		cfg.Logging.Format = "json"
	}

	logger, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// awsClients holds the service clients the commands operate with.
type awsClients struct {
	cfn *cloudformation.Client
	sfn *awssfn.Client
	s3  *s3.Client
}

// newAWSClients resolves default credentials and builds the service clients
// for the configured region.
func newAWSClients(ctx context.Context, cfg *config.Config) (*awsClients, aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, aws.Config{}, err
	}
	return &awsClients{
		cfn: cloudformation.NewFromConfig(awsCfg),
		sfn: awssfn.NewFromConfig(awsCfg),
		s3:  s3.NewFromConfig(awsCfg),
	}, awsCfg, nil
}
