package mainconfig

import (
	"context"
	"testing"

	appconfig "github.com/wolfman30/healthhub-platform/internal/config"
)

func TestLoadAWSConfigStaticCredentials(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{AWSRegion: "us-west-2", AWSAccessKeyID: "id", AWSSecretAccessKey: "secret"}

	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awsCfg.Region != "us-west-2" {
		t.Fatalf("expected region us-west-2, got %q", awsCfg.Region)
	}
	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "id" {
		t.Fatalf("expected static access key, got %q", creds.AccessKeyID)
	}
}

func TestNewS3ClientEndpointOverride(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{AWSRegion: "us-east-1", AWSAccessKeyID: "id", AWSSecretAccessKey: "secret", AWSEndpointOverride: "http://localhost:4566"}

	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client := NewS3Client(awsCfg, cfg)
	opts := client.Options()
	if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://localhost:4566" {
		t.Fatalf("expected endpoint override, got %v", opts.BaseEndpoint)
	}
	if !opts.UsePathStyle {
		t.Fatalf("expected path-style addressing for endpoint override")
	}
}
