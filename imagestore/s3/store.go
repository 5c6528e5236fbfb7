// Package s3 implements an image Store over AWS S3 and S3-compatible services.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	log "github.com/sirupsen/logrus"
	"go.cbdd.dev/baroquedb/imagestore"
)

// StoreQueryArgs contains fields that are parsed from the query arguments
// of an s3:// image store URL.
type StoreQueryArgs struct {
	// AWS Profile to extract credentials from the shared credentials file.
	// If empty, the default credentials are used.
	Profile string
	// Endpoint to connect to S3. If empty, the default S3 service is used.
	Endpoint string
	// Region is the region for the bucket. If empty, the region is determined
	// from `Profile` or the default credentials.
	Region string
}

type store struct {
	bucket string
	args   StoreQueryArgs
	client *s3.S3
}

// New creates a new S3 Store from the provided URL.
func New(ep *url.URL) (imagestore.Store, error) {
	var args StoreQueryArgs
	if err := imagestore.ParseStoreArgs(ep, &args); err != nil {
		return nil, err
	}
	var awsConfig = newConfig(args)

	awsSession, err := session.NewSessionWithOptions(session.Options{
		Config:            *awsConfig,
		Profile:           args.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("constructing S3 session: %s", err)
	}

	// The aws sdk will always just return an error if this Region is not set, even if
	// the Endpoint was provided explicitly. It's important to fail-fast in this case.
	if awsSession.Config.Region == nil || *awsSession.Config.Region == "" {
		return nil, fmt.Errorf("missing AWS region configuration for profile %q", args.Profile)
	}

	log.WithFields(log.Fields{
		"bucket":   ep.Host,
		"endpoint": args.Endpoint,
		"profile":  args.Profile,
		"region":   *awsSession.Config.Region,
	}).Info("constructed new aws.Session")

	return &store{
		bucket: ep.Host,
		args:   args,
		client: s3.New(awsSession),
	}, nil
}

func newConfig(args StoreQueryArgs) *aws.Config {
	var awsConfig = aws.NewConfig()
	awsConfig.WithCredentialsChainVerboseErrors(true)

	if args.Region != "" {
		awsConfig.WithRegion(args.Region)
	}
	if args.Endpoint != "" {
		awsConfig.WithEndpoint(args.Endpoint)
		// We must force path style because bucket-named virtual hosts
		// are not compatible with explicit endpoints.
		awsConfig.WithS3ForcePathStyle(true)
	} else {
		// Real S3. Override the default http.Transport's behavior of inserting
		// "Accept-Encoding: gzip" and transparently decompressing client-side.
		awsConfig.WithHTTPClient(&http.Client{
			Transport: &http.Transport{DisableCompression: true},
		})
	}
	return awsConfig
}

func (s *store) Provider() string { return "s3" }

func (s *store) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	var getObj = s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}
	var resp, err = s.client.GetObjectWithContext(ctx, &getObj)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (s *store) IsAuthError(err error) bool {
	if awsErr, ok := err.(awserr.Error); ok {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchBucket, s3ErrCodeAccessDenied:
			return true
		}
	}
	if awsErr, ok := err.(awserr.RequestFailure); ok {
		if awsErr.StatusCode() == http.StatusForbidden {
			return true
		}
	}
	return false
}

// AWS S3 error codes not defined as constants in the SDK.
const s3ErrCodeAccessDenied = "AccessDenied"
