package storage

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ceramicnetwork/go-mint/common"
	"github.com/ceramicnetwork/go-mint/models"
)

var _ models.KeyValueRepository = &S3Store{}

type s3Api interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store archives JSON documents, e.g. the metadata of successfully minted tokens.
type S3Store struct {
	client s3Api
	logger models.Logger
	bucket string
}

func NewS3Store(logger models.Logger, s3Client *s3.Client, bucket string) *S3Store {
	return &S3Store{s3Client, logger, bucket}
}

func (s *S3Store) Store(ctx context.Context, key string, value interface{}) error {
	if jsonBytes, err := json.Marshal(value); err != nil {
		return err
	} else {
		httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
		defer httpCancel()

		putObjectIn := s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(jsonBytes),
			ContentType: aws.String("application/json"),
		}
		if _, err = s.client.PutObject(httpCtx, &putObjectIn); err != nil {
			return err
		} else {
			s.logger.Debugf("s3: stored %s/%s", s.bucket, key)
		}
	}
	return nil
}
