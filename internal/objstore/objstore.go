// Package objstore reads objects from S3.
package objstore

import (
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"
)

// Getter is an abstraction for the S3 client (helpful for testing)
type Getter interface {
	GetObject(*s3.GetObjectInput) (*s3.GetObjectOutput, error)
}

// Fetch returns the contents of an object.
func Fetch(g Getter, log *logrus.Logger, bucket, key string) ([]byte, error) {

	log.Infof("fetching %v from %v", key, bucket)
	resp, err := g.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %v from %v: %v", key, bucket, err)
	}
	defer resp.Body.Close()

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %v", key, err)
	}
	return contents, nil
}
