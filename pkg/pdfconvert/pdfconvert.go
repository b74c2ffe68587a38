// Package pdfconvert converts uploaded PDF documents to plain text objects
// for the embedding pipeline.
package pdfconvert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/objstore"
)

// ObjectStore is an abstraction for the S3 client (helpful for testing)
type ObjectStore interface {
	objstore.Getter
	PutObject(*s3.PutObjectInput) (*s3.PutObjectOutput, error)
}

// Converter turns uploaded PDFs into text objects in the destination bucket.
type Converter struct {
	s3      ObjectStore
	log     *logrus.Logger
	extract func([]byte) (string, error)
}

// NewConverter returns a new Converter.
func NewConverter(store ObjectStore, log *logrus.Logger) *Converter {
	if log == nil {
		log = logrus.New()
	}
	return &Converter{s3: store, log: log, extract: extractText}
}

func extractText(contents []byte) (string, error) {

	r, err := pdf.NewReader(bytes.NewReader(contents), int64(len(contents)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %v", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %v: %v", i, err)
		}
		b.WriteString("\n")
		b.WriteString(text)
	}
	return b.String(), nil
}

// Handle processes one invocation. Records that fail validation and corrupt
// PDFs are skipped with a warning rather than failing the batch.
func (c *Converter) Handle(raw json.RawMessage) error {

	source, err := envelope.RequireEnv("SOURCE_BUCKET_NAME")
	if err != nil {
		return err
	}
	c.log.Infof("source bucket: %v", source)

	dest, err := envelope.RequireEnv("DESTINATION_BUCKET_NAME")
	if err != nil {
		return err
	}
	c.log.Infof("destination bucket: %v", dest)

	env, err := envelope.Parse(raw)
	if err != nil {
		c.log.WithError(err).Error("could not parse event")
		return err
	}
	if env.Variant != envelope.S3Notification {
		return &envelope.Error{Kind: envelope.MalformedEvent, Msg: "not a bucket notification"}
	}
	c.log.Info("extracted 'Records' from the event")

	for _, record := range env.Records {
		ok, err := record.Matches(source)
		if err != nil {
			c.log.WithError(err).Warn("malformed event, skipping this record")
			continue
		}
		if !ok {
			c.log.Warn("found a non ObjectCreated event, ignoring this record")
			continue
		}
		c.log.Infof("valid record found, will attempt to process the file: %v", record.Key)

		contents, err := objstore.Fetch(c.s3, c.log, source, record.Key)
		if err != nil {
			return err
		}

		text, err := c.extract(contents)
		if err != nil {
			c.log.WithError(err).Warnf("%v is invalid and/or corrupt, skipping", record.Key)
			continue
		}

		c.log.Debug("writing file to S3")
		_, err = c.s3.PutObject(&s3.PutObjectInput{
			Bucket: aws.String(dest),
			Key:    aws.String(strings.ReplaceAll(record.Key, ".pdf", ".txt")),
			Body:   bytes.NewReader([]byte(text)),
		})
		if err != nil {
			return fmt.Errorf("failed to write converted file: %v", err)
		}
		c.log.Info("successfully converted pdf to txt, and uploaded to s3")
	}
	return nil
}
