// Package secrets fetches credentials from Secrets Manager.
package secrets

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/sirupsen/logrus"
)

// Getter is an abstraction (helpful for testing)
type Getter interface {
	GetSecretValue(*secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error)
}

// Lister is an abstraction over secret listing and fetching
type Lister interface {
	Getter
	ListSecrets(*secretsmanager.ListSecretsInput) (*secretsmanager.ListSecretsOutput, error)
}

// Credentials are the connection details held in an RDS database secret.
type Credentials struct {
	Host         string      `json:"host"`
	Port         json.Number `json:"port"`
	Username     string      `json:"username"`
	Password     string      `json:"password"`
	DBInstanceID string      `json:"dbInstanceIdentifier"`
}

// Fetch returns the raw string value of a named secret.
func Fetch(sm Getter, log *logrus.Logger, name string) (string, error) {

	log.Infof("attempting to get secret value for: %v", name)
	out, err := sm.GetSecretValue(&secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch secret %v: %v", name, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("secret %v has no string value", name)
	}
	return *out.SecretString, nil
}

// FetchKV returns the JSON key-value form of a named secret.
func FetchKV(sm Getter, log *logrus.Logger, name string) (map[string]interface{}, error) {

	raw, err := Fetch(sm, log, name)
	if err != nil {
		return nil, err
	}

	kv := make(map[string]interface{})
	if err := json.Unmarshal([]byte(raw), &kv); err != nil {
		return nil, fmt.Errorf("secret %v is not a valid dictionary: %v", name, err)
	}
	return kv, nil
}

// FetchCredentials returns the database credentials held in a named secret.
func FetchCredentials(sm Getter, log *logrus.Logger, name string) (*Credentials, error) {

	raw, err := Fetch(sm, log, name)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("failed to decode credentials in %v: %v", name, err)
	}
	return &creds, nil
}

// FindCredentials scans Secrets Manager for the secret attached to the given
// database instance. Secrets that are not valid credential dictionaries are
// skipped with a warning.
func FindCredentials(sm Lister, log *logrus.Logger, dbID string) (*Credentials, error) {

	out, err := sm.ListSecrets(&secretsmanager.ListSecretsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %v", err)
	}

	for _, secret := range out.SecretList {
		if secret.Name == nil {
			continue
		}
		creds, err := FetchCredentials(sm, log, *secret.Name)
		if err != nil {
			log.Warnf("skipping secret %v: %v", *secret.Name, err)
			continue
		}
		if creds.DBInstanceID == "" {
			log.Warn("no database ID fetched from secret name")
			continue
		}
		if creds.DBInstanceID == dbID {
			log.Info("found matching secret for the database")
			return creds, nil
		}
	}
	return nil, fmt.Errorf("no secret found for database %v", dbID)
}
