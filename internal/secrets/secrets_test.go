package secrets

import (
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/sirupsen/logrus"
)

type mockSecretsManager struct {
	secretsmanageriface.SecretsManagerAPI
	values map[string]string
	err    error
}

func (m *mockSecretsManager) GetSecretValue(in *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.values[*in.SecretId]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func (m *mockSecretsManager) ListSecrets(in *secretsmanager.ListSecretsInput) (*secretsmanager.ListSecretsOutput, error) {
	out := &secretsmanager.ListSecretsOutput{}
	for name := range m.values {
		out.SecretList = append(out.SecretList, &secretsmanager.SecretListEntry{Name: aws.String(name)})
	}
	return out, nil
}

func TestFetch(t *testing.T) {

	tt := []struct {
		name   string
		secret string
		value  string
		err    string
	}{
		{name: "happy", secret: "api-key", value: "sk-123"},
		{name: "absent", secret: "other", err: "failed to fetch secret"},
		{name: "empty value", secret: "empty", value: "", err: "has no string value"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			sm := &mockSecretsManager{values: map[string]string{"api-key": "sk-123", "empty": ""}}
			got, err := Fetch(sm, logrus.New(), tc.secret)
			if tc.err != "" {
				if err == nil {
					t.Fatalf("expected error %q, got none", tc.err)
				}
				if msg := err.Error(); !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("could not fetch secret: %v", err)
			}
			if got != tc.value {
				t.Errorf("expected %v, got %v", tc.value, got)
			}
		})
	}
}

func TestFetchCredentials(t *testing.T) {

	sm := &mockSecretsManager{values: map[string]string{
		"db-creds": `{"host":"db.local","port":5432,"username":"u","password":"p","dbInstanceIdentifier":"ragdb"}`,
		"mangled":  `not json`,
	}}

	creds, err := FetchCredentials(sm, logrus.New(), "db-creds")
	if err != nil {
		t.Fatalf("could not fetch credentials: %v", err)
	}
	if creds.Host != "db.local" || creds.Port.String() != "5432" {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	if _, err := FetchCredentials(sm, logrus.New(), "mangled"); err == nil {
		t.Error("expected decode error, got none")
	}
}

func TestFindCredentials(t *testing.T) {

	tt := []struct {
		name string
		dbID string
		err  string
	}{
		{name: "match", dbID: "ragdb"},
		{name: "no match", dbID: "otherdb", err: "no secret found for database otherdb"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			sm := &mockSecretsManager{values: map[string]string{
				"db-creds": `{"host":"db.local","port":"5432","username":"u","password":"p","dbInstanceIdentifier":"ragdb"}`,
				"api-key":  `sk-123`,
			}}

			creds, err := FindCredentials(sm, logrus.New(), tc.dbID)
			if tc.err != "" {
				if err == nil {
					t.Fatalf("expected error %q, got none", tc.err)
				}
				if msg := err.Error(); !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("could not find credentials: %v", err)
			}
			if creds.DBInstanceID != tc.dbID {
				t.Errorf("expected db id %v, got %v", tc.dbID, creds.DBInstanceID)
			}
		})
	}
}
