package callbackupdate

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider/cognitoidentityprovideriface"
	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
)

type mockCognito struct {
	cognitoidentityprovideriface.CognitoIdentityProviderAPI
	inputs []*cognitoidentityprovider.UpdateUserPoolClientInput
}

func (m *mockCognito) UpdateUserPoolClient(in *cognitoidentityprovider.UpdateUserPoolClientInput) (*cognitoidentityprovider.UpdateUserPoolClientOutput, error) {
	m.inputs = append(m.inputs, in)
	return &cognitoidentityprovider.UpdateUserPoolClientOutput{}, nil
}

func updateEvent(eventName string) string {
	return fmt.Sprintf(`{
		"source": "aws.cognito-idp",
		"detail": {
			"sourceIPAddress": "cloudformation.amazonaws.com",
			"eventSource": "cognito-idp.amazonaws.com",
			"eventName": "%v",
			"responseElements": {
				"userPoolClient": {
					"userPoolId": "pool-1",
					"clientId": "client-1",
					"callbackURLs": ["https://alb.local/oauth2/idpresponse"],
					"explicitAuthFlows": ["ALLOW_USER_SRP_AUTH"],
					"supportedIdentityProviders": ["COGNITO"],
					"allowedOAuthFlows": ["code"],
					"allowedOAuthScopes": ["openid"],
					"allowedOAuthFlowsUserPoolClient": true,
					"enableTokenRevocation": true,
					"enablePropagateAdditionalUserContextData": false,
					"authSessionValidity": 3
				}
			}
		}
	}`, eventName)
}

func TestHandle(t *testing.T) {

	tt := []struct {
		name    string
		event   string
		userEnv string
		kind    envelope.Kind
	}{
		{name: "happy", event: updateEvent("UpdateUserPoolClient"), userEnv: "pool-1"},
		{name: "wrong event name", event: updateEvent("CreateUserPoolClient"), userEnv: "pool-1", kind: envelope.UnexpectedValue},
		{name: "wrong pool", event: updateEvent("UpdateUserPoolClient"), userEnv: "pool-2", kind: envelope.UnexpectedValue},
		{name: "missing env", event: updateEvent("UpdateUserPoolClient"), kind: envelope.MissingEnv},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			os.Unsetenv("USER_POOL_ID")
			if tc.userEnv != "" {
				os.Setenv("USER_POOL_ID", tc.userEnv)
				defer os.Unsetenv("USER_POOL_ID")
			}
			os.Setenv("APP_CLIENT_ID", "client-1")
			os.Setenv("ALB_DNS_NAME", "alb.local")
			defer os.Unsetenv("APP_CLIENT_ID")
			defer os.Unsetenv("ALB_DNS_NAME")

			cog := &mockCognito{}
			err := NewUpdater(cog, logrus.New()).Handle(json.RawMessage(tc.event))
			if tc.kind != 0 {
				if k := envelope.KindOf(err); k != tc.kind {
					t.Errorf("expected kind %v, got %v", tc.kind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("could not handle event: %v", err)
			}

			if len(cog.inputs) != 1 {
				t.Fatalf("expected one update call, got %v", len(cog.inputs))
			}
			if *cog.inputs[0].UserPoolId != "pool-1" {
				t.Errorf("unexpected pool id: %v", *cog.inputs[0].UserPoolId)
			}
		})
	}
}
