// Package userpool validates Cognito user pool client details and points the
// client's callback URL at the load balancer fronting the chat app.
package userpool

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
)

// Updater is an abstraction for the Cognito client (helpful for testing)
type Updater interface {
	UpdateUserPoolClient(*cognitoidentityprovider.UpdateUserPoolClientInput) (*cognitoidentityprovider.UpdateUserPoolClientOutput, error)
}

// Config is the pool, client and load balancer wiring read from the
// environment.
type Config struct {
	UserPoolID string
	ClientID   string
	ALBDNSName string
}

// LoadConfig reads the required environment variables, failing fast on the
// first missing one.
func LoadConfig() (*Config, error) {

	userPoolID, err := envelope.RequireEnv("USER_POOL_ID")
	if err != nil {
		return nil, err
	}
	clientID, err := envelope.RequireEnv("APP_CLIENT_ID")
	if err != nil {
		return nil, err
	}
	albDNS, err := envelope.RequireEnv("ALB_DNS_NAME")
	if err != nil {
		return nil, err
	}
	return &Config{UserPoolID: userPoolID, ClientID: clientID, ALBDNSName: albDNS}, nil
}

// ExtractClient pulls the user pool client details out of a Cognito bus
// event raised by the given CloudFormation-driven API call.
func ExtractClient(env *envelope.Envelope, eventName string) (envelope.Payload, error) {

	detail, err := env.BusDetail("aws.cognito-idp")
	if err != nil {
		return nil, err
	}

	if err := detail.Expect("sourceIPAddress", "cloudformation.amazonaws.com"); err != nil {
		return nil, err
	}
	if err := detail.Expect("eventSource", "cognito-idp.amazonaws.com"); err != nil {
		return nil, err
	}
	if err := detail.Expect("eventName", eventName); err != nil {
		return nil, err
	}

	elements, err := detail.Child("responseElements")
	if err != nil {
		return nil, err
	}
	return elements.Child("userPoolClient")
}

// CallbackURL is the OAuth2 redirect endpoint expected on the client.
func (c *Config) CallbackURL() string {
	return fmt.Sprintf("https://%v/oauth2/idpresponse", c.ALBDNSName)
}

func boolOf(p envelope.Payload, key string) (bool, error) {
	v, ok := p[key]
	if !ok {
		return false, &envelope.Error{Kind: envelope.MissingField, Field: key}
	}
	b, ok := v.(bool)
	if !ok {
		return false, &envelope.Error{Kind: envelope.UnexpectedValue, Field: key}
	}
	return b, nil
}

func intOf(p envelope.Payload, key string) (int64, error) {
	v, ok := p[key].(float64)
	if !ok {
		return 0, &envelope.Error{Kind: envelope.MissingField, Field: key}
	}
	return int64(v), nil
}

// UpdateCallback validates the client details against the expected pool and
// client, then rewrites the callback URL while carrying the remaining client
// settings over unchanged.
func UpdateCallback(cog Updater, log *logrus.Logger, cfg *Config, details envelope.Payload) error {

	if err := details.Expect("userPoolId", cfg.UserPoolID); err != nil {
		return err
	}
	if err := details.Expect("clientId", cfg.ClientID); err != nil {
		return err
	}

	expected := cfg.CallbackURL()
	urls, err := details.StringSlice("callbackURLs")
	if err != nil {
		return err
	}
	if len(urls) != 1 {
		log.Warn("unexpected number of callback URLs")
	} else if urls[0] != expected {
		log.Warn("looks like the callback URL is not associated with the correct load balancer, please verify")
	}

	authFlows, err := details.StringSlice("explicitAuthFlows")
	if err != nil {
		return err
	}
	providers, err := details.StringSlice("supportedIdentityProviders")
	if err != nil {
		return err
	}
	oauthFlows, err := details.StringSlice("allowedOAuthFlows")
	if err != nil {
		return err
	}
	oauthScopes, err := details.StringSlice("allowedOAuthScopes")
	if err != nil {
		return err
	}
	oauthEnabled, err := boolOf(details, "allowedOAuthFlowsUserPoolClient")
	if err != nil {
		return err
	}
	tokenRevocation, err := boolOf(details, "enableTokenRevocation")
	if err != nil {
		return err
	}
	propagateContext, err := boolOf(details, "enablePropagateAdditionalUserContextData")
	if err != nil {
		return err
	}
	sessionValidity, err := intOf(details, "authSessionValidity")
	if err != nil {
		return err
	}

	log.Info("updating the user pool client URL")
	_, err = cog.UpdateUserPoolClient(&cognitoidentityprovider.UpdateUserPoolClientInput{
		UserPoolId:                               aws.String(cfg.UserPoolID),
		ClientId:                                 aws.String(cfg.ClientID),
		CallbackURLs:                             aws.StringSlice([]string{strings.ToLower(expected)}),
		ExplicitAuthFlows:                        aws.StringSlice(authFlows),
		SupportedIdentityProviders:               aws.StringSlice(providers),
		AllowedOAuthFlows:                        aws.StringSlice(oauthFlows),
		AllowedOAuthScopes:                       aws.StringSlice(oauthScopes),
		AllowedOAuthFlowsUserPoolClient:          aws.Bool(oauthEnabled),
		EnableTokenRevocation:                    aws.Bool(tokenRevocation),
		EnablePropagateAdditionalUserContextData: aws.Bool(propagateContext),
		AuthSessionValidity:                      aws.Int64(sessionValidity),
	})
	if err != nil {
		return fmt.Errorf("unable to update user pool client: %v", err)
	}
	log.Info("successfully updated callback URL")
	return nil
}
