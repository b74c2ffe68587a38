// Command appinit writes the chat frontend's secrets file from the database
// credentials and API key held in Secrets Manager.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/secrets"
)

const defaultSecretsFile = "~/.streamlit/secrets.toml"

func expand(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %v", err)
	}
	return filepath.Join(home, path[2:]), nil
}

func newRootCmd() *cobra.Command {
	var secretsFile, profile string
	var verbose bool

	cmd := &cobra.Command{
		Use:           "appinit",
		Short:         "Write the chat application secrets file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}

			dbSecret, err := envelope.RequireEnv("DB_CREDS")
			if err != nil {
				return err
			}
			apiKeySecret, err := envelope.RequireEnv("API_KEY_SECRET_NAME")
			if err != nil {
				return err
			}

			log.Infof("AWS profile being used: %v", profile)
			sess, err := session.NewSessionWithOptions(session.Options{
				Profile:           profile,
				SharedConfigState: session.SharedConfigEnable,
			})
			if err != nil {
				return fmt.Errorf("failed to create aws session: %v", err)
			}
			svc := secretsmanager.New(sess)

			kv, err := secrets.FetchKV(svc, log, dbSecret)
			if err != nil {
				return err
			}
			apiKey, err := secrets.Fetch(svc, log, apiKeySecret)
			if err != nil {
				return err
			}

			v := viper.New()
			v.SetConfigType("toml")
			for key, value := range kv {
				v.Set(key, value)
			}
			v.Set("openai_api_key", apiKey)

			path, err := expand(secretsFile)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return fmt.Errorf("failed to create %v: %v", filepath.Dir(path), err)
			}

			log.Info("writing streamlit secrets")
			if err := v.WriteConfigAs(path); err != nil {
				return fmt.Errorf("failed to write %v: %v", path, err)
			}
			fmt.Printf("wrote %v\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&secretsFile, "secrets-file", "f", defaultSecretsFile, "where to write the secrets file")
	cmd.Flags().StringVarP(&profile, "aws-profile", "p", "default", "AWS profile to be used for the API calls")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug log output")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
