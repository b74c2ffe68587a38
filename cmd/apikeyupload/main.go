// Command apikeyupload stores the chat application's OpenAI API key in
// Secrets Manager, prompting for the key without echoing it.
package main

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newRootCmd() *cobra.Command {
	var secretName, profile string
	var verbose bool

	cmd := &cobra.Command{
		Use:           "apikeyupload",
		Short:         "Upload the chat application API key to Secrets Manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()

			log := logrus.New()
			if verbose {
				log.SetLevel(logrus.DebugLevel)
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

			fmt.Fprint(os.Stderr, "Please enter the API Key: ")
			key, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("failed to read the api key: %v", err)
			}

			log.Infof("updating secret: %v", secretName)
			resp, err := svc.UpdateSecret(&secretsmanager.UpdateSecretInput{
				SecretId:     aws.String(secretName),
				SecretString: aws.String(string(key)),
			})
			if err != nil {
				return fmt.Errorf("failed to update secret: %v", err)
			}
			log.Info("successfully updated secret value")
			fmt.Println(resp)

			log.Infof("total time elapsed: %v", time.Since(start))
			return nil
		},
	}

	cmd.Flags().StringVarP(&secretName, "secret-name", "s", "", "secret name")
	cmd.Flags().StringVarP(&profile, "aws-profile", "p", "default", "AWS profile to be used for the API calls")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug log output")
	cobra.CheckErr(cmd.MarkFlagRequired("secret-name"))

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
