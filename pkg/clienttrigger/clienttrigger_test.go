package clienttrigger

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
)

type mockSQS struct {
	sqsiface.SQSAPI
	sent []*sqs.SendMessageInput
}

func (m *mockSQS) SendMessage(in *sqs.SendMessageInput) (*sqs.SendMessageOutput, error) {
	m.sent = append(m.sent, in)
	return &sqs.SendMessageOutput{}, nil
}

const createEvent = `{
	"source": "aws.cognito-idp",
	"detail": {
		"sourceIPAddress": "cloudformation.amazonaws.com",
		"eventSource": "cognito-idp.amazonaws.com",
		"eventName": "CreateUserPoolClient",
		"responseElements": {
			"userPoolClient": {"userPoolId": "pool-1", "clientId": "client-1"}
		}
	}
}`

func TestHandle(t *testing.T) {

	tt := []struct {
		name  string
		event string
		kind  envelope.Kind
		sent  int
	}{
		{name: "happy", event: createEvent, sent: 1},
		{
			name:  "wrong source",
			event: `{"source":"aws.rds","detail":{"eventName":"CreateDBInstance"}}`,
			kind:  envelope.UnexpectedValue,
		},
		{
			name:  "wrong event name",
			event: `{"source":"aws.cognito-idp","detail":{"sourceIPAddress":"cloudformation.amazonaws.com","eventSource":"cognito-idp.amazonaws.com","eventName":"DeleteUserPoolClient"}}`,
			kind:  envelope.UnexpectedValue,
		},
		{
			name:  "missing response elements",
			event: `{"source":"aws.cognito-idp","detail":{"sourceIPAddress":"cloudformation.amazonaws.com","eventSource":"cognito-idp.amazonaws.com","eventName":"CreateUserPoolClient"}}`,
			kind:  envelope.MissingField,
		},
		{
			name:  "not a bus event",
			event: `{"something":"else"}`,
			kind:  envelope.MalformedEvent,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			os.Setenv("TRIGGER_QUEUE", "https://queue.local/trigger")
			defer os.Unsetenv("TRIGGER_QUEUE")

			m := &mockSQS{}
			err := NewTrigger(m, logrus.New()).Handle(json.RawMessage(tc.event))
			if tc.kind != 0 {
				if k := envelope.KindOf(err); k != tc.kind {
					t.Errorf("expected kind %v, got %v", tc.kind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("could not handle event: %v", err)
			}

			if len(m.sent) != tc.sent {
				t.Fatalf("expected %v messages, got %v", tc.sent, len(m.sent))
			}
			var body map[string]interface{}
			if err := json.Unmarshal([]byte(*m.sent[0].MessageBody), &body); err != nil {
				t.Fatalf("could not decode message body: %v", err)
			}
			if body["userPoolId"] != "pool-1" {
				t.Errorf("unexpected message body: %v", body)
			}
		})
	}
}
