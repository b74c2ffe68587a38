package envelope

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Variant tags the recognised trigger shapes.
type Variant int

const (
	// Test is a direct invocation flagged with test_event.
	Test Variant = iota + 1
	// Queue is a SQS-wrapped message; only the first record is taken.
	Queue
	// Bus is an event bus invocation carrying source and detail.
	Bus
	// S3Notification is a bucket notification carrying object records.
	S3Notification
)

// S3Record is one record of an S3 bucket notification.
type S3Record struct {
	EventSource string
	EventName   string
	Bucket      string
	Key         string
}

// Envelope is a trigger payload parsed into one of the known variants.
type Envelope struct {
	Variant Variant

	// Body holds the inner payload for Test and Queue variants.
	Body Payload

	// Source and Detail are set for the Bus variant.
	Source string
	Detail Payload

	// Records are set for the S3Notification variant.
	Records []S3Record

	// MessageID and ReceiptHandle are set when a queue record carries them.
	MessageID     string
	ReceiptHandle string
}

// Parse normalises a raw trigger payload into an Envelope. Any structural
// deviation from the known shapes fails with a MalformedEvent error; the
// caller treats that as fatal for the invocation.
func Parse(raw []byte) (*Envelope, error) {
	if !gjson.ValidBytes(raw) {
		return nil, malformed("event is not valid JSON")
	}

	if strings.EqualFold(gjson.GetBytes(raw, "test_event").String(), "true") {
		var body Payload
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, malformed("test event is not a JSON object")
		}
		return &Envelope{Variant: Test, Body: body}, nil
	}

	if records := gjson.GetBytes(raw, "Records"); records.Exists() {
		if !records.IsArray() || len(records.Array()) == 0 {
			return nil, malformed("'Records' seems to be empty")
		}
		if records.Get("0.eventSource").String() == "aws:s3" {
			return parseNotification(records), nil
		}
		return parseQueue(records)
	}

	source := gjson.GetBytes(raw, "source")
	detail := gjson.GetBytes(raw, "detail")
	if source.Exists() && detail.Exists() {
		if !detail.IsObject() {
			return nil, malformed("'detail' is not an object")
		}
		var det Payload
		if err := json.Unmarshal([]byte(detail.Raw), &det); err != nil {
			return nil, malformed("'detail' is not valid JSON")
		}
		return &Envelope{Variant: Bus, Source: source.String(), Detail: det}, nil
	}

	return nil, malformed("unrecognised event shape")
}

func parseQueue(records gjson.Result) (*Envelope, error) {
	first := records.Get("0")
	if !first.IsObject() {
		return nil, malformed("first record is not a proper object")
	}

	body := first.Get("body")
	if body.String() == "" {
		return nil, malformed("missing 'body' in the record")
	}

	var pay Payload
	if err := json.Unmarshal([]byte(body.String()), &pay); err != nil {
		return nil, malformed("'body' is not valid JSON")
	}

	return &Envelope{
		Variant:       Queue,
		Body:          pay,
		MessageID:     first.Get("messageId").String(),
		ReceiptHandle: first.Get("receiptHandle").String(),
	}, nil
}

func parseNotification(records gjson.Result) *Envelope {
	e := &Envelope{Variant: S3Notification}
	records.ForEach(func(_, r gjson.Result) bool {
		e.Records = append(e.Records, S3Record{
			EventSource: r.Get("eventSource").String(),
			EventName:   r.Get("eventName").String(),
			Bucket:      r.Get("s3.bucket.name").String(),
			Key:         r.Get("s3.object.key").String(),
		})
		return true
	})
	return e
}

// Matches checks a notification record against the expected source bucket.
// A non-ObjectCreated event returns false with no error so the caller can
// skip it; structural problems return a validation error.
func (r S3Record) Matches(bucket string) (bool, error) {
	if r.EventSource != "aws:s3" {
		return false, unexpected("eventSource")
	}
	if r.EventName == "" {
		return false, missing("eventName")
	}
	if !strings.HasPrefix(r.EventName, "ObjectCreated") {
		return false, nil
	}
	if r.Bucket == "" {
		return false, missing("bucket")
	}
	if r.Bucket != bucket {
		return false, unexpected("bucket")
	}
	if r.Key == "" {
		return false, missing("key")
	}
	return true, nil
}

// BusDetail returns the event detail after asserting the bus source.
func (e *Envelope) BusDetail(source string) (Payload, error) {
	if e.Variant != Bus {
		return nil, malformed("not an event bus payload")
	}
	if e.Source != source {
		return nil, unexpected("source")
	}
	if len(e.Detail) == 0 {
		return nil, missing("detail")
	}
	return e.Detail, nil
}

// QueueBody returns the inner payload of a Test or Queue envelope.
func (e *Envelope) QueueBody() (Payload, error) {
	if e.Variant != Test && e.Variant != Queue {
		return nil, malformed("not a queue or test payload")
	}
	if len(e.Body) == 0 {
		return nil, missing("body")
	}
	return e.Body, nil
}
