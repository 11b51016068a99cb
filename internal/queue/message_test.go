package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		AnalysisID: "analysis-123",
		RequestID:  "request-456",
		EnqueuedAt: "2026-01-30T22:00:00Z",
		Version:    1,
	}

	payload, err := EncodeMessage(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"analysisId":"analysis-123","requestId":"request-456","enqueuedAt":"2026-01-30T22:00:00Z","version":1}`, string(payload))

	got, err := DecodeMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestDecodeMessageTrimsIDAndRejectsGarbage(t *testing.T) {
	got, err := DecodeMessage([]byte(`{"analysisId":"  a-1 ","extra":true}`))
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.AnalysisID)

	_, err = DecodeMessage([]byte("not json"))
	assert.Error(t, err)
}

type fakeSender struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSender) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSClientSend(t *testing.T) {
	sender := &fakeSender{}
	client := &SQSClient{client: sender, queueURL: "https://sqs.local/queue"}

	require.NoError(t, client.Send(context.Background(), Message{AnalysisID: "a-1", Version: 1}))
	require.Len(t, sender.inputs, 1)
	assert.Equal(t, "https://sqs.local/queue", aws.ToString(sender.inputs[0].QueueUrl))
	assert.Contains(t, aws.ToString(sender.inputs[0].MessageBody), `"analysisId":"a-1"`)

	sender.err = errors.New("throttled")
	err := client.Send(context.Background(), Message{AnalysisID: "a-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqs send message")
}

func TestNewSQSClientRequiresURL(t *testing.T) {
	_, err := NewSQSClient(context.Background(), "  ", "")
	assert.Error(t, err)
}
