package queue

import "testing"

func TestStartCancellationConsumerRequiresURL(t *testing.T) {
	// The caller decides whether a broker is configured; an empty URL
	// must fail fast instead of dialing default guest credentials.
	if err := StartCancellationConsumer(""); err == nil {
		t.Fatal("expected an error for an empty amqp url")
	}
}
