package messagecenter_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	cbus "github.com/next-trace/scg-message-center/contract/bus"
	berr "github.com/next-trace/scg-message-center/contract/errors"
	"github.com/next-trace/scg-message-center/messagecenter"
)

// fakes

type fakeRelay struct {
	topics []string
	opts   []cbus.RelayOptions
	err    error
}

func (f *fakeRelay) RelayTopic(ctx context.Context, topic string, opts cbus.RelayOptions) error {
	f.topics = append(f.topics, topic)
	f.opts = append(f.opts, opts)

	return f.err
}

type fakeSource struct {
	deliver func(string)
	topic   string
	stopped bool
	err     error
}

func (f *fakeSource) Listen(ctx context.Context, topic string, deliver func(string)) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}

	f.topic = topic
	f.deliver = deliver

	return func() { f.stopped = true }, nil
}

func Test_PublishOrder_EveryCall(t *testing.T) {
	c := messagecenter.New()

	var seen []int
	for i := 1; i <= 3; i++ {
		n := i
		c.Subscribe("orders", func() { seen = append(seen, n) })
	}

	c.Publish("orders")
	c.Publish("orders")

	want := []int{1, 2, 3, 1, 2, 3}
	if len(seen) != len(want) {
		t.Fatalf("seen=%v", seen)
	}

	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen=%v want=%v", seen, want)
		}
	}
}

func Test_PublishUnknownTopic_NoOp(t *testing.T) {
	c := messagecenter.New()

	calls := 0
	c.Subscribe("a", func() { calls++ })

	c.Publish("nonexistent")
	c.Publish("")

	if calls != 0 {
		t.Fatalf("calls=%d", calls)
	}
}

func Test_DuplicateRegistration_InvokedPerRegistration(t *testing.T) {
	c := messagecenter.New()

	calls := 0
	cb := func() { calls++ }

	c.Subscribe("t", cb)
	c.Subscribe("t", cb)
	c.Publish("t")

	if calls != 2 {
		t.Fatalf("calls=%d", calls)
	}

	if n := c.SubscriberCount("t"); n != 2 {
		t.Fatalf("count=%d", n)
	}
}

func Test_NilCallbackSkipped(t *testing.T) {
	c := messagecenter.New()

	calls := 0
	c.Subscribe("t", nil)
	c.Subscribe("t", func() { calls++ })
	c.Publish("t")

	if calls != 1 {
		t.Fatalf("calls=%d", calls)
	}
}

func Test_CallbackMaySubscribeDuringPublish(t *testing.T) {
	c := messagecenter.New()

	late := 0
	c.Subscribe("t", func() { c.Subscribe("t", func() { late++ }) })

	c.Publish("t")
	if late != 0 {
		t.Fatalf("late subscriber ran during the publish that added it")
	}

	c.Publish("t")
	if late != 1 {
		t.Fatalf("late=%d", late)
	}
}

func Test_Topics_Sorted(t *testing.T) {
	c := messagecenter.New()
	c.Subscribe("b", func() {})
	c.Subscribe("a", func() {})

	got := c.Topics()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("topics=%v", got)
	}
}

func Test_Relay_AfterLocalFanOut(t *testing.T) {
	fr := &fakeRelay{}
	opts := cbus.RelayOptions{Headers: map[string]string{"h": "v"}}
	c := messagecenter.New(messagecenter.WithRelay(fr), messagecenter.WithRelayOptions(opts))

	relayedBefore := -1
	c.Subscribe("t", func() { relayedBefore = len(fr.topics) })

	c.PublishContext(testContext(t), "t")

	if relayedBefore != 0 {
		t.Fatalf("relay ran before subscribers: %d", relayedBefore)
	}

	if len(fr.topics) != 1 || fr.topics[0] != "t" {
		t.Fatalf("relayed=%v", fr.topics)
	}

	if fr.opts[0].Headers["h"] != "v" {
		t.Fatalf("opts=%+v", fr.opts[0])
	}

	// topics without subscribers are still relayed
	c.Publish("remote-only")

	if len(fr.topics) != 2 || fr.topics[1] != "remote-only" {
		t.Fatalf("relayed=%v", fr.topics)
	}
}

func Test_RelayError_LoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	fr := &fakeRelay{err: errors.New("boom")}
	c := messagecenter.New(messagecenter.WithRelay(fr), messagecenter.WithLogger(logger))

	calls := 0
	c.Subscribe("t", func() { calls++ })
	c.Publish("t")

	if calls != 1 {
		t.Fatalf("calls=%d", calls)
	}

	if !strings.Contains(buf.String(), "relay topic failed") || !strings.Contains(buf.String(), "boom") {
		t.Fatalf("log=%q", buf.String())
	}
}

func Test_Bridge_FansOutWithoutRelaying(t *testing.T) {
	fr := &fakeRelay{}
	c := messagecenter.New(messagecenter.WithRelay(fr))

	calls := 0
	c.Subscribe("remote", func() { calls++ })

	src := &fakeSource{}

	stop, err := c.Bridge(testContext(t), src, "remote")
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}

	if src.topic != "remote" {
		t.Fatalf("listen topic=%q", src.topic)
	}

	src.deliver("remote")

	if calls != 1 {
		t.Fatalf("calls=%d", calls)
	}

	if len(fr.topics) != 0 {
		t.Fatalf("bridged delivery was relayed: %v", fr.topics)
	}

	stop()

	if !src.stopped {
		t.Fatalf("stop not propagated")
	}
}

func Test_Bridge_Errors(t *testing.T) {
	c := messagecenter.New()

	if _, err := c.Bridge(testContext(t), nil, "t"); !errors.Is(err, berr.ErrRelayNotConfigured) {
		t.Fatalf("want ErrRelayNotConfigured, got %v", err)
	}

	src := &fakeSource{err: berr.ErrSubscribeFailed}
	if _, err := c.Bridge(testContext(t), src, "t"); !errors.Is(err, berr.ErrSubscribeFailed) {
		t.Fatalf("want ErrSubscribeFailed, got %v", err)
	}
}

func Test_ConcurrentSubscribePublish(t *testing.T) {
	c := messagecenter.New()

	var (
		mu    sync.Mutex
		calls int
	)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()

			c.Subscribe("t", func() {
				mu.Lock()
				calls++
				mu.Unlock()
			})
		}()

		go func() {
			defer wg.Done()

			c.Publish("t")
		}()
	}

	wg.Wait()

	if n := c.SubscriberCount("t"); n != 50 {
		t.Fatalf("subscribers=%d", n)
	}

	before := calls
	c.Publish("t")

	if calls-before != 50 {
		t.Fatalf("final publish calls=%d", calls-before)
	}
}

// blockingRelay waits for its context, like a publisher with no broker connection.
type blockingRelay struct{ hadDeadline bool }

func (b *blockingRelay) RelayTopic(ctx context.Context, topic string, opts cbus.RelayOptions) error {
	_, b.hadDeadline = ctx.Deadline()
	<-ctx.Done()

	return ctx.Err()
}

func Test_Publish_UnreachableRelay_TimesOutAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	br := &blockingRelay{}
	c := messagecenter.New(
		messagecenter.WithRelay(br),
		messagecenter.WithLogger(logger),
		messagecenter.WithRelayTimeout(20*time.Millisecond),
	)

	calls := 0
	c.Subscribe("t", func() { calls++ })

	done := make(chan struct{})

	go func() {
		defer close(done)

		c.Publish("t")
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on an unreachable relay")
	}

	if calls != 1 {
		t.Fatalf("calls=%d", calls)
	}

	if !br.hadDeadline {
		t.Fatalf("relay called without a deadline")
	}

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "relay topic failed") ||
		!strings.Contains(out, context.DeadlineExceeded.Error()) {
		t.Fatalf("log=%q", out)
	}
}

func Test_PublishContext_KeepsCallerDeadline(t *testing.T) {
	br := &blockingRelay{}
	c := messagecenter.New(messagecenter.WithRelay(br), messagecenter.WithRelayTimeout(time.Hour))

	ctx, cancel := context.WithTimeout(testContext(t), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	c.PublishContext(ctx, "t")

	if time.Since(start) > time.Second {
		t.Fatalf("caller deadline not honored")
	}
}

func Test_DefaultRelayTimeout_Applied(t *testing.T) {
	fr := &deadlineRelay{}
	c := messagecenter.New(messagecenter.WithRelay(fr))
	c.Publish("t")

	if fr.remaining <= 0 || fr.remaining > messagecenter.DefaultRelayTimeout {
		t.Fatalf("remaining=%s", fr.remaining)
	}
}

type deadlineRelay struct{ remaining time.Duration }

func (d *deadlineRelay) RelayTopic(ctx context.Context, topic string, opts cbus.RelayOptions) error {
	if dl, ok := ctx.Deadline(); ok {
		d.remaining = time.Until(dl)
	}

	return nil
}
