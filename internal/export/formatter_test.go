package export

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/catalog-enricher/internal/agent"
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []agent.ExportNotice
	err     error
	block   chan struct{}
}

func (n *recordingNotifier) NotifyExport(ctx context.Context, notice agent.ExportNotice) error {
	if n.block != nil {
		select {
		case <-n.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	n.notices = append(n.notices, notice)
	n.mu.Unlock()
	return n.err
}

func fixedNow() time.Time {
	return time.UnixMilli(1767225600000)
}

func TestFormatter_ExportCSV(t *testing.T) {
	notifier := &recordingNotifier{}
	f := NewFormatter(Options{Notifier: notifier, Logger: log.New(io.Discard, "", 0), Now: fixedNow})

	payload, err := f.Export(context.Background(), sampleProducts(), map[string]bool{"p3": true}, FormatCSV)
	require.NoError(t, err)
	require.NotNil(t, payload)
	f.Wait()

	assert.Equal(t, "text/csv", payload.MIMEType)
	assert.Equal(t, "enriched-products-1767225600000.csv", payload.Filename)
	assert.Equal(t, 2, payload.Count)
	assert.Equal(t, EncodeCSV(Subset(sampleProducts(), map[string]bool{"p3": true})), payload.Data)
	assert.Equal(t, "Export complete! 2 products exported as CSV.", payload.Message())

	require.Len(t, notifier.notices, 1)
	items := notifier.notices[0].ApprovedProducts
	require.Len(t, items, 2)
	assert.Equal(t, "Ergonomic Chair", items[0].ProductName)
	assert.Equal(t, "TEA-1", items[1].ProductName)
	assert.Nil(t, items[1].DescriptionData)
}

func TestFormatter_ExportJSON(t *testing.T) {
	f := NewFormatter(Options{Logger: log.New(io.Discard, "", 0), Now: fixedNow})

	payload, err := f.Export(context.Background(), sampleProducts(), nil, FormatJSON)
	require.NoError(t, err)
	require.NotNil(t, payload)

	assert.Equal(t, "application/json", payload.MIMEType)
	assert.Equal(t, "enriched-products-1767225600000.json", payload.Filename)
	assert.Equal(t, 1, payload.Count)
	assert.Equal(t, "Export complete! 1 products exported as JSON.", payload.Message())
}

func TestFormatter_EmptySubsetIsNoOp(t *testing.T) {
	notifier := &recordingNotifier{}
	f := NewFormatter(Options{Notifier: notifier})

	payload, err := f.Export(context.Background(), sampleProducts()[1:], nil, FormatCSV)
	require.NoError(t, err)
	assert.Nil(t, payload)
	f.Wait()
	assert.Empty(t, notifier.notices, "nothing is exported so nothing is announced")
}

func TestFormatter_UnsupportedFormat(t *testing.T) {
	f := NewFormatter(Options{})
	_, err := f.Export(context.Background(), sampleProducts(), nil, Format("xlsx"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatter_NotificationFailureIsIgnored(t *testing.T) {
	var logs safeBuffer
	notifier := &recordingNotifier{err: errors.New("export agent down")}
	f := NewFormatter(Options{Notifier: notifier, Logger: log.New(&logs, "", 0)})

	payload, err := f.Export(context.Background(), sampleProducts(), nil, FormatCSV)
	require.NoError(t, err)
	require.NotNil(t, payload)

	f.Wait()
	assert.Contains(t, logs.String(), "export agent down")
}

func TestFormatter_SlowNotificationDoesNotBlockExport(t *testing.T) {
	notifier := &recordingNotifier{block: make(chan struct{})}
	f := NewFormatter(Options{Notifier: notifier, NotifyTimeout: 50 * time.Millisecond, Logger: log.New(io.Discard, "", 0)})

	done := make(chan struct{})
	go func() {
		defer close(done)
		payload, err := f.Export(context.Background(), sampleProducts(), nil, FormatJSON)
		assert.NoError(t, err)
		assert.NotNil(t, payload)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("export waited for the notification")
	}
	f.Wait()
	assert.Empty(t, notifier.notices, "notification was cut off by the timeout")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDirSink(t *testing.T) {
	dir := t.TempDir() + "/out"
	sink := DirSink{Dir: dir}
	payload := &Payload{Data: []byte("a,b"), Filename: "enriched-products-1.csv"}

	require.NoError(t, sink.Deliver(context.Background(), payload))

	data, err := os.ReadFile(sink.Path(payload))
	require.NoError(t, err)
	assert.Equal(t, "a,b", string(data))
}

type safeBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
