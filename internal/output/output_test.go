package output

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/chrisdamba/brewpos/internal/events"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

var eventTime = time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC)

func restockMessage(t *testing.T, item string, amount int32, at time.Time) []byte {
	t.Helper()
	msg, err := json.Marshal(events.RestockEvent{
		Timestamp: at.Unix(),
		EventType: events.TypeRestock,
		EventID:   item + "-1",
		Item:      item,
		Amount:    amount,
		Cost:      1.25,
		Level:     amount + 100,
	})
	require.NoError(t, err)
	return msg
}

func TestPartition(t *testing.T) {
	assert.Equal(t, "year=2024/month=03/day=04/hour=09", partition(eventTime))
	assert.Equal(t, "events/restock_events/year=2024/month=03/day=04/hour=09/data.parquet",
		objectPath("events", events.TopicRestock, eventTime, "data.parquet"))
}

func TestDecodeEvent(t *testing.T) {
	event, ts, err := decodeEvent(restockMessage(t, "milk", 500, eventTime))
	require.NoError(t, err)
	assert.Equal(t, eventTime, ts)
	assert.Equal(t, json.Number("1.25"), event["cost"])

	_, _, err = decodeEvent([]byte(`{"item":"milk"}`))
	assert.Error(t, err)
	_, _, err = decodeEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewConsoleOutput(&buf)
	require.NoError(t, out.WriteMessage(events.TopicFeedback, []byte(`{"name":"Aina"}`)))
	require.NoError(t, out.Close())
	assert.Equal(t, "[feedback_events] {\"name\":\"Aina\"}\n", buf.String())
}

func TestJSONOutput_PartitionsByHour(t *testing.T) {
	dir := t.TempDir()
	out := NewJSONOutput(dir, "events")

	require.NoError(t, out.WriteMessage(events.TopicRestock, restockMessage(t, "milk", 500, eventTime)))
	require.NoError(t, out.WriteMessage(events.TopicRestock, restockMessage(t, "cups", 50, eventTime.Add(10*time.Minute))))
	require.NoError(t, out.WriteMessage(events.TopicRestock, restockMessage(t, "sugar", 200, eventTime.Add(time.Hour))))
	require.NoError(t, out.Close())

	first := filepath.Join(dir, "events", events.TopicRestock, "year=2024", "month=03", "day=04", "hour=09", "data.json")
	f, err := os.Open(first)
	require.NoError(t, err)
	defer f.Close()

	var items []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev events.RestockEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		items = append(items, ev.Item)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"milk", "cups"}, items)

	assert.FileExists(t, filepath.Join(dir, "events", events.TopicRestock, "year=2024", "month=03", "day=04", "hour=10", "data.json"))
}

func TestCSVOutput_WritesSortedHeader(t *testing.T) {
	dir := t.TempDir()
	out := NewCSVOutput(dir, "events")
	require.NoError(t, out.WriteMessage(events.TopicRestock, restockMessage(t, "milk", 500, eventTime)))
	require.NoError(t, out.WriteMessage(events.TopicRestock, restockMessage(t, "cups", 50, eventTime)))
	require.NoError(t, out.Close())

	f, err := os.Open(filepath.Join(dir, "events", events.TopicRestock, "year=2024", "month=03", "day=04", "hour=09", "data.csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, []string{"amount", "cost", "eventId", "eventType", "item", "level", "timestamp"}, records[0])
	assert.Equal(t, []string{"500", "1.25", "milk-1", "restock", "milk", "600", "1709543700"}, records[1])
	assert.Equal(t, "cups", records[2][4])
}

func TestParquetOutput_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := NewParquetOutput(dir, "events", nil, "", nil)
	require.NoError(t, out.WriteMessage(events.TopicRestock, restockMessage(t, "milk", 500, eventTime)))
	require.NoError(t, out.WriteMessage(events.TopicRestock, restockMessage(t, "beans", 250, eventTime)))
	require.NoError(t, out.Close())

	path := filepath.Join(dir, "events", events.TopicRestock, "year=2024", "month=03", "day=04", "hour=09", "data.parquet")
	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(events.RestockEvent), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	require.Equal(t, int64(2), pr.GetNumRows())
	rows := make([]events.RestockEvent, 2)
	require.NoError(t, pr.Read(&rows))
	assert.Equal(t, "milk", rows[0].Item)
	assert.Equal(t, int32(250), rows[1].Amount)
	assert.Equal(t, eventTime.Unix(), rows[1].Timestamp)
}

func TestParquetOutput_UnknownTopic(t *testing.T) {
	out := NewParquetOutput(t.TempDir(), "events", nil, "", nil)
	err := out.WriteMessage("mystery_events", restockMessage(t, "milk", 1, eventTime))
	assert.Error(t, err)
	assert.NoError(t, out.Close())
}

func TestKafkaOutput(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if !strings.Contains(string(val), `"item":"milk"`) {
			return errors.New("unexpected payload")
		}
		return nil
	})
	boom := errors.New("leader not available")
	producer.ExpectSendMessageAndFail(boom)

	out := NewKafkaOutputWithProducer(producer, nil)
	require.NoError(t, out.WriteMessage(events.TopicRestock, restockMessage(t, "milk", 500, eventTime)))
	assert.ErrorIs(t, out.WriteMessage(events.TopicRestock, restockMessage(t, "cups", 5, eventTime)), boom)

	require.NoError(t, out.Close())
	assert.Error(t, out.WriteMessage(events.TopicRestock, nil))
	assert.NoError(t, out.Close())
}

func TestNew_SelectsDestination(t *testing.T) {
	out, err := New(context.Background(), &models.Config{OutputFormat: "console"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ConsoleOutput{}, out)

	out, err = New(context.Background(), &models.Config{OutputFormat: "json", OutputPath: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &JSONOutput{}, out)

	_, err = New(context.Background(), &models.Config{OutputFormat: "csv"}, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), &models.Config{OutputFormat: "xml", OutputPath: t.TempDir()}, nil)
	assert.Error(t, err)
}

func TestTopicToTable(t *testing.T) {
	assert.Equal(t, "fact_order_placed", topicToTable(events.TopicOrderPlaced))
	assert.Equal(t, "fact_order_status", topicToTable(events.TopicOrderPickup))
	assert.Equal(t, "fact_custom", topicToTable("custom_events"))
}

func TestBuildInsertComponents(t *testing.T) {
	cols, vals, placeholders := buildInsertComponents(map[string]interface{}{
		"orderNumber": 1234,
		"eventId":     "abc",
	})
	assert.Equal(t, "event_id, order_number", cols)
	assert.Equal(t, []interface{}{"abc", 1234}, vals)
	assert.Equal(t, "$1, $2", placeholders)
	assert.Equal(t, "estimated_wait_seconds", snakeCaseKey("estimatedWaitSeconds"))
}
