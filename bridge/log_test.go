package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covine/heimdall/plugins/stream"
)

func TestRecordBatches(t *testing.T) {
	sets := []*stream.RecordSet{
		{Topic: "orders", Partition: 0, Records: []*stream.Record{
			{Topic: "orders", Partition: 0, Offset: 4, Key: []byte("BusToLog"), Value: []byte("A")},
			{Topic: "orders", Partition: 0, Offset: 5, Value: []byte("B")},
		}},
		{Topic: "orders", Partition: 2, Records: []*stream.Record{
			{Topic: "orders", Partition: 2, Offset: 9, Key: []byte("external"), Value: []byte("C")},
		}},
	}

	var marked []int32
	batches := recordBatches(sets, func(rs *stream.RecordSet) {
		marked = append(marked, rs.Partition)
	})
	require.Len(t, batches, 2)

	assert.Equal(t, []Message{
		{Subject: "orders", Payload: []byte("A"), Tag: "BusToLog"},
		{Subject: "orders", Payload: []byte("B")},
	}, batches[0].Messages)
	assert.Equal(t, []Message{
		{Subject: "orders", Payload: []byte("C"), Tag: "external"},
	}, batches[1].Messages)

	batches[1].Done()
	batches[0].Done()
	assert.Equal(t, []int32{2, 0}, marked)
}
