package stream

import (
	"github.com/Shopify/sarama"
)

// groupOffsets keeps consumer group offsets with auto commit disabled.
type groupOffsets struct {
	om   sarama.OffsetManager
	poms map[topicPartition]sarama.PartitionOffsetManager
}

func newGroupOffsets(om sarama.OffsetManager) *groupOffsets {
	return &groupOffsets{
		om:   om,
		poms: make(map[topicPartition]sarama.PartitionOffsetManager),
	}
}

func (g *groupOffsets) NextOffset(topic string, partition int32) (int64, error) {
	pom, err := g.om.ManagePartition(topic, partition)
	if err != nil {
		return 0, err
	}
	g.poms[topicPartition{topic: topic, partition: partition}] = pom

	next, _ := pom.NextOffset()
	return next, nil
}

func (g *groupOffsets) MarkOffset(topic string, partition int32, offset int64) {
	if pom, ok := g.poms[topicPartition{topic: topic, partition: partition}]; ok {
		pom.MarkOffset(offset, "")
	}
}

// Commit flushes marked offsets synchronously. Failures are reported on the
// partition managers' error channels, so the first pending one is returned.
func (g *groupOffsets) Commit() error {
	g.om.Commit()
	for _, pom := range g.poms {
		select {
		case err, ok := <-pom.Errors():
			if ok && err != nil {
				return err
			}
		default:
		}
	}
	return nil
}

// Close shuts the offset manager down first: it is the only one closing the
// partition managers' error channels, and pom.Close drains them until closed.
// Offsets marked since the last Commit are not written.
func (g *groupOffsets) Close() error {
	err := g.om.Close()
	for _, pom := range g.poms {
		if e := pom.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
