package mqttifc

import (
	"testing"

	"powercounter/internal/logging"
)

func TestParseTopics(t *testing.T) {
	spec := "1-0:1.8.0*255=power/total,1-0:16.7.0*255=power/rate,1-0:2.8.0*255=power/feed-total"

	topics := ParseTopics(spec, logging.Discard)

	want := map[string]string{
		"1-0:1.8.0*255":  "power/total",
		"1-0:16.7.0*255": "power/rate",
		"1-0:2.8.0*255":  "power/feed-total",
	}

	if len(topics) != len(want) {
		t.Fatalf("got %d topics; want %d", len(topics), len(want))
	}
	for obis, topic := range want {
		if topics[obis] != topic {
			t.Errorf("topics[%q] = %q; want %q", obis, topics[obis], topic)
		}
	}
}

func TestParseTopicsSkipsMalformedEntries(t *testing.T) {
	topics := ParseTopics("1-0:1.8.0*255=power/total,garbage,also=bad=entry", logging.Discard)

	if len(topics) != 1 {
		t.Fatalf("got %d topics; want 1, topics=%v", len(topics), topics)
	}
	if topics["1-0:1.8.0*255"] != "power/total" {
		t.Errorf("topics = %v; want power/total mapping to survive", topics)
	}
}
