package feed

import (
	"testing"
)

func TestDecodeFrameKeepalive(t *testing.T) {
	for _, raw := range []string{"{}", "", "  {}  "} {
		events, upstream, err := decodeFrame([]byte(raw))
		if err != nil || upstream != nil || events != nil {
			t.Errorf("decodeFrame(%q) = (%v, %v, %v), want all nil", raw, events, upstream, err)
		}
	}
}

func TestDecodeFrameInitAck(t *testing.T) {
	events, upstream, err := decodeFrame([]byte(`{"C":"d-1A2B,0|C,1","S":1,"M":[]}`))
	if err != nil || upstream != nil || len(events) != 0 {
		t.Fatalf("init ack should carry no events, got (%v, %v, %v)", events, upstream, err)
	}
}

func TestDecodeFrameInvocations(t *testing.T) {
	raw := []byte(`{"C":"d-9F,2|K,4","M":[` +
		`{"H":"LinesHub","M":"lineChanged","A":[{"eventId":501}]},` +
		`{"H":"LinesHub","M":"lineChanged","A":[{"eventId":502}]}]}`)
	events, upstream, err := decodeFrame(raw)
	if err != nil || upstream != nil {
		t.Fatalf("unexpected (%v, %v)", upstream, err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Hub != "LinesHub" || events[0].Method != "lineChanged" {
		t.Errorf("event = %+v", events[0])
	}
	if len(events[1].Args) != 1 {
		t.Errorf("args = %v, want one raw payload", events[1].Args)
	}
}

func TestDecodeFrameUpstreamError(t *testing.T) {
	_, upstream, err := decodeFrame([]byte(`{"E":"hub not found"}`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if upstream == nil || upstream.Message != "hub not found" {
		t.Fatalf("upstream = %v, want message 'hub not found'", upstream)
	}
}

func TestDecodeFrameGarbage(t *testing.T) {
	for _, raw := range []string{"not json", `["array"]`, `{"M":"not-a-list"}`} {
		if _, _, err := decodeFrame([]byte(raw)); err == nil {
			t.Errorf("decodeFrame(%q): want parse error", raw)
		}
	}
}
