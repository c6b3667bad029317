package zone

import "testing"

func TestValidateCommandEnvelopeUnknownType(t *testing.T) {
	cmd, err := NewCommand("transport.rewind", struct{}{})
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	cmd.ID = "id"
	cmd.TS = 1
	cmd.From = "tester"
	if err := ValidateCommandEnvelope(cmd); err == nil {
		t.Fatalf("expected unknown type error")
	}

	cmd.Type = CmdPlay
	if err := ValidateCommandEnvelope(cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCommandEnvelopeMissingFields(t *testing.T) {
	cmd := CommandEnvelope{}
	if err := ValidateCommandEnvelope(cmd); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPresenceIsCoordinator(t *testing.T) {
	tests := []struct {
		presence Presence
		expected bool
	}{
		{Presence{Address: "10.0.0.2"}, true},
		{Presence{Address: "10.0.0.2", Coordinator: "10.0.0.2"}, true},
		{Presence{Address: "10.0.0.2", Coordinator: "10.0.0.3"}, false},
	}
	for _, test := range tests {
		if got := test.presence.IsCoordinator(); got != test.expected {
			t.Fatalf("%+v: expected %t got %t", test.presence, test.expected, got)
		}
	}
}

func TestErrorReply(t *testing.T) {
	cmd := CommandEnvelope{ID: "abc", Type: CmdNext}
	reply := NewErrorReply(cmd, 10, CodeIllegalSeek, "no such track")
	if reply.OK || reply.ID != "abc" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if reply.Err.Error() != "ILLEGAL_SEEK: no such track" {
		t.Fatalf("unexpected error text %q", reply.Err.Error())
	}
}
