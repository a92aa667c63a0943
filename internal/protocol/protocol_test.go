package protocol

import "testing"

func TestDecodeBase(t *testing.T) {
	m, err := DecodeBase([]byte(`{"type":"REQ","protocol_version":"1.0","op":"buy"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Type != TypeReq || m.ProtocolVersion != Version {
		t.Fatalf("base = %+v", m)
	}

	if _, err := DecodeBase([]byte(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestIsKnownCode(t *testing.T) {
	for _, code := range []string{
		ErrProtoBadRequest, ErrBadRequest, ErrNoPermission, ErrNotInZone,
		ErrNoSpace, ErrNoStock, ErrNoFunds, ErrMaxStock, ErrInternal, "",
	} {
		if !IsKnownCode(code) {
			t.Fatalf("code %q should be known", code)
		}
	}
	if IsKnownCode("E_TEAPOT") {
		t.Fatalf("unexpected known code")
	}
}
