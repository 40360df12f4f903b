package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"type":"ping"}`)
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, make([]byte, MaxFrameSize+1))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("got %v, want ErrFrameTooLarge", err)
	}
	if buf.Len() != 0 {
		t.Error("partial frame written")
	}
}

func TestWriteFrameRejectsEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, nil); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("got %v, want ErrEmptyFrame", err)
	}
}

func TestReadFrameRejectsOversizedDeclaredLength(t *testing.T) {
	var buf bytes.Buffer
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], MaxFrameSize+1)
	buf.Write(prefix[:])
	// No payload follows; the length must be rejected before any reads.
	if _, err := ReadFrame(&buf); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("got %v, want ErrFrameTooLarge", err)
	}
}

func TestReadFrameRejectsHugeDeclaredLengthWithoutAllocating(t *testing.T) {
	var buf bytes.Buffer
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], 0xFFFFFFFF)
	buf.Write(prefix[:])
	if _, err := ReadFrame(&buf); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("got %v, want ErrFrameTooLarge", err)
	}
}

func TestReadFrameRejectsZeroLength(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0})
	if _, err := ReadFrame(buf); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("got %v, want ErrEmptyFrame", err)
	}
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], 100)
	buf.Write(prefix[:])
	buf.WriteString("short")
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("truncated frame accepted")
	}
}

func TestDecodeRequestRejectsTrailingBytes(t *testing.T) {
	if _, err := DecodeRequest([]byte(`{"type":"ping"}{"extra":1}`)); err == nil {
		t.Fatal("trailing bytes accepted")
	}
}

func TestDecodeRequestRejectsUnknownFields(t *testing.T) {
	if _, err := DecodeRequest([]byte(`{"type":"ping","debug":true}`)); err == nil {
		t.Fatal("unknown top-level field accepted")
	}
	nested := `{"type":"submit","task":{"hook_name":"Stop","hook_data":"{}","color":"red"}}`
	if _, err := DecodeRequest([]byte(nested)); err == nil {
		t.Fatal("unknown nested field accepted")
	}
}

func TestDecodeResponseRejectsUnknownFields(t *testing.T) {
	if _, err := DecodeResponse([]byte(`{"type":"ok","note":"hi"}`)); err == nil {
		t.Fatal("unknown response field accepted")
	}
}

func TestDecodeRequestRejectsUnknownType(t *testing.T) {
	if _, err := DecodeRequest([]byte(`{"type":"reboot"}`)); err == nil {
		t.Fatal("unknown request type accepted")
	}
}

func TestDecodeRequestValidatesTagPayloadAgreement(t *testing.T) {
	// Submit without a task.
	if _, err := DecodeRequest([]byte(`{"type":"submit"}`)); err == nil {
		t.Error("submit without task accepted")
	}
	// Ping with a task.
	payload := `{"type":"ping","task":{"hook_name":"Stop","hook_data":"{}"}}`
	if _, err := DecodeRequest([]byte(payload)); err == nil {
		t.Error("ping with task accepted")
	}
}

func TestRequestRoundTrip(t *testing.T) {
	req := Request{
		Type: MsgSubmit,
		Task: &NotificationTask{
			ID:         "t-1",
			HookName:   "PostToolUse",
			HookData:   `{"tool_name":"Bash"}`,
			NtfyConfig: ipcTaskConfig(),
		},
	}
	data, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Task.HookName != "PostToolUse" || got.Task.NtfyConfig.Topic != "builds" {
		t.Errorf("round trip lost fields: %+v", got.Task)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	for _, resp := range []Response{
		OK(),
		Errorf("queue is full"),
		StatusOf(7, 90e9),
	} {
		data, err := EncodeResponse(resp)
		if err != nil {
			t.Fatalf("encode %+v: %v", resp, err)
		}
		got, err := DecodeResponse(data)
		if err != nil {
			t.Fatalf("decode %+v: %v", resp, err)
		}
		if got.Type != resp.Type {
			t.Errorf("type = %q, want %q", got.Type, resp.Type)
		}
	}
}

func TestStatusOfUptimeSeconds(t *testing.T) {
	resp := StatusOf(3, 90e9) // 90 seconds
	if resp.Status.UptimeSeconds != 90 {
		t.Errorf("uptime = %d, want 90", resp.Status.UptimeSeconds)
	}
	if resp.Status.QueueSize != 3 || !resp.Status.IsRunning {
		t.Errorf("status = %+v", resp.Status)
	}
}

func TestEncodeResponseValidates(t *testing.T) {
	if _, err := EncodeResponse(Response{Type: RespError}); err == nil {
		t.Error("error response without message accepted")
	}
	if _, err := EncodeResponse(Response{Type: RespOK, Error: "x"}); err == nil {
		t.Error("ok response with error payload accepted")
	}
	if _, err := EncodeResponse(Response{Type: RespStatus}); err == nil {
		t.Error("status response without info accepted")
	}
}

func ipcTaskConfig() TaskConfig {
	return TaskConfig{
		ServerURL:  "https://ntfy.example",
		Topic:      "builds",
		SendFormat: "text",
	}
}

func TestErrorResponseMessagePreserved(t *testing.T) {
	resp := Errorf("task %d failed", 7)
	if !strings.Contains(resp.Error, "task 7 failed") {
		t.Errorf("error = %q", resp.Error)
	}
}
